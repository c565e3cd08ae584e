/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"himo-chat-go/internal/store"

	"go.uber.org/zap"
)

var ErrPersisterClosed = errors.New("persister closed")

// Command is one deferred store write. Commands sharing a Key overwrite the
// same record, so a later one supersedes an earlier failure.
type Command struct {
	Key string
	Run func(ctx context.Context, s store.ChatStore) error
}

// queuedCommand carries the submission sequence of its command. Retries
// keep the original sequence so a newer submission for the key wins.
type queuedCommand struct {
	cmd   Command
	seq   uint64
	retry bool
}

// Persister applies store writes on a single ordered worker goroutine. The
// in-memory session state is already updated when a command is queued.
type Persister struct {
	store   store.ChatStore
	timeout time.Duration
	queue   chan queuedCommand

	mutex    sync.Mutex
	closed   bool
	failed   map[string]queuedCommand
	latest   map[string]uint64
	seq      uint64
	inflight int
	waiters  []chan struct{}

	// Control channels
	stopChan  chan struct{}
	doneChan  chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

func NewPersister(s store.ChatStore, queueSize int, timeout time.Duration) *Persister {
	if queueSize <= 0 {
		queueSize = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Persister{
		store:    s,
		timeout:  timeout,
		queue:    make(chan queuedCommand, queueSize),
		failed:   make(map[string]queuedCommand),
		latest:   make(map[string]uint64),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start launches the worker
func (p *Persister) Start() {
	p.startOnce.Do(func() {
		go p.run()
	})
}

// Submit queues a command, blocking while the queue is full
func (p *Persister) Submit(cmd Command) error {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return ErrPersisterClosed
	}
	p.seq++
	p.latest[cmd.Key] = p.seq
	qc := queuedCommand{cmd: cmd, seq: p.seq}
	p.inflight++
	p.mutex.Unlock()

	return p.enqueue(qc)
}

func (p *Persister) enqueue(qc queuedCommand) error {
	select {
	case p.queue <- qc:
		return nil
	case <-p.stopChan:
		p.mutex.Lock()
		p.finishLocked()
		p.mutex.Unlock()
		return ErrPersisterClosed
	}
}

// Flush waits until every queued command has run
func (p *Persister) Flush(ctx context.Context) error {
	p.mutex.Lock()
	if p.inflight == 0 {
		p.mutex.Unlock()
		return nil
	}
	done := make(chan struct{})
	p.waiters = append(p.waiters, done)
	p.mutex.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flush interrupted: %w", ctx.Err())
	}
}

// Retry re-queues failed commands in submission order and waits for the
// outcome. A failed command is skipped when a newer one for its key has been
// submitted. It reports how many commands are still failing.
func (p *Persister) Retry(ctx context.Context) error {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return ErrPersisterClosed
	}
	retries := make([]queuedCommand, 0, len(p.failed))
	for key, f := range p.failed {
		if p.latest[key] != f.seq {
			continue
		}
		f.retry = true
		retries = append(retries, f)
	}
	p.inflight += len(retries)
	p.mutex.Unlock()

	sort.Slice(retries, func(i, j int) bool { return retries[i].seq < retries[j].seq })

	if len(retries) > 0 {
		zap.L().Info("Retrying failed persistence commands", zap.Int("count", len(retries)))
	}
	for i, f := range retries {
		if err := p.enqueue(f); err != nil {
			p.mutex.Lock()
			for range retries[i+1:] {
				p.finishLocked()
			}
			p.mutex.Unlock()
			return err
		}
	}
	if err := p.Flush(ctx); err != nil {
		return err
	}

	if remaining := p.FailedKeys(); len(remaining) > 0 {
		return fmt.Errorf("%w: %d commands still failing", store.ErrStoreUnavailable, len(remaining))
	}
	return nil
}

// FailedKeys lists the keys of commands whose last attempt failed
func (p *Persister) FailedKeys() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	keys := make([]string, 0, len(p.failed))
	for k := range p.failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close stops accepting commands, drains the queue and stops the worker
func (p *Persister) Close(ctx context.Context) error {
	var flushErr error
	p.closeOnce.Do(func() {
		p.mutex.Lock()
		p.closed = true
		p.mutex.Unlock()

		p.Start()
		flushErr = p.Flush(ctx)

		close(p.stopChan)
		<-p.doneChan

		if keys := p.FailedKeys(); len(keys) > 0 {
			zap.L().Warn("Persister closed with failed commands", zap.Strings("keys", keys))
		}
	})
	return flushErr
}

func (p *Persister) run() {
	defer close(p.doneChan)

	for {
		select {
		case cmd := <-p.queue:
			p.execute(cmd)
		case <-p.stopChan:
			return
		}
	}
}

func (p *Persister) execute(qc queuedCommand) {
	cmd := qc.cmd

	p.mutex.Lock()
	if qc.retry && p.latest[cmd.Key] > qc.seq {
		p.finishLocked()
		p.mutex.Unlock()
		zap.L().Debug("Skipping superseded retry", zap.String("key", cmd.Key))
		return
	}
	p.mutex.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	err := cmd.Run(ctx, p.store)

	p.mutex.Lock()
	defer p.mutex.Unlock()
	defer p.finishLocked()

	prev, hadFailure := p.failed[cmd.Key]
	if err != nil {
		// An older command failing never masks a newer failure
		if !hadFailure || prev.seq <= qc.seq {
			p.failed[cmd.Key] = queuedCommand{cmd: cmd, seq: qc.seq}
		}
		zap.L().Error("Persistence command failed",
			zap.String("key", cmd.Key),
			zap.Error(err))
		return
	}

	if hadFailure && prev.seq <= qc.seq {
		zap.L().Info("Persistence command recovered", zap.String("key", cmd.Key))
		delete(p.failed, cmd.Key)
	}
}

// finishLocked marks one command done and wakes flushers once idle
func (p *Persister) finishLocked() {
	p.inflight--
	if p.inflight > 0 {
		return
	}
	for _, w := range p.waiters {
		close(w)
	}
	p.waiters = nil
}
