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

// Package session drives one logged-in chat session: authentication, the
// message exchange with the bot and every economy action of the user.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"himo-chat-go/internal/account"
	"himo-chat-go/internal/bot"
	"himo-chat-go/internal/economy"
	"himo-chat-go/internal/models"
	"himo-chat-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrAlreadyAuthenticated = errors.New("session already authenticated")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrBonusNotAvailable    = errors.New("daily bonus not available yet")
)

// WelcomeMessage seeds an empty history
const WelcomeMessage = "Hi! I'm the Himo assistant. Every message costs HimCoins, and longer messages cost more. How are you?"

// Authenticator is the subset of the account manager a session needs
type Authenticator interface {
	Register(ctx context.Context, req account.RegisterRequest) (*models.UserProfile, error)
	Login(ctx context.Context, req account.LoginRequest) (*models.UserProfile, error)
}

type Config struct {
	Accounts       Authenticator
	Engine         *economy.Engine
	Store          store.ChatStore
	Responder      bot.Responder
	ReplyDelay     time.Duration
	PersistQueue   int
	PersistTimeout time.Duration
}

type Controller struct {
	accounts   Authenticator
	engine     *economy.Engine
	store      store.ChatStore
	responder  bot.Responder
	replyDelay time.Duration
	persister  *Persister

	mutex          sync.Mutex
	state          State
	user           *models.UserProfile
	messages       []models.StoredMessage
	generation     uint64
	pendingReplies int
	cancelReplies  chan struct{}
	replies        sync.WaitGroup
}

func NewController(cfg Config) (*Controller, error) {
	if cfg.Accounts == nil {
		return nil, fmt.Errorf("account manager is required")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("economy engine is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.ReplyDelay < 0 {
		return nil, fmt.Errorf("reply delay cannot be negative, got %v", cfg.ReplyDelay)
	}
	if cfg.Responder == nil {
		cfg.Responder = bot.NewScripted(nil)
	}

	persister := NewPersister(cfg.Store, cfg.PersistQueue, cfg.PersistTimeout)
	persister.Start()

	return &Controller{
		accounts:      cfg.Accounts,
		engine:        cfg.Engine,
		store:         cfg.Store,
		responder:     cfg.Responder,
		replyDelay:    cfg.ReplyDelay,
		persister:     persister,
		state:         StateUnauthenticated,
		cancelReplies: make(chan struct{}),
	}, nil
}

func (c *Controller) Register(ctx context.Context, req account.RegisterRequest) (*models.UserProfile, error) {
	return c.authenticate(ctx, func() (*models.UserProfile, error) {
		return c.accounts.Register(ctx, req)
	})
}

func (c *Controller) Login(ctx context.Context, req account.LoginRequest) (*models.UserProfile, error) {
	return c.authenticate(ctx, func() (*models.UserProfile, error) {
		return c.accounts.Login(ctx, req)
	})
}

func (c *Controller) authenticate(ctx context.Context, auth func() (*models.UserProfile, error)) (*models.UserProfile, error) {
	c.mutex.Lock()
	if c.state != StateUnauthenticated {
		c.mutex.Unlock()
		return nil, ErrAlreadyAuthenticated
	}
	c.state = StateAuthenticating
	c.mutex.Unlock()

	// Writes queued by an earlier session must land before the profile and
	// history are read back.
	if err := c.persister.Flush(ctx); err != nil {
		zap.L().Warn("Authenticating with store writes still queued", zap.Error(err))
	}

	user, err := auth()
	if err != nil {
		c.setState(StateUnauthenticated)
		return nil, err
	}

	messages, err := c.store.GetUserMessages(ctx, user.Id)
	if err != nil {
		c.setState(StateUnauthenticated)
		return nil, fmt.Errorf("failed to load message history: %w", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.generation++
	c.user = user
	c.messages = messages
	if len(c.messages) == 0 {
		c.appendMessageLocked(WelcomeMessage, true, nil)
	}
	c.reconcileLocked()
	c.state = StateActive

	zap.L().Info("Session started",
		zap.String("user_id", user.Id),
		zap.Int("history", len(c.messages)))

	profile := c.user.Clone()
	return &profile, nil
}

// Refresh re-runs the lazy subscription expiry and quest reset checks
func (c *Controller) Refresh(ctx context.Context) (*models.UserProfile, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.authenticatedLocked() {
		return nil, ErrNotAuthenticated
	}
	c.reconcileLocked()

	profile := c.user.Clone()
	return &profile, nil
}

// SendMessage charges for and records a user message, then schedules the bot
// reply after the configured delay. A zero delay replies before returning.
func (c *Controller) SendMessage(ctx context.Context, text string) (*models.StoredMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	c.mutex.Lock()
	if !c.authenticatedLocked() {
		c.mutex.Unlock()
		return nil, ErrNotAuthenticated
	}

	c.expireSubscriptionLocked()

	user := c.user.Clone()
	cost := c.engine.PriceMessage(text)
	if !c.engine.CanAfford(user, cost) {
		c.mutex.Unlock()
		return nil, fmt.Errorf("%w: message costs %d HimCoins, balance is %d",
			economy.ErrInsufficientFunds, cost, user.HimCoins)
	}

	var charged *int64
	if !user.Subscription.Active {
		charged = &cost
	}
	msg := c.appendMessageLocked(text, false, charged)

	next := c.engine.AdvanceQuestProgress(user)
	next = c.engine.Debit(next, cost)
	c.user = &next
	c.persistUserLocked()

	generation := c.generation
	cancel := c.cancelReplies
	c.pendingReplies++
	c.state = StateChatting
	c.replies.Add(1)
	c.mutex.Unlock()

	zap.L().Debug("Message sent",
		zap.String("user_id", next.Id),
		zap.Int64("cost", cost),
		zap.Bool("subscribed", next.Subscription.Active))

	if c.replyDelay <= 0 {
		c.deliverReply(generation, text)
	} else {
		go c.scheduleReply(generation, cancel, text)
	}

	return &msg, nil
}

func (c *Controller) scheduleReply(generation uint64, cancel <-chan struct{}, text string) {
	timer := time.NewTimer(c.replyDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		c.deliverReply(generation, text)
	case <-cancel:
		c.replies.Done()
	}
}

func (c *Controller) deliverReply(generation uint64, text string) {
	defer c.replies.Done()

	reply := c.responder.Respond(text)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.generation != generation || c.user == nil {
		zap.L().Debug("Discarding bot reply for ended session")
		return
	}

	c.appendMessageLocked(reply, true, nil)
	c.pendingReplies--
	if c.pendingReplies == 0 && c.state == StateChatting {
		c.state = StateActive
	}
}

// WaitForReplies blocks until every scheduled bot reply was delivered or
// discarded.
func (c *Controller) WaitForReplies(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.replies.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) ClaimQuestReward(ctx context.Context, questId string) (*models.UserProfile, error) {
	return c.apply(func(user models.UserProfile) (models.UserProfile, error) {
		return c.engine.ClaimQuestReward(user, questId)
	})
}

func (c *Controller) PurchaseSubscription(ctx context.Context, planId models.SubscriptionType) (*models.UserProfile, error) {
	return c.apply(func(user models.UserProfile) (models.UserProfile, error) {
		return c.engine.PurchaseSubscription(user, planId)
	})
}

func (c *Controller) ClaimDailyBonus(ctx context.Context) (*models.UserProfile, error) {
	return c.apply(func(user models.UserProfile) (models.UserProfile, error) {
		if !c.engine.IsDailyBonusEligible(user) {
			return user, fmt.Errorf("%w: next bonus at %s",
				ErrBonusNotAvailable, c.engine.DailyBonusAvailableAt(user).Format(time.RFC3339))
		}
		return c.engine.ClaimDailyBonus(user), nil
	})
}

// apply runs an engine operation on the session profile and persists the
// result when it succeeds.
func (c *Controller) apply(op func(models.UserProfile) (models.UserProfile, error)) (*models.UserProfile, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.authenticatedLocked() {
		return nil, ErrNotAuthenticated
	}

	next, err := op(c.user.Clone())
	if err != nil {
		return nil, err
	}
	c.user = &next
	c.persistUserLocked()

	profile := next.Clone()
	return &profile, nil
}

// Profile returns a copy of the session's user
func (c *Controller) Profile() (models.UserProfile, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.authenticatedLocked() {
		return models.UserProfile{}, ErrNotAuthenticated
	}
	return c.user.Clone(), nil
}

// History returns a copy of the loaded message history
func (c *Controller) History() []models.StoredMessage {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]models.StoredMessage(nil), c.messages...)
}

func (c *Controller) State() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state
}

// Plans lists the subscriptions on sale
func (c *Controller) Plans() []economy.Plan {
	return c.engine.Plans()
}

// Reconcile retries store writes that failed earlier in the session
func (c *Controller) Reconcile(ctx context.Context) error {
	return c.persister.Retry(ctx)
}

// Logout ends the session. Replies still pending are discarded; stored
// data is left untouched.
func (c *Controller) Logout() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.user != nil {
		zap.L().Info("Session ended", zap.String("user_id", c.user.Id))
	}

	c.generation++
	close(c.cancelReplies)
	c.cancelReplies = make(chan struct{})
	c.pendingReplies = 0
	c.user = nil
	c.messages = nil
	c.state = StateUnauthenticated
}

// Close waits for pending replies and drains queued store writes
func (c *Controller) Close(ctx context.Context) error {
	if err := c.WaitForReplies(ctx); err != nil {
		zap.L().Warn("Closing with bot replies still pending", zap.Error(err))
	}
	return c.persister.Close(ctx)
}

func (c *Controller) setState(state State) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.state = state
}

func (c *Controller) authenticatedLocked() bool {
	return c.user != nil && (c.state == StateActive || c.state == StateChatting)
}

func (c *Controller) reconcileLocked() {
	next, changed := c.engine.Reconcile(*c.user)
	if !changed {
		return
	}
	c.user = &next
	c.persistUserLocked()
	zap.L().Info("Reconciled time-based state",
		zap.String("user_id", next.Id),
		zap.String("subscription", string(next.Subscription.Type)))
}

func (c *Controller) expireSubscriptionLocked() {
	if !c.user.Subscription.Active {
		return
	}
	next := c.engine.CheckSubscriptionExpiry(*c.user)
	if next.Subscription.Active {
		return
	}
	c.user = &next
	c.persistUserLocked()
	zap.L().Info("Subscription expired", zap.String("user_id", next.Id))
}

func (c *Controller) appendMessageLocked(text string, isBot bool, cost *int64) models.StoredMessage {
	msg := models.StoredMessage{
		Id:        uuid.New().String(),
		UserId:    c.user.Id,
		Text:      text,
		IsBot:     isBot,
		Timestamp: c.engine.Now(),
		Cost:      cost,
	}
	c.messages = append(c.messages, msg)

	stored := msg
	c.submit(Command{
		Key: "message:" + msg.Id,
		Run: func(ctx context.Context, s store.ChatStore) error {
			return s.SaveMessage(ctx, &stored)
		},
	})
	return msg
}

func (c *Controller) persistUserLocked() {
	snapshot := c.user.Clone()
	c.submit(Command{
		Key: "user:" + snapshot.Id,
		Run: func(ctx context.Context, s store.ChatStore) error {
			return s.SaveUser(ctx, &snapshot)
		},
	})
}

func (c *Controller) submit(cmd Command) {
	if err := c.persister.Submit(cmd); err != nil {
		zap.L().Error("Failed to queue persistence command",
			zap.String("key", cmd.Key),
			zap.Error(err))
	}
}
