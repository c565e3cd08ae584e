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

// Package economy implements the HimCoins/GoldCoins state machine. Every
// operation takes a profile by value and returns a new one; persisting the
// result is up to the caller.
package economy

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"himo-chat-go/internal/models"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrQuestNotFound     = errors.New("quest not found")
	ErrQuestNotComplete  = errors.New("quest not complete")
	ErrUnknownPlan       = errors.New("unknown subscription plan")
)

// Plan is a validated, ready-to-sell subscription plan
type Plan struct {
	Id       models.SubscriptionType
	Title    string
	Price    int64
	Duration time.Duration
	Benefits []string
	Popular  bool
}

type Engine struct {
	catalog            *Catalog
	plans              []Plan
	dailyBonusInterval time.Duration
	questResetInterval time.Duration
	now                func() time.Time
}

type Option func(*Engine)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(catalog *Catalog, opts ...Option) (*Engine, error) {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid economy catalog: %w", err)
	}

	// Validate already proved these parse.
	bonusInterval, _ := time.ParseDuration(catalog.DailyBonusInterval)
	resetInterval, _ := time.ParseDuration(catalog.QuestResetInterval)

	plans := make([]Plan, 0, len(catalog.Plans))
	for _, p := range catalog.Plans {
		duration, _ := time.ParseDuration(p.Duration)
		plans = append(plans, Plan{
			Id:       models.SubscriptionType(p.Id),
			Title:    p.Title,
			Price:    p.Price,
			Duration: duration,
			Benefits: append([]string(nil), p.Benefits...),
			Popular:  p.Popular,
		})
	}

	e := &Engine{
		catalog:            catalog,
		plans:              plans,
		dailyBonusInterval: bonusInterval,
		questResetInterval: resetInterval,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Now returns the engine's notion of the current time in UTC
func (e *Engine) Now() time.Time {
	return e.now().UTC()
}

// StartingHimCoins is the balance granted at registration
func (e *Engine) StartingHimCoins() int64 {
	return e.catalog.StartingHimCoins
}

// PriceMessage charges PricePerBlock for every started block of BlockSize
// characters. The empty string is charged the one-block minimum.
func (e *Engine) PriceMessage(text string) int64 {
	length := utf8.RuneCountInString(text)
	blocks := (length + e.catalog.BlockSize - 1) / e.catalog.BlockSize
	if blocks < 1 {
		blocks = 1
	}
	return int64(blocks) * e.catalog.PricePerBlock
}

func (e *Engine) CanAfford(user models.UserProfile, cost int64) bool {
	if user.Subscription.Active {
		return true
	}
	return user.HimCoins >= cost
}

// Debit subtracts cost from HimCoins unless the user is subscribed. The
// caller checks CanAfford first; the balance is floored at zero regardless.
func (e *Engine) Debit(user models.UserProfile, cost int64) models.UserProfile {
	next := user.Clone()
	if next.Subscription.Active || cost <= 0 {
		return next
	}
	next.HimCoins -= cost
	if next.HimCoins < 0 {
		next.HimCoins = 0
	}
	return next
}

func (e *Engine) IsDailyBonusEligible(user models.UserProfile) bool {
	if user.LastDailyBonus == nil {
		return true
	}
	return e.Now().Sub(*user.LastDailyBonus) >= e.dailyBonusInterval
}

// ClaimDailyBonus is a no-op when the user already claimed within the window.
func (e *Engine) ClaimDailyBonus(user models.UserProfile) models.UserProfile {
	next := user.Clone()
	if !e.IsDailyBonusEligible(user) {
		return next
	}
	now := e.Now()
	next.HimCoins += e.catalog.DailyBonus
	next.LastDailyBonus = &now
	return next
}

// DailyBonusAvailableAt returns when the next bonus can be claimed
func (e *Engine) DailyBonusAvailableAt(user models.UserProfile) time.Time {
	if user.LastDailyBonus == nil {
		return e.Now()
	}
	return user.LastDailyBonus.Add(e.dailyBonusInterval)
}

// Reconcile runs the lazy time-based checks (subscription expiry, then quest
// staleness) and reports whether the profile changed.
func (e *Engine) Reconcile(user models.UserProfile) (models.UserProfile, bool) {
	changed := false
	next := user.Clone()
	if e.isExpired(next) {
		next = e.CheckSubscriptionExpiry(next)
		changed = true
	}
	if e.NeedsQuestReset(next) {
		next = e.ResetQuestsIfStale(next)
		changed = true
	}
	return next, changed
}
