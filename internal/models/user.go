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

package models

import "time"

// SubscriptionType identifies a Him+ plan
type SubscriptionType string

const (
	SubscriptionNone      SubscriptionType = "none"
	SubscriptionThreeDays SubscriptionType = "3days"
	SubscriptionOneWeek   SubscriptionType = "1week"
	SubscriptionOneMonth  SubscriptionType = "1month"
)

// Reward is paid out when a completed quest is claimed
type Reward struct {
	HimCoins  int64 `json:"himCoins" yaml:"him_coins"`
	GoldCoins int64 `json:"goldCoins" yaml:"gold_coins"`
}

// Quest tracks daily progress measured in user-sent messages
type Quest struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Target      int    `json:"target"`
	Progress    int    `json:"progress"`
	Completed   bool   `json:"completed"`
	Reward      Reward `json:"reward"`
}

// Subscription is a premium window that waives per-message cost
type Subscription struct {
	Type      SubscriptionType `json:"type"`
	StartDate *time.Time       `json:"startDate,omitempty"`
	EndDate   *time.Time       `json:"endDate,omitempty"`
	Active    bool             `json:"active"`
}

// Remaining returns the time left before the subscription ends, or zero when
// it is inactive or already past its end date.
func (s Subscription) Remaining(now time.Time) time.Duration {
	if !s.Active || s.EndDate == nil {
		return 0
	}
	if left := s.EndDate.Sub(now); left > 0 {
		return left
	}
	return 0
}

// UserProfile is the single mutable aggregate of the system
type UserProfile struct {
	Id               string       `json:"id"`
	Username         string       `json:"username"`
	Email            string       `json:"email"`
	PasswordHash     string       `json:"-"`
	HimCoins         int64        `json:"himCoins"`
	GoldCoins        int64        `json:"goldCoins"`
	RegistrationDate time.Time    `json:"registrationDate"`
	LastLogin        time.Time    `json:"lastLogin"`
	TotalMessages    int64        `json:"totalMessages"`
	Quests           []Quest      `json:"quests"`
	LastQuestReset   time.Time    `json:"lastQuestReset"`
	LastDailyBonus   *time.Time   `json:"lastDailyBonus,omitempty"`
	Subscription     Subscription `json:"subscription"`
}

// Clone returns a deep copy so callers can derive a new profile without
// touching the original.
func (u UserProfile) Clone() UserProfile {
	out := u
	if u.Quests != nil {
		out.Quests = make([]Quest, len(u.Quests))
		copy(out.Quests, u.Quests)
	}
	out.LastDailyBonus = cloneTime(u.LastDailyBonus)
	out.Subscription.StartDate = cloneTime(u.Subscription.StartDate)
	out.Subscription.EndDate = cloneTime(u.Subscription.EndDate)
	return out
}

// FindQuest returns the index of the quest with the given id, or -1
func (u UserProfile) FindQuest(questId string) int {
	for i, q := range u.Quests {
		if q.Id == questId {
			return i
		}
	}
	return -1
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
