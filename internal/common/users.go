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

package common

import (
	"context"
	"fmt"
	"sort"
	"time"

	"himo-chat-go/internal/models"
	"himo-chat-go/internal/store"

	"go.uber.org/zap"
)

// UserInfo is the slice of a profile the command-line tools print and loop over
type UserInfo struct {
	Id           string
	Username     string
	HimCoins     int64
	GoldCoins    int64
	Subscription models.SubscriptionType // SubscriptionNone unless currently running
	Messages     int64
}

func newUserInfo(user models.UserProfile, now time.Time) UserInfo {
	info := UserInfo{
		Id:           user.Id,
		Username:     user.Username,
		HimCoins:     user.HimCoins,
		GoldCoins:    user.GoldCoins,
		Subscription: models.SubscriptionNone,
		Messages:     user.TotalMessages,
	}
	if user.Subscription.Active && user.Subscription.Remaining(now) > 0 {
		info.Subscription = user.Subscription.Type
	}
	return info
}

// InitializeUsers resolves the accounts a tool should act on: the one named
// by usernameFilter, or every account ordered by username.
func InitializeUsers(ctx context.Context, dbService store.ChatStore, usernameFilter string, logger *zap.Logger) ([]UserInfo, error) {
	now := time.Now().UTC()

	if usernameFilter != "" {
		logger.Info("Looking up user by username", zap.String("username", usernameFilter))
		user, err := dbService.GetUserByUsername(ctx, usernameFilter)
		if err != nil {
			return nil, fmt.Errorf("user %q not found: %w", usernameFilter, err)
		}
		return []UserInfo{newUserInfo(*user, now)}, nil
	}

	profiles, err := dbService.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	users := make([]UserInfo, 0, len(profiles))
	for _, profile := range profiles {
		users = append(users, newUserInfo(profile, now))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	logger.Info("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}
