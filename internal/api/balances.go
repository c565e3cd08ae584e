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

package api

import (
	"context"
	"fmt"
	"strings"

	"himo-chat-go/internal/models"

	"go.uber.org/zap"
)

// GetUserBalances returns the coin balances of every user, or of the user
// whose name matches usernameFilter (case-insensitive) when it is set.
func (s *ReportService) GetUserBalances(ctx context.Context, usernameFilter string) ([]models.UserBalance, error) {
	users, err := s.db.GetUsers(ctx)
	if err != nil {
		zap.L().Error("Failed to get users", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve balances: %w", err)
	}

	result := make([]models.UserBalance, 0, len(users))
	for _, user := range users {
		if usernameFilter != "" && !strings.EqualFold(user.Username, usernameFilter) {
			continue
		}
		result = append(result, models.UserBalance{
			UserId:       user.Id,
			Username:     user.Username,
			HimCoins:     user.HimCoins,
			GoldCoins:    user.GoldCoins,
			Subscription: user.Subscription,
		})
	}

	return result, nil
}

// GetMessageHistory returns one page of a user's messages, newest first
func (s *ReportService) GetMessageHistory(ctx context.Context, userId string, limit, offset int) ([]models.StoredMessage, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.db.GetMessageHistory(ctx, userId, limit, offset)
	if err != nil {
		zap.L().Error("Failed to get message history",
			zap.String("user_id", userId),
			zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve message history: %w", err)
	}

	return messages, nil
}

func (s *ReportService) GetUserStats(ctx context.Context, userId string) (models.UserStats, error) {
	if userId == "" {
		return models.UserStats{}, fmt.Errorf("user_id is required")
	}

	stats, err := s.db.GetUserStats(ctx, userId)
	if err != nil {
		zap.L().Error("Failed to get user stats", zap.String("user_id", userId), zap.Error(err))
		return models.UserStats{}, fmt.Errorf("failed to retrieve stats: %w", err)
	}
	return stats, nil
}
