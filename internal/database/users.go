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


package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"himo-chat-go/internal/models"
	"himo-chat-go/internal/store"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// SaveUser upserts the full profile keyed by id
func (s *Service) SaveUser(ctx context.Context, user *models.UserProfile) error {
	if user == nil || user.Id == "" {
		return fmt.Errorf("%w: user id cannot be empty", store.ErrInvalidStoreInput)
	}

	quests := user.Quests
	if quests == nil {
		quests = []models.Quest{}
	}
	questsJSON, err := json.Marshal(quests)
	if err != nil {
		return fmt.Errorf("unable to encode quests: %w", err)
	}

	subscriptionType := user.Subscription.Type
	if subscriptionType == "" {
		subscriptionType = models.SubscriptionNone
	}

	_, err = s.db.ExecContext(ctx, queryUpsertUser,
		user.Id, user.Username, user.Email, user.PasswordHash,
		user.HimCoins, user.GoldCoins,
		formatTimestamp(user.RegistrationDate), formatTimestamp(user.LastLogin),
		user.TotalMessages, string(questsJSON), formatTimestamp(user.LastQuestReset),
		formatNullableTimestamp(user.LastDailyBonus),
		string(subscriptionType),
		formatNullableTimestamp(user.Subscription.StartDate),
		formatNullableTimestamp(user.Subscription.EndDate),
		user.Subscription.Active)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			zap.L().Warn("Rejected duplicate user",
				zap.String("username", user.Username),
				zap.String("email", user.Email))
			return fmt.Errorf("%w: %s", store.ErrDuplicateUser, sqliteErr.Error())
		}
		zap.L().Error("Failed to save user", zap.String("user_id", user.Id), zap.Error(err))
		return fmt.Errorf("%w: unable to save user: %v", store.ErrStoreUnavailable, err)
	}

	zap.L().Debug("User saved",
		zap.String("user_id", user.Id),
		zap.Int64("him_coins", user.HimCoins),
		zap.Int64("gold_coins", user.GoldCoins))
	return nil
}

func (s *Service) GetUsers(ctx context.Context) ([]models.UserProfile, error) {
	zap.L().Debug("Querying users")

	rows, err := s.db.QueryContext(ctx, queryGetUsers)
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("%w: unable to query users: %v", store.ErrStoreUnavailable, err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var users []models.UserProfile
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			zap.L().Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan user row: %w", err)
		}
		users = append(users, *user)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during user row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	zap.L().Info("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.UserProfile, error) {
	zap.L().Debug("Querying user by ID", zap.String("user_id", userId))
	return s.getUser(ctx, queryGetUserById, userId)
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.UserProfile, error) {
	zap.L().Debug("Querying user by username", zap.String("username", username))
	return s.getUser(ctx, queryGetUserByUsername, username)
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	zap.L().Debug("Querying user by email", zap.String("email", email))
	return s.getUser(ctx, queryGetUserByEmail, email)
}

func (s *Service) getUser(ctx context.Context, query, key string) (*models.UserProfile, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, key)
		}
		zap.L().Error("Failed to query user", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: unable to query user: %v", store.ErrStoreUnavailable, err)
	}
	return user, nil
}

func scanUser(row rowScanner) (*models.UserProfile, error) {
	var (
		user                                  models.UserProfile
		registrationDate, lastLogin, lastReset string
		questsJSON, subscriptionType           string
		lastBonus, subStart, subEnd            sql.NullString
	)

	err := row.Scan(
		&user.Id, &user.Username, &user.Email, &user.PasswordHash,
		&user.HimCoins, &user.GoldCoins,
		&registrationDate, &lastLogin, &user.TotalMessages, &questsJSON, &lastReset,
		&lastBonus, &subscriptionType, &subStart, &subEnd, &user.Subscription.Active)
	if err != nil {
		return nil, err
	}

	if user.RegistrationDate, err = parseTimestamp(registrationDate); err != nil {
		return nil, err
	}
	if user.LastLogin, err = parseTimestamp(lastLogin); err != nil {
		return nil, err
	}
	if user.LastQuestReset, err = parseTimestamp(lastReset); err != nil {
		return nil, err
	}
	if user.LastDailyBonus, err = parseNullableTimestamp(lastBonus); err != nil {
		return nil, err
	}
	if user.Subscription.StartDate, err = parseNullableTimestamp(subStart); err != nil {
		return nil, err
	}
	if user.Subscription.EndDate, err = parseNullableTimestamp(subEnd); err != nil {
		return nil, err
	}
	user.Subscription.Type = models.SubscriptionType(subscriptionType)

	if err := json.Unmarshal([]byte(questsJSON), &user.Quests); err != nil {
		return nil, fmt.Errorf("unable to decode quests for user %s: %w", user.Id, err)
	}

	return &user, nil
}
