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
	"fmt"

	"himo-chat-go/internal/models"
	"himo-chat-go/internal/store"

	"go.uber.org/zap"
)

// SaveMessage appends a message; re-saving an existing id is a no-op since
// messages never change after creation.
func (s *Service) SaveMessage(ctx context.Context, message *models.StoredMessage) error {
	if message == nil || message.Id == "" || message.UserId == "" {
		return fmt.Errorf("%w: message id and user id are required", store.ErrInvalidStoreInput)
	}

	var cost sql.NullInt64
	if message.Cost != nil {
		cost = sql.NullInt64{Int64: *message.Cost, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, queryInsertMessage,
		message.Id, message.UserId, message.Text, message.IsBot, formatTimestamp(message.Timestamp), cost)
	if err != nil {
		zap.L().Error("Failed to save message",
			zap.String("message_id", message.Id),
			zap.String("user_id", message.UserId),
			zap.Error(err))
		return fmt.Errorf("%w: unable to save message: %v", store.ErrStoreUnavailable, err)
	}

	zap.L().Debug("Message saved",
		zap.String("message_id", message.Id),
		zap.String("user_id", message.UserId),
		zap.Bool("is_bot", message.IsBot))
	return nil
}

// GetUserMessages returns the full history of a user in chronological order
func (s *Service) GetUserMessages(ctx context.Context, userId string) ([]models.StoredMessage, error) {
	zap.L().Debug("Getting user messages", zap.String("user_id", userId))
	return s.queryMessages(ctx, queryGetUserMessages, userId)
}

// GetMessageHistory returns one page of history, newest first
func (s *Service) GetMessageHistory(ctx context.Context, userId string, limit, offset int) ([]models.StoredMessage, error) {
	zap.L().Debug("Getting message history",
		zap.String("user_id", userId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))
	return s.queryMessages(ctx, queryGetMessageHistory, userId, limit, offset)
}

func (s *Service) queryMessages(ctx context.Context, query string, args ...any) ([]models.StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query messages: %v", store.ErrStoreUnavailable, err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	messages := []models.StoredMessage{}
	for rows.Next() {
		var (
			message   models.StoredMessage
			timestamp string
			cost      sql.NullInt64
		)
		if err := rows.Scan(&message.Id, &message.UserId, &message.Text, &message.IsBot, &timestamp, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if message.Timestamp, err = parseTimestamp(timestamp); err != nil {
			return nil, err
		}
		if cost.Valid {
			value := cost.Int64
			message.Cost = &value
		}
		messages = append(messages, message)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during message row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

// ClearUserMessages deletes a user's messages one row at a time. There is no
// transaction spanning the rows, so an interrupted call leaves a partial
// history behind; the returned count reflects what was actually deleted.
func (s *Service) ClearUserMessages(ctx context.Context, userId string) (int, error) {
	zap.L().Info("Clearing user messages", zap.String("user_id", userId))

	rows, err := s.db.QueryContext(ctx, queryGetUserMessageIds, userId)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to list messages: %v", store.ErrStoreUnavailable, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("failed to scan message id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, fmt.Errorf("error iterating message ids: %w", err)
	}
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}

	deleted := 0
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx, queryDeleteMessage, id); err != nil {
			zap.L().Error("Message clear interrupted",
				zap.String("user_id", userId),
				zap.Int("deleted", deleted),
				zap.Int("remaining", len(ids)-deleted),
				zap.Error(err))
			return deleted, fmt.Errorf("%w: failed to delete message %s: %v", store.ErrStoreUnavailable, id, err)
		}
		deleted++
	}

	zap.L().Info("User messages cleared", zap.String("user_id", userId), zap.Int("deleted", deleted))
	return deleted, nil
}
