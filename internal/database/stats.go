package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"himo-chat-go/internal/models"
	"himo-chat-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetUserStats aggregates the user-authored messages of a user
func (s *Service) GetUserStats(ctx context.Context, userId string) (models.UserStats, error) {
	zap.L().Debug("Getting user stats", zap.String("user_id", userId))

	var (
		stats       models.UserStats
		first, last sql.NullString
	)
	err := s.db.QueryRowContext(ctx, queryGetUserStats, userId).Scan(&stats.TotalMessages, &stats.TotalSpent, &first, &last)
	if err != nil {
		zap.L().Error("Failed to get user stats", zap.String("user_id", userId), zap.Error(err))
		return models.UserStats{}, fmt.Errorf("%w: failed to get user stats: %v", store.ErrStoreUnavailable, err)
	}

	if stats.FirstMessageDate, err = parseNullableTimestamp(first); err != nil {
		return models.UserStats{}, err
	}
	if stats.LastMessageDate, err = parseNullableTimestamp(last); err != nil {
		return models.UserStats{}, err
	}

	stats.AverageCost = decimal.Zero
	if stats.TotalMessages > 0 {
		stats.AverageCost = decimal.NewFromInt(stats.TotalSpent).
			Div(decimal.NewFromInt(stats.TotalMessages)).
			Round(2)
	}

	zap.L().Debug("Retrieved user stats",
		zap.String("user_id", userId),
		zap.Int64("total_messages", stats.TotalMessages),
		zap.Int64("total_spent", stats.TotalSpent),
		zap.String("average_cost", stats.AverageCost.String()))
	return stats, nil
}

// ExportUserData renders the profile, history and stats of a user as
// indented JSON. The profile is looked up by id.
func (s *Service) ExportUserData(ctx context.Context, userId string) ([]byte, error) {
	user, err := s.GetUserById(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	messages, err := s.GetUserMessages(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("error getting messages: %w", err)
	}

	stats, err := s.GetUserStats(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("error getting stats: %w", err)
	}

	data, err := json.MarshalIndent(models.ExportData{
		User:       user,
		Messages:   messages,
		Stats:      stats,
		ExportDate: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("unable to encode export: %w", err)
	}

	zap.L().Info("User data exported",
		zap.String("user_id", userId),
		zap.Int("messages", len(messages)),
		zap.Int("bytes", len(data)))
	return data, nil
}
