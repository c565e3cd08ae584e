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

package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"himo-chat-go/internal/api"
	"himo-chat-go/internal/common"
	"himo-chat-go/internal/config"
	"himo-chat-go/internal/models"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers      int
	subscribedUsers int
	totalHimCoins   int64
	totalGoldCoins  int64
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format("2006-01-02 15:04:05")
}

func printUserHeader(balance models.UserBalance) {
	fmt.Printf("\n┌─ User: %s\n", balance.Username)
	fmt.Printf("│  ID: %s\n", balance.UserId)
	common.PrintBoxSeparator(78)
}

func printBalance(balance models.UserBalance, stats models.UserStats, now time.Time, last bool) {
	fmt.Printf("%s %-15s: %12d\n", common.BoxPrefix(false), "HimCoins", balance.HimCoins)
	fmt.Printf("%s %-15s: %12d\n", common.BoxPrefix(false), "GoldCoins", balance.GoldCoins)
	fmt.Printf("%s %-15s: %s\n", common.BoxPrefix(false), "Subscription", common.FormatSubscription(balance.Subscription, now))
	fmt.Printf("%s %-15s: %d messages, %d spent, avg %s (first: %s, last: %s)\n",
		common.BoxPrefix(last),
		"Activity",
		stats.TotalMessages,
		stats.TotalSpent,
		stats.AverageCost.StringFixed(2),
		formatDate(stats.FirstMessageDate),
		formatDate(stats.LastMessageDate))
}

// printHistory lists recent messages, newest first
func printHistory(messages []models.StoredMessage) {
	if len(messages) == 0 {
		fmt.Printf("%s %-15s: none\n", common.BoxPrefix(true), "Recent")
		return
	}
	fmt.Printf("%s %-15s:\n", common.BoxPrefix(false), "Recent")
	for i, msg := range messages {
		author := "User"
		if msg.IsBot {
			author = "Bot"
		}
		cost := ""
		if msg.Cost != nil {
			cost = fmt.Sprintf(" [-%d]", *msg.Cost)
		}
		fmt.Printf("%s   %s %-4s %s%s\n",
			common.BoxPrefix(i == len(messages)-1),
			msg.Timestamp.Format("2006-01-02 15:04:05"),
			author,
			truncate(msg.Text, 40),
			cost)
	}
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

func processUsersAndGenerateReport(ctx context.Context, balances []models.UserBalance, reports *api.ReportService, historyLimit int, logger *zap.Logger) balanceStats {
	stats := balanceStats{}
	now := time.Now().UTC()

	for _, balance := range balances {
		stats.totalUsers++

		userStats, err := reports.GetUserStats(ctx, balance.UserId)
		if err != nil {
			logger.Error("Failed to process user",
				zap.String("user_id", balance.UserId),
				zap.String("username", balance.Username),
				zap.Error(err))
			continue
		}

		printUserHeader(balance)
		printBalance(balance, userStats, now, historyLimit <= 0)

		if historyLimit > 0 {
			history, err := reports.GetMessageHistory(ctx, balance.UserId, historyLimit, 0)
			if err != nil {
				logger.Warn("Failed to load message history",
					zap.String("user_id", balance.UserId),
					zap.Error(err))
			}
			printHistory(history)
		}

		stats.totalHimCoins += balance.HimCoins
		stats.totalGoldCoins += balance.GoldCoins
		if balance.Subscription.Active && balance.Subscription.Remaining(now) > 0 {
			stats.subscribedUsers++
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	usernameFlag := flag.String("username", "", "Filter by specific username (optional)")
	historyFlag := flag.Int("history", 0, "Show the N most recent messages per user (1-100, 0 disables)")
	flag.Parse()

	logger.Info("Starting balance query")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Read-only, so the economy catalog is not needed
	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	reports := api.NewReportService(dbService)
	if err := reports.HealthCheck(ctx); err != nil {
		logger.Fatal("Database is not healthy", zap.Error(err))
	}

	balances, err := reports.GetUserBalances(ctx, *usernameFlag)
	if err != nil {
		logger.Fatal("Failed to load balances", zap.Error(err))
	}
	if *usernameFlag != "" && len(balances) == 0 {
		logger.Fatal("User not found", zap.String("username", *usernameFlag))
	}

	// Print header
	common.PrintHeader("USER BALANCE REPORT", common.DefaultWidth)

	stats := processUsersAndGenerateReport(ctx, balances, reports, *historyFlag, logger)

	// Print footer summary
	summary := fmt.Sprintf("SUMMARY: %d users, %d subscribed, %d HimCoins and %d GoldCoins in circulation",
		stats.totalUsers, stats.subscribedUsers, stats.totalHimCoins, stats.totalGoldCoins)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("subscribed_users", stats.subscribedUsers))
}
