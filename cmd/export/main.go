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
	"os"

	"himo-chat-go/internal/common"
	"himo-chat-go/internal/config"
	"himo-chat-go/internal/database"
	"himo-chat-go/internal/session"

	"go.uber.org/zap"
)

func outputFile(user common.UserInfo, format, override string, single bool) string {
	if override != "" && single {
		return override
	}
	if format == "json" {
		return user.Username + "-export.json"
	}
	return user.Username + "-chat-history.txt"
}

func exportUser(ctx context.Context, dbService *database.Service, user common.UserInfo, format, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if format == "json" {
		data, err := dbService.ExportUserData(ctx, user.Id)
		if err != nil {
			return fmt.Errorf("failed to export user data: %w", err)
		}
		if _, err := file.Write(data); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		return nil
	}

	messages, err := dbService.GetUserMessages(ctx, user.Id)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}
	return session.WriteTranscript(file, messages)
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	usernameFlag := flag.String("username", "", "Export only this user (optional, default all users)")
	formatFlag := flag.String("format", "text", "Export format: text (chat transcript) or json (full data export)")
	outputFlag := flag.String("output", "", "Output file when exporting a single user")
	flag.Parse()

	if *formatFlag != "text" && *formatFlag != "json" {
		logger.Fatal("Unsupported format", zap.String("format", *formatFlag))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	users, err := common.InitializeUsers(ctx, dbService, *usernameFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	var exported int
	for _, user := range users {
		path := outputFile(user, *formatFlag, *outputFlag, len(users) == 1)
		if err := exportUser(ctx, dbService, user, *formatFlag, path); err != nil {
			fmt.Printf("✗ %s: %v\n", user.Username, err)
			logger.Error("Failed to export user",
				zap.String("user_id", user.Id),
				zap.String("username", user.Username),
				zap.Error(err))
			continue
		}
		fmt.Printf("✓ %s -> %s (%d messages, %d HimCoins, %d GoldCoins, plan %s)\n",
			user.Username, path, user.Messages, user.HimCoins, user.GoldCoins, user.Subscription)
		exported++
	}

	logger.Info("Export complete",
		zap.String("format", *formatFlag),
		zap.Int("exported", exported),
		zap.Int("users", len(users)))
}
