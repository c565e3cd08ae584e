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
	"errors"
	"flag"
	"fmt"
	"sort"

	"himo-chat-go/internal/account"
	"himo-chat-go/internal/common"
	"himo-chat-go/internal/config"

	"go.uber.org/zap"
)

func printFieldErrors(verr *account.ValidationError) {
	fields := make([]string, 0, len(verr.Fields))
	for field := range verr.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		fmt.Printf("✗ %-16s %s\n", field+":", verr.Fields[field])
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	usernameFlag := flag.String("username", "", "Username, at least 3 characters (required)")
	emailFlag := flag.String("email", "", "User's email address (required)")
	passwordFlag := flag.String("password", "", "Password, at least 6 characters (required)")
	flag.Parse()

	// Validate required flags
	if *usernameFlag == "" || *emailFlag == "" || *passwordFlag == "" {
		zap.L().Fatal("All flags are required: --username, --email and --password")
	}

	zap.L().Info("Starting user registration",
		zap.String("username", *usernameFlag),
		zap.String("email", *emailFlag))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	zap.L().Info("Initializing services")
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	user, err := services.Accounts.CreateUser(ctx, *usernameFlag, *emailFlag, *passwordFlag)
	if err != nil {
		var verr *account.ValidationError
		if errors.As(err, &verr) {
			printFieldErrors(verr)
			zap.L().Fatal("Registration rejected", zap.Error(err))
		}
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader("USER CREATED", common.DefaultWidth)
	fmt.Printf("ID:        %s\n", user.Id)
	fmt.Printf("Username:  %s\n", user.Username)
	fmt.Printf("Email:     %s\n", user.Email)
	fmt.Printf("HimCoins:  %d\n", user.HimCoins)
	fmt.Printf("Quests:    %d\n", len(user.Quests))
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("User created successfully", zap.String("id", user.Id))
}
