package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"himo-chat-go/internal/common"
	"himo-chat-go/internal/config"
	"himo-chat-go/internal/economy"
	"himo-chat-go/internal/store"

	"go.uber.org/zap"
)

type demoUser struct {
	username string
	email    string
	password string
}

var demoUsers = []demoUser{
	{username: "alice", email: "alice@example.com", password: "alice123"},
	{username: "bob", email: "bob@example.com", password: "bob12345"},
	{username: "carol", email: "carol@example.com", password: "carol123"},
}

// seedDemoUsers registers the demo accounts, skipping any that already exist
func seedDemoUsers(ctx context.Context, services *common.Services) {
	var created, skipped int
	var failed []string

	for _, demo := range demoUsers {
		user, err := services.Accounts.CreateUser(ctx, demo.username, demo.email, demo.password)
		if err != nil {
			if errors.Is(err, store.ErrDuplicateUser) {
				zap.L().Info("Demo user already exists", zap.String("username", demo.username))
				skipped++
				continue
			}
			zap.L().Error("Failed to create demo user",
				zap.String("username", demo.username),
				zap.Error(err))
			failed = append(failed, demo.username)
			continue
		}

		zap.L().Info("Created demo user",
			zap.String("id", user.Id),
			zap.String("username", user.Username))
		created++
	}

	if len(failed) > 0 {
		zap.L().Warn("Demo user seeding completed with some failures",
			zap.Int("created", created),
			zap.Int("skipped", skipped),
			zap.Strings("failed", failed))
	} else {
		zap.L().Info("Demo user seeding completed",
			zap.Int("created", created),
			zap.Int("skipped", skipped))
	}
}

func printCatalog(catalog *economy.Catalog, engine *economy.Engine) {
	common.PrintHeader("ECONOMY CATALOG", common.DefaultWidth)
	fmt.Printf("Starting HimCoins:   %d\n", catalog.StartingHimCoins)
	fmt.Printf("Daily bonus:         %d every %s\n", catalog.DailyBonus, catalog.DailyBonusInterval)
	fmt.Printf("Message price:       %d per %d characters\n", catalog.PricePerBlock, catalog.BlockSize)
	fmt.Printf("Quest reset:         every %s\n", catalog.QuestResetInterval)

	fmt.Printf("\n┌─ Quests (%d)\n", len(catalog.Quests))
	for i, quest := range catalog.Quests {
		isLast := i == len(catalog.Quests)-1
		fmt.Printf("%s %-8s %-26s target %3d, reward %d HimCoins + %d GoldCoins\n",
			common.BoxPrefix(isLast), quest.Id, quest.Title, quest.Target,
			quest.Reward.HimCoins, quest.Reward.GoldCoins)
	}

	plans := engine.Plans()
	fmt.Printf("\n┌─ Plans (%d)\n", len(plans))
	for i, plan := range plans {
		isLast := i == len(plans)-1
		popular := ""
		if plan.Popular {
			popular = " [popular]"
		}
		fmt.Printf("%s %-7s %-14s %4d GoldCoins for %s%s\n",
			common.BoxPrefix(isLast), plan.Id, plan.Title, plan.Price, common.FormatRemaining(plan.Duration), popular)
		fmt.Printf("%s   %s\n", common.BoxDetailPrefix(isLast), strings.Join(plan.Benefits, ", "))
	}
	common.PrintSeparator("=", common.DefaultWidth)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	seedFlag := flag.Bool("seed", false, "Create the demo users (also enabled by CREATE_DUMMY_USERS)")
	clearFlag := flag.Bool("clear", false, "Delete all users and messages before anything else")
	yesFlag := flag.Bool("yes", false, "Confirm --clear")
	flag.Parse()

	if *clearFlag && !*yesFlag {
		zap.L().Fatal("--clear deletes every user and message; pass --yes to confirm")
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	// Opening the database creates the schema
	zap.L().Info("Setting up SQLite database", zap.String("path", cfg.Database.Path))
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if *clearFlag {
		if err := services.DbService.ClearAllData(ctx); err != nil {
			zap.L().Fatal("Failed to clear data", zap.Error(err))
		}
	}

	if *seedFlag || cfg.Database.CreateDummyUsers {
		seedDemoUsers(ctx, services)
	}

	printCatalog(services.Catalog, services.Engine)
	zap.L().Info("Initialization complete")
}
