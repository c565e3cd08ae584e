package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"himo-chat-go/internal/account"
	"himo-chat-go/internal/bot"
	"himo-chat-go/internal/database"
	"himo-chat-go/internal/economy"
	"himo-chat-go/internal/models"
	"himo-chat-go/internal/session"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService *database.Service
	Engine    *economy.Engine
	Accounts  *account.Manager
	Catalog   *economy.Catalog
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	zap.L().Info("Loading economy catalog", zap.String("file", cfg.Session.EconomyFile))
	catalog, err := economy.LoadCatalog(cfg.Session.EconomyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load economy catalog: %w", err)
	}

	engine, err := economy.NewEngine(catalog)
	if err != nil {
		return nil, err
	}

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	return &Services{
		DbService: dbService,
		Engine:    engine,
		Accounts:  account.NewManager(dbService, engine),
		Catalog:   catalog,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service without the economy
// Useful for read-only operations like querying balances
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

// NewSession builds a chat session over the initialized services
func (cs *Services) NewSession(cfg models.SessionConfig) (*session.Controller, error) {
	return session.NewController(session.Config{
		Accounts:       cs.Accounts,
		Engine:         cs.Engine,
		Store:          cs.DbService,
		Responder:      bot.NewScripted(nil),
		ReplyDelay:     cfg.ReplyDelay,
		PersistQueue:   cfg.PersistQueue,
		PersistTimeout: cfg.PersistTimeout,
	})
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
