package store

import (
	"context"
	"errors"

	"himo-chat-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUser     = errors.New("user already exists")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrInvalidStoreInput = errors.New("invalid store input")
)

// ChatStore defines the contract that every persistence backend must satisfy.
// Each Save* call is a single-record upsert keyed by id.
type ChatStore interface {
	// --- Users ---
	SaveUser(ctx context.Context, user *models.UserProfile) error
	GetUserById(ctx context.Context, userId string) (*models.UserProfile, error)
	GetUserByUsername(ctx context.Context, username string) (*models.UserProfile, error)
	GetUserByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	GetUsers(ctx context.Context) ([]models.UserProfile, error)

	// --- Messages ---
	SaveMessage(ctx context.Context, message *models.StoredMessage) error
	GetUserMessages(ctx context.Context, userId string) ([]models.StoredMessage, error)
	GetMessageHistory(ctx context.Context, userId string, limit, offset int) ([]models.StoredMessage, error)
	ClearUserMessages(ctx context.Context, userId string) (int, error)

	// --- Reporting ---
	GetUserStats(ctx context.Context, userId string) (models.UserStats, error)
	ExportUserData(ctx context.Context, userId string) ([]byte, error)

	// --- Lifecycle ---
	ClearAllData(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()
}
