package account

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"himo-chat-go/internal/database"
	"himo-chat-go/internal/economy"
	"himo-chat-go/internal/models"
	"himo-chat-go/internal/store"
	"himo-chat-go/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *economy.Engine {
	t.Helper()
	engine, err := economy.NewEngine(economy.DefaultCatalog(), economy.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return engine
}

func setupManager(t *testing.T) (*Manager, *database.Service) {
	t.Helper()
	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "accounts.db"),
		MaxOpenConns: 2,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return NewManager(db, newTestEngine(t), WithHasher(NewBcryptHasher(bcrypt.MinCost))), db
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestRegister(t *testing.T) {
	manager, db := setupManager(t)
	ctx := context.Background()

	user, err := manager.Register(ctx, validRegistration())
	require.NoError(t, err)

	assert.NotEmpty(t, user.Id)
	assert.Equal(t, int64(500), user.HimCoins)
	assert.Equal(t, int64(0), user.GoldCoins)
	assert.Len(t, user.Quests, 3)
	assert.Equal(t, testNow, user.LastQuestReset)
	assert.Equal(t, models.SubscriptionNone, user.Subscription.Type)
	assert.False(t, user.Subscription.Active)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	stored, err := db.GetUserById(ctx, user.Id)
	require.NoError(t, err)
	assert.Equal(t, user.Username, stored.Username)
	assert.Equal(t, user.PasswordHash, stored.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	manager, _ := setupManager(t)

	tests := []struct {
		name  string
		edit  func(r *RegisterRequest)
		field string
	}{
		{"blank username", func(r *RegisterRequest) { r.Username = "   " }, "username"},
		{"short username", func(r *RegisterRequest) { r.Username = "al" }, "username"},
		{"missing email", func(r *RegisterRequest) { r.Email = "" }, "email"},
		{"malformed email", func(r *RegisterRequest) { r.Email = "alice@example" }, "email"},
		{"email with space", func(r *RegisterRequest) { r.Email = "al ice@example.com" }, "email"},
		{"short password", func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "abc", "abc" }, "password"},
		{"mismatched confirmation", func(r *RegisterRequest) { r.ConfirmPassword = "secret2" }, "confirmPassword"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration()
			tt.edit(&req)

			_, err := manager.Register(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestRegisterDuplicates(t *testing.T) {
	manager, _ := setupManager(t)
	ctx := context.Background()

	_, err := manager.Register(ctx, validRegistration())
	require.NoError(t, err)

	dupName := validRegistration()
	dupName.Email = "other@example.com"
	_, err = manager.Register(ctx, dupName)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, errors.Is(err, store.ErrDuplicateUser))
	assert.Contains(t, verr.Fields, "username")

	dupEmail := validRegistration()
	dupEmail.Username = "bob"
	_, err = manager.Register(ctx, dupEmail)
	require.True(t, errors.As(err, &verr))
	assert.True(t, errors.Is(err, store.ErrDuplicateUser))
	assert.Contains(t, verr.Fields, "email")
}

func TestLogin(t *testing.T) {
	manager, _ := setupManager(t)
	ctx := context.Background()

	registered, err := manager.Register(ctx, validRegistration())
	require.NoError(t, err)

	user, err := manager.Login(ctx, LoginRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, registered.Id, user.Id)

	_, err = manager.Login(ctx, LoginRequest{Username: "alice", Password: "wrong-password"})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = manager.Login(ctx, LoginRequest{Username: "nobody", Password: "secret1"})
	assert.True(t, errors.Is(err, store.ErrUserNotFound))

	_, err = manager.Login(ctx, LoginRequest{Username: "alice"})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestLoginWithoutPasswordHash(t *testing.T) {
	manager, db := setupManager(t)
	ctx := context.Background()

	legacy := &models.UserProfile{
		Id:               "legacy-1",
		Username:         "legacy",
		Email:            "legacy@example.com",
		HimCoins:         100,
		RegistrationDate: testNow.Add(-48 * time.Hour),
		LastLogin:        testNow.Add(-48 * time.Hour),
		LastQuestReset:   testNow.Add(-48 * time.Hour),
		Subscription:     models.Subscription{Type: models.SubscriptionNone},
	}
	require.NoError(t, db.SaveUser(ctx, legacy))

	user, err := manager.Login(ctx, LoginRequest{Username: "legacy", Password: "anything"})
	require.NoError(t, err)
	assert.Equal(t, testNow, user.LastLogin)

	stored, err := db.GetUserById(ctx, "legacy-1")
	require.NoError(t, err)
	assert.Equal(t, testNow, stored.LastLogin)
}

func TestRegisterStoreFailure(t *testing.T) {
	mockStore := new(storetest.MockStore)
	manager := NewManager(mockStore, newTestEngine(t), WithHasher(NewBcryptHasher(bcrypt.MinCost)))

	mockStore.On("GetUserByUsername", mock.Anything, "alice").Return(nil, store.ErrUserNotFound)
	mockStore.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, store.ErrUserNotFound)
	mockStore.On("SaveUser", mock.Anything, mock.AnythingOfType("*models.UserProfile")).Return(store.ErrStoreUnavailable)

	_, err := manager.Register(context.Background(), validRegistration())
	assert.True(t, errors.Is(err, store.ErrStoreUnavailable))
	mockStore.AssertExpectations(t)
}
