// Package storetest provides a testify mock of store.ChatStore.
package storetest

import (
	"context"

	"himo-chat-go/internal/models"
	"himo-chat-go/internal/store"

	"github.com/stretchr/testify/mock"
)

var _ store.ChatStore = (*MockStore)(nil)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveUser(ctx context.Context, user *models.UserProfile) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStore) GetUserById(ctx context.Context, userId string) (*models.UserProfile, error) {
	args := m.Called(ctx, userId)
	return userArg(args, 0), args.Error(1)
}

func (m *MockStore) GetUserByUsername(ctx context.Context, username string) (*models.UserProfile, error) {
	args := m.Called(ctx, username)
	return userArg(args, 0), args.Error(1)
}

func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	args := m.Called(ctx, email)
	return userArg(args, 0), args.Error(1)
}

func (m *MockStore) GetUsers(ctx context.Context) ([]models.UserProfile, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.UserProfile)
	return users, args.Error(1)
}

func (m *MockStore) SaveMessage(ctx context.Context, message *models.StoredMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockStore) GetUserMessages(ctx context.Context, userId string) ([]models.StoredMessage, error) {
	args := m.Called(ctx, userId)
	messages, _ := args.Get(0).([]models.StoredMessage)
	return messages, args.Error(1)
}

func (m *MockStore) GetMessageHistory(ctx context.Context, userId string, limit, offset int) ([]models.StoredMessage, error) {
	args := m.Called(ctx, userId, limit, offset)
	messages, _ := args.Get(0).([]models.StoredMessage)
	return messages, args.Error(1)
}

func (m *MockStore) ClearUserMessages(ctx context.Context, userId string) (int, error) {
	args := m.Called(ctx, userId)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) GetUserStats(ctx context.Context, userId string) (models.UserStats, error) {
	args := m.Called(ctx, userId)
	stats, _ := args.Get(0).(models.UserStats)
	return stats, args.Error(1)
}

func (m *MockStore) ExportUserData(ctx context.Context, userId string) ([]byte, error) {
	args := m.Called(ctx, userId)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockStore) ClearAllData(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Close() {
	m.Called()
}

func userArg(args mock.Arguments, index int) *models.UserProfile {
	user, _ := args.Get(index).(*models.UserProfile)
	return user
}
