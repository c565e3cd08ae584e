package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"himo-chat-go/internal/models"
	"himo-chat-go/internal/store"
	"himo-chat-go/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitializeUsers(t *testing.T) {
	mockStore := new(storetest.MockStore)
	now := time.Now().UTC()
	expired := now.Add(-time.Hour)
	running := now.Add(48 * time.Hour)

	bob := models.UserProfile{
		Id: "u2", Username: "bob", HimCoins: 480, GoldCoins: 3, TotalMessages: 2,
		Subscription: models.Subscription{Type: models.SubscriptionOneWeek, Active: true, EndDate: &running},
	}
	mockStore.On("GetUsers", mock.Anything).Return([]models.UserProfile{
		bob,
		{
			Id: "u1", Username: "alice", HimCoins: 500,
			Subscription: models.Subscription{Type: models.SubscriptionThreeDays, Active: true, EndDate: &expired},
		},
	}, nil)
	mockStore.On("GetUserByUsername", mock.Anything, "bob").Return(&bob, nil)
	mockStore.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, store.ErrUserNotFound)

	ctx := context.Background()
	logger := zap.NewNop()

	all, err := InitializeUsers(ctx, mockStore, "", logger)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alice", all[0].Username)
	assert.Equal(t, models.SubscriptionNone, all[0].Subscription, "lapsed plan is not reported")

	one, err := InitializeUsers(ctx, mockStore, "bob", logger)
	require.NoError(t, err)
	assert.Equal(t, []UserInfo{{
		Id: "u2", Username: "bob", HimCoins: 480, GoldCoins: 3,
		Subscription: models.SubscriptionOneWeek, Messages: 2,
	}}, one)

	_, err = InitializeUsers(ctx, mockStore, "ghost", logger)
	assert.True(t, errors.Is(err, store.ErrUserNotFound))
}
