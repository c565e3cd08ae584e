package economy

import (
	"strings"
	"testing"
	"time"

	"himo-chat-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(t *testing.T) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	engine, err := NewEngine(DefaultCatalog(), WithClock(clock.Now))
	require.NoError(t, err)
	return engine, clock
}

func newUser(engine *Engine) models.UserProfile {
	now := engine.Now()
	return models.UserProfile{
		Id:               "user-1",
		Username:         "alice",
		Email:            "alice@example.com",
		HimCoins:         engine.StartingHimCoins(),
		RegistrationDate: now,
		LastLogin:        now,
		Quests:           engine.GenerateQuests(),
		LastQuestReset:   now,
		Subscription:     models.Subscription{Type: models.SubscriptionNone},
	}
}

func TestPriceMessage(t *testing.T) {
	engine, _ := newTestEngine(t)

	cases := []struct {
		length int
		want   int64
	}{
		{0, 10},
		{1, 10},
		{999, 10},
		{1000, 10},
		{1001, 20},
		{2000, 20},
		{2001, 30},
	}
	for _, tc := range cases {
		got := engine.PriceMessage(strings.Repeat("a", tc.length))
		assert.Equalf(t, tc.want, got, "length %d", tc.length)
	}
}

func TestPriceMessageCountsRunes(t *testing.T) {
	engine, _ := newTestEngine(t)

	// 1000 two-byte characters fit in one block.
	assert.Equal(t, int64(10), engine.PriceMessage(strings.Repeat("é", 1000)))
}

func TestCanAffordAndDebit(t *testing.T) {
	engine, _ := newTestEngine(t)
	user := newUser(engine)
	user.HimCoins = 15

	assert.True(t, engine.CanAfford(user, 10))
	assert.False(t, engine.CanAfford(user, 20))

	debited := engine.Debit(user, 10)
	assert.Equal(t, int64(5), debited.HimCoins)
	assert.Equal(t, int64(15), user.HimCoins, "input must not be mutated")

	floored := engine.Debit(user, 50)
	assert.Equal(t, int64(0), floored.HimCoins)
}

func TestSubscribedUserIsNotCharged(t *testing.T) {
	engine, _ := newTestEngine(t)
	user := newUser(engine)
	user.HimCoins = 0
	end := engine.Now().Add(time.Hour)
	user.Subscription = models.Subscription{Type: models.SubscriptionThreeDays, EndDate: &end, Active: true}

	assert.True(t, engine.CanAfford(user, 1000))
	assert.Equal(t, int64(0), engine.Debit(user, 1000).HimCoins)
}

func TestDailyBonus(t *testing.T) {
	engine, clock := newTestEngine(t)
	user := newUser(engine)

	require.True(t, engine.IsDailyBonusEligible(user))
	first := engine.ClaimDailyBonus(user)
	assert.Equal(t, int64(700), first.HimCoins)
	require.NotNil(t, first.LastDailyBonus)

	second := engine.ClaimDailyBonus(first)
	assert.Equal(t, first.HimCoins, second.HimCoins, "bonus must be idempotent within the window")
	assert.False(t, engine.IsDailyBonusEligible(second))
	assert.Equal(t, first.LastDailyBonus.Add(24*time.Hour), engine.DailyBonusAvailableAt(second))

	clock.Advance(24 * time.Hour)
	third := engine.ClaimDailyBonus(second)
	assert.Equal(t, int64(900), third.HimCoins)
}

func TestNewEngineRejectsInvalidCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	catalog.BlockSize = 0

	_, err := NewEngine(catalog)
	assert.Error(t, err)
}

func TestReconcile(t *testing.T) {
	engine, clock := newTestEngine(t)
	user := newUser(engine)

	_, changed := engine.Reconcile(user)
	assert.False(t, changed)

	user.GoldCoins = 10
	user, err := engine.PurchaseSubscription(user, models.SubscriptionThreeDays)
	require.NoError(t, err)

	clock.Advance(73 * time.Hour)
	next, changed := engine.Reconcile(user)
	assert.True(t, changed)
	assert.False(t, next.Subscription.Active)
	assert.Equal(t, models.SubscriptionNone, next.Subscription.Type)
	assert.Equal(t, engine.Now(), next.LastQuestReset)
}
