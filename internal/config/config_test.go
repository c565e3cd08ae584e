package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_PATH", "DB_MAX_OPEN_CONNS", "DB_PING_TIMEOUT", "CREATE_DUMMY_USERS",
		"ECONOMY_FILE", "BOT_REPLY_DELAY", "PERSIST_QUEUE_SIZE", "PERSIST_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "himo.db", cfg.Database.Path)
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Second, cfg.Database.PingTimeout)
	assert.False(t, cfg.Database.CreateDummyUsers)
	assert.Equal(t, "", cfg.Session.EconomyFile)
	assert.Equal(t, time.Second, cfg.Session.ReplyDelay)
	assert.Equal(t, 64, cfg.Session.PersistQueue)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/chat.db")
	t.Setenv("CREATE_DUMMY_USERS", "true")
	t.Setenv("BOT_REPLY_DELAY", "0s")
	t.Setenv("ECONOMY_FILE", "economy.yaml")
	t.Setenv("PERSIST_QUEUE_SIZE", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/chat.db", cfg.Database.Path)
	assert.True(t, cfg.Database.CreateDummyUsers)
	assert.Equal(t, time.Duration(0), cfg.Session.ReplyDelay)
	assert.Equal(t, "economy.yaml", cfg.Session.EconomyFile)
	assert.Equal(t, 8, cfg.Session.PersistQueue)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", "DB_PING_TIMEOUT", "soon"},
		{"negative delay", "BOT_REPLY_DELAY", "-1s"},
		{"zero queue", "PERSIST_QUEUE_SIZE", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
