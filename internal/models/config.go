package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Session  SessionConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path             string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	PingTimeout      time.Duration
	CreateDummyUsers bool
}

// SessionConfig holds chat session settings
type SessionConfig struct {
	EconomyFile    string
	ReplyDelay     time.Duration
	PersistQueue   int
	PersistTimeout time.Duration
}
