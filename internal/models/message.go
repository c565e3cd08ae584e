package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StoredMessage is an immutable record of one chat turn
type StoredMessage struct {
	Id        string    `json:"id"`
	UserId    string    `json:"userId"`
	Text      string    `json:"text"`
	IsBot     bool      `json:"isBot"`
	Timestamp time.Time `json:"timestamp"`
	Cost      *int64    `json:"cost,omitempty"` // only set on charged user messages
}

// UserStats summarises the user-authored part of a message history
type UserStats struct {
	TotalMessages    int64           `json:"totalMessages"`
	TotalSpent       int64           `json:"totalSpent"`
	AverageCost      decimal.Decimal `json:"averageCost"`
	FirstMessageDate *time.Time      `json:"firstMessageDate,omitempty"`
	LastMessageDate  *time.Time      `json:"lastMessageDate,omitempty"`
}

// ExportData is the JSON document produced by a full data export
type ExportData struct {
	User       *UserProfile    `json:"user"`
	Messages   []StoredMessage `json:"messages"`
	Stats      UserStats       `json:"stats"`
	ExportDate time.Time       `json:"exportDate"`
}

// UserBalance is the read-side view of a user's wallet
type UserBalance struct {
	UserId       string       `json:"user_id"`
	Username     string       `json:"username"`
	HimCoins     int64        `json:"him_coins"`
	GoldCoins    int64        `json:"gold_coins"`
	Subscription Subscription `json:"subscription"`
}
