package database

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"himo-chat-go/internal/models"
	"himo-chat-go/internal/store"
)

func costOf(v int64) *int64 {
	return &v
}

func seedMessages(t *testing.T, service *Service, userId string, base time.Time) {
	t.Helper()

	messages := []models.StoredMessage{
		{Id: userId + "-m2", UserId: userId, Text: "2 + 2", Timestamp: base.Add(2 * time.Second), Cost: costOf(10)},
		{Id: userId + "-m1", UserId: userId, Text: "welcome", IsBot: true, Timestamp: base},
		{Id: userId + "-m3", UserId: userId, Text: "2 + 2 = 4", IsBot: true, Timestamp: base.Add(3 * time.Second)},
		{Id: userId + "-m4", UserId: userId, Text: "long text", Timestamp: base.Add(4 * time.Second), Cost: costOf(20)},
	}
	for i := range messages {
		if err := service.SaveMessage(context.Background(), &messages[i]); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}
}

func TestGetUserMessages_SortedByTimestamp(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seedMessages(t, service, "user1", base)
	seedMessages(t, service, "user2", base)

	messages, err := service.GetUserMessages(context.Background(), "user1")
	if err != nil {
		t.Fatalf("GetUserMessages failed: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("Expected 4 messages, got %d", len(messages))
	}

	want := []string{"user1-m1", "user1-m2", "user1-m3", "user1-m4"}
	for i, id := range want {
		if messages[i].Id != id {
			t.Errorf("position %d: expected %s, got %s", i, id, messages[i].Id)
		}
	}
	if messages[0].Cost != nil {
		t.Errorf("bot message should carry no cost, got %d", *messages[0].Cost)
	}
	if messages[1].Cost == nil || *messages[1].Cost != 10 {
		t.Errorf("Expected cost 10 on user message, got %v", messages[1].Cost)
	}
}

func TestSaveMessage_IsAppendOnly(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	msg := &models.StoredMessage{Id: "m1", UserId: "user1", Text: "original", Timestamp: time.Now()}
	if err := service.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	changed := *msg
	changed.Text = "rewritten"
	if err := service.SaveMessage(ctx, &changed); err != nil {
		t.Fatalf("re-saving message failed: %v", err)
	}

	messages, err := service.GetUserMessages(ctx, "user1")
	if err != nil {
		t.Fatalf("GetUserMessages failed: %v", err)
	}
	if len(messages) != 1 || messages[0].Text != "original" {
		t.Errorf("stored message was mutated: %+v", messages)
	}
}

func TestSaveMessage_RequiresIds(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	err := service.SaveMessage(context.Background(), &models.StoredMessage{Id: "m1", Text: "orphan"})
	if !errors.Is(err, store.ErrInvalidStoreInput) {
		t.Errorf("Expected ErrInvalidStoreInput, got %v", err)
	}
}

func TestGetMessageHistory_Paginates(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	seedMessages(t, service, "user1", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	page, err := service.GetMessageHistory(context.Background(), "user1", 2, 1)
	if err != nil {
		t.Fatalf("GetMessageHistory failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(page))
	}
	if page[0].Id != "user1-m3" || page[1].Id != "user1-m2" {
		t.Errorf("unexpected page order: %s, %s", page[0].Id, page[1].Id)
	}
}

func TestClearUserMessages(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seedMessages(t, service, "user1", base)
	seedMessages(t, service, "user2", base)

	deleted, err := service.ClearUserMessages(ctx, "user1")
	if err != nil {
		t.Fatalf("ClearUserMessages failed: %v", err)
	}
	if deleted != 4 {
		t.Errorf("Expected 4 deleted, got %d", deleted)
	}

	remaining, err := service.GetUserMessages(ctx, "user1")
	if err != nil {
		t.Fatalf("GetUserMessages failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("Expected user1 history to be empty, got %d", len(remaining))
	}

	other, err := service.GetUserMessages(ctx, "user2")
	if err != nil {
		t.Fatalf("GetUserMessages failed: %v", err)
	}
	if len(other) != 4 {
		t.Errorf("Expected user2 history untouched, got %d", len(other))
	}
}

func TestGetUserStats(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seedMessages(t, service, "user1", base)

	stats, err := service.GetUserStats(context.Background(), "user1")
	if err != nil {
		t.Fatalf("GetUserStats failed: %v", err)
	}
	if stats.TotalMessages != 2 {
		t.Errorf("Expected 2 user messages, got %d", stats.TotalMessages)
	}
	if stats.TotalSpent != 30 {
		t.Errorf("Expected 30 spent, got %d", stats.TotalSpent)
	}
	if stats.AverageCost.String() != "15" {
		t.Errorf("Expected average cost 15, got %s", stats.AverageCost.String())
	}
	if stats.FirstMessageDate == nil || !stats.FirstMessageDate.Equal(base.Add(2*time.Second)) {
		t.Errorf("unexpected first message date: %v", stats.FirstMessageDate)
	}
	if stats.LastMessageDate == nil || !stats.LastMessageDate.Equal(base.Add(4*time.Second)) {
		t.Errorf("unexpected last message date: %v", stats.LastMessageDate)
	}
}

func TestGetUserStats_NoMessages(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	stats, err := service.GetUserStats(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetUserStats failed: %v", err)
	}
	if stats.TotalMessages != 0 || stats.TotalSpent != 0 || !stats.AverageCost.IsZero() {
		t.Errorf("Expected empty stats, got %+v", stats)
	}
	if stats.FirstMessageDate != nil || stats.LastMessageDate != nil {
		t.Errorf("Expected no dates, got %v / %v", stats.FirstMessageDate, stats.LastMessageDate)
	}
}

func TestExportUserData_LooksUpById(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.SaveUser(ctx, testProfile("user1", "alice", "alice@example.com")); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}
	seedMessages(t, service, "user1", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	data, err := service.ExportUserData(ctx, "user1")
	if err != nil {
		t.Fatalf("ExportUserData failed: %v", err)
	}

	var export models.ExportData
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if export.User == nil || export.User.Username != "alice" {
		t.Errorf("Expected exported user alice, got %+v", export.User)
	}
	if len(export.Messages) != 4 {
		t.Errorf("Expected 4 exported messages, got %d", len(export.Messages))
	}
	if export.Stats.TotalSpent != 30 {
		t.Errorf("Expected exported spend 30, got %d", export.Stats.TotalSpent)
	}

	if _, err := service.ExportUserData(ctx, "missing"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound for unknown user, got %v", err)
	}
}
