package session

import (
	"fmt"
	"io"
	"strings"
	"time"

	"himo-chat-go/internal/models"
)

// WriteTranscript renders messages as "<role> (<timestamp>): <text>" entries
// separated by blank lines.
func WriteTranscript(w io.Writer, messages []models.StoredMessage) error {
	entries := make([]string, 0, len(messages))
	for _, msg := range messages {
		role := "User"
		if msg.IsBot {
			role = "Bot"
		}
		entries = append(entries, fmt.Sprintf("%s (%s): %s", role, msg.Timestamp.Format(time.RFC3339), msg.Text))
	}

	if _, err := io.WriteString(w, strings.Join(entries, "\n\n")); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// ExportTranscript writes the current session history
func (c *Controller) ExportTranscript(w io.Writer) error {
	c.mutex.Lock()
	if !c.authenticatedLocked() {
		c.mutex.Unlock()
		return ErrNotAuthenticated
	}
	messages := append([]models.StoredMessage(nil), c.messages...)
	c.mutex.Unlock()

	return WriteTranscript(w, messages)
}
