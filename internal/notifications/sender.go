package notifications

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Sender is the messaging transport. EditMessage returns
// telegram.ErrNotModified when the text is unchanged.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int64, error)
	EditMessage(ctx context.Context, chatID, messageID int64, text string) error
}

// LogSender logs messages instead of sending them. Used for dry runs when no
// bot token is configured.
type LogSender struct {
	logger *slog.Logger
	nextID atomic.Int64
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendMessage(_ context.Context, chatID int64, text string) (int64, error) {
	id := s.nextID.Add(1)
	s.logger.Info("Send (dry run)", "chat_id", chatID, "message_id", id, "text", text)
	return id, nil
}

func (s *LogSender) EditMessage(_ context.Context, chatID, messageID int64, text string) error {
	s.logger.Info("Edit (dry run)", "chat_id", chatID, "message_id", messageID, "text", text)
	return nil
}
