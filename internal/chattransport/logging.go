// Package chattransport provides a logging-only interfaces.ChatTransport,
// a stand-in for the real chat-platform adapter (Telegram, Slack, …)
// that spec.md treats as an opaque external collaborator out of this
// module's scope. It lets cmd/ragbot-worker run end to end without a
// live chat platform wired up.
package chattransport

import (
	"context"

	"github.com/chatrag/ragcore/internal/logger"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// Logging sends no network traffic; it records what would have been
// sent so the worker loop can be exercised without a real platform.
type Logging struct{}

// New builds a Logging transport.
func New() *Logging { return &Logging{} }

// SendMessage logs the outbound message instead of delivering it.
func (Logging) SendMessage(ctx context.Context, chatID int64, text string, replyTo *int64, parseMode interfaces.ParseMode) error {
	logger.Info(ctx, "chattransport: send message",
		"chat_id", chatID, "reply_to", replyTo, "parse_mode", string(parseMode), "text", text)
	return nil
}

// SendChatAction logs the typing indicator instead of delivering it.
func (Logging) SendChatAction(ctx context.Context, chatID int64, action string) error {
	logger.Info(ctx, "chattransport: send chat action", "chat_id", chatID, "action", action)
	return nil
}

// DeactivateChat logs the deactivation instead of acting on it.
func (Logging) DeactivateChat(ctx context.Context, chatID int64) error {
	logger.Warn(ctx, "chattransport: deactivate chat", "chat_id", chatID)
	return nil
}
