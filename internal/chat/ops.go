package chat

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/qolda/qolda-backend/internal/auth"
	"github.com/qolda/qolda-backend/internal/logger"
	"github.com/qolda/qolda-backend/internal/model"
	"github.com/qolda/qolda-backend/internal/store"
)

// Authorize fetches the chat and checks the current user may access it:
// the chat must exist, have exactly two participants, and count the current
// user among them. This is the entry validation every chat operation and
// view runs before touching the message log.
func Authorize(ctx context.Context, session auth.Session, chats store.ChatRepository, chatID string) (*model.Chat, error) {
	self := session.CurrentUID()
	if self == "" {
		return nil, ErrNotAuthenticated
	}
	c, err := chats.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, unavailable(err)
	}
	if len(c.Participants) != 2 || !c.HasParticipant(self) {
		return nil, ErrUnauthorized
	}
	return c, nil
}

// Send appends text to an authorized chat. Whitespace-only input is a
// silent no-op.
func Send(ctx context.Context, session auth.Session, chats store.ChatRepository, chatID, text string) error {
	if _, err := Authorize(ctx, session, chats, chatID); err != nil {
		return err
	}
	return sendMessage(ctx, chats, chatID, session.CurrentUID(), text)
}

func sendMessage(ctx context.Context, chats store.ChatRepository, chatID, sender, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	msg := &model.Message{SenderUID: sender, Text: text}
	if _, err := chats.AppendMessage(ctx, chatID, msg); err != nil {
		return unavailable(err)
	}
	if err := chats.SetLastMessage(ctx, chatID, text); err != nil {
		// The message itself landed; a stale preview corrects itself on the
		// next send.
		logger.Log.Warn("last message preview update failed",
			zap.String("chat", chatID), zap.Error(err))
	}
	return nil
}

// Delete removes a chat and its message log. Idempotent: a chat that is
// already gone counts as deleted.
func Delete(ctx context.Context, session auth.Session, chats store.ChatRepository, chatID string) error {
	if _, err := Authorize(ctx, session, chats, chatID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if err := chats.Delete(ctx, chatID); err != nil {
		return unavailable(err)
	}
	return nil
}

// Messages returns the chat's ordered log after entry validation.
func Messages(ctx context.Context, session auth.Session, chats store.ChatRepository, chatID string) ([]model.Message, error) {
	if _, err := Authorize(ctx, session, chats, chatID); err != nil {
		return nil, err
	}
	msgs, err := chats.ListMessages(ctx, chatID)
	if err != nil {
		return nil, unavailable(err)
	}
	return msgs, nil
}
