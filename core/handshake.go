package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jdelaire/goalbot/internal/store"
)

const (
	greetingText = "Hello! I am the goals bot. Link this chat to your account to manage goals from here."
	promptFormat = "Verification code: %s\n" +
		"Submit it from your account to link this chat. Only the latest code is valid."
	defaultSendTimeout = 10 * time.Second
)

// IdentityStore resolves chats to sessions and issues verification codes.
type IdentityStore interface {
	ResolveOrCreate(ctx context.Context, chatID int64) (*store.ChatSession, bool, error)
	IssueToken(ctx context.Context, session *store.ChatSession) (string, error)
}

// Handshake greets new chats and prompts unlinked ones with a fresh
// verification code. It never authenticates anyone itself.
type Handshake struct {
	identities  IdentityStore
	sender      Sender
	sendTimeout time.Duration
	logger      *slog.Logger
}

func NewHandshake(identities IdentityStore, sender Sender, logger *slog.Logger) *Handshake {
	return &Handshake{
		identities:  identities,
		sender:      sender,
		sendTimeout: defaultSendTimeout,
		logger:      logger,
	}
}

// WithSendTimeout overrides the per-message send timeout.
func (h *Handshake) WithSendTimeout(d time.Duration) *Handshake {
	if d > 0 {
		h.sendTimeout = d
	}
	return h
}

// Greet welcomes a chat seen for the first time.
func (h *Handshake) Greet(ctx context.Context, chatID int64) {
	send(ctx, h.sender, h.sendTimeout, h.logger, chatID, greetingText)
}

// Prompt issues a new code for session, invalidating any earlier one,
// and sends it to the chat.
func (h *Handshake) Prompt(ctx context.Context, session *store.ChatSession) error {
	token, err := h.identities.IssueToken(ctx, session)
	if errors.Is(err, store.ErrAlreadyLinked) {
		h.logger.Info("chat linked before prompt", "chat_id", session.ChatID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("issue verification code: %w", err)
	}

	h.logger.Debug("verification code issued", "chat_id", session.ChatID)
	send(ctx, h.sender, h.sendTimeout, h.logger, session.ChatID, fmt.Sprintf(promptFormat, token))
	return nil
}

// send delivers text and logs failures. Reply failures never propagate.
func send(ctx context.Context, sender Sender, timeout time.Duration, logger *slog.Logger, chatID int64, text string) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := sender.SendText(ctx, chatID, text); err != nil {
		logger.Error("failed to send reply", "chat_id", chatID, "error", err)
	}
}
