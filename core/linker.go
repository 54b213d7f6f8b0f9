package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jdelaire/goalbot/internal/store"
)

const verifiedText = "Bot verified."

// ErrTokenNotFound is returned when a verification code is unknown,
// superseded by a newer one, or already used.
var ErrTokenNotFound = errors.New("verification code not found")

// LinkStore looks up and consumes verification codes.
type LinkStore interface {
	ConsumeToken(ctx context.Context, token string) (*store.ChatSession, error)
	LinkAccount(ctx context.Context, sessionID int64, token string, accountID int64) error
}

// Linker binds a chat to an authenticated account given the code the
// chat was shown.
type Linker struct {
	links       LinkStore
	sender      Sender
	sendTimeout time.Duration
	logger      *slog.Logger
}

func NewLinker(links LinkStore, sender Sender, logger *slog.Logger) *Linker {
	return &Linker{
		links:       links,
		sender:      sender,
		sendTimeout: defaultSendTimeout,
		logger:      logger,
	}
}

// WithSendTimeout overrides the confirmation send timeout.
func (l *Linker) WithSendTimeout(d time.Duration) *Linker {
	if d > 0 {
		l.sendTimeout = d
	}
	return l
}

// Link sets accountID on the session holding token and clears the
// token, then confirms to the chat. If the chat issued a newer code in
// the meantime the older one fails with ErrTokenNotFound.
func (l *Linker) Link(ctx context.Context, token string, accountID int64) (*store.ChatSession, error) {
	session, err := l.links.ConsumeToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("look up verification code: %w", err)
	}

	err = l.links.LinkAccount(ctx, session.ID, token, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("link chat %d: %w", session.ChatID, err)
	}

	session.AccountID = &accountID
	session.VerificationCode = nil
	l.logger.Info("chat linked", "chat_id", session.ChatID, "account_id", accountID)

	send(ctx, l.sender, l.sendTimeout, l.logger, session.ChatID, verifiedText)
	return session, nil
}
