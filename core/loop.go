package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"
)

const (
	defaultPollTimeout  = 30 * time.Second
	defaultErrorBackoff = 5 * time.Second
)

// SessionLoop pulls events in cursor order and routes each one to the
// handshake or the dispatcher. It is the only consumer of the stream
// and processes one event, including its replies, at a time.
type SessionLoop struct {
	fetcher    Fetcher
	identities IdentityStore
	handshake  *Handshake
	dispatcher *Dispatcher
	logger     *slog.Logger

	pollTimeout  time.Duration
	errorBackoff time.Duration

	cursor atomic.Int64
}

// NewSessionLoop creates a loop starting at cursor 0.
func NewSessionLoop(fetcher Fetcher, identities IdentityStore, handshake *Handshake, dispatcher *Dispatcher, logger *slog.Logger) *SessionLoop {
	return &SessionLoop{
		fetcher:      fetcher,
		identities:   identities,
		handshake:    handshake,
		dispatcher:   dispatcher,
		logger:       logger,
		pollTimeout:  defaultPollTimeout,
		errorBackoff: defaultErrorBackoff,
	}
}

// WithPolling overrides the long-poll timeout and the pause after a
// failed fetch. Zero keeps the current value.
func (l *SessionLoop) WithPolling(pollTimeout, errorBackoff time.Duration) *SessionLoop {
	if pollTimeout > 0 {
		l.pollTimeout = pollTimeout
	}
	if errorBackoff > 0 {
		l.errorBackoff = errorBackoff
	}
	return l
}

// Cursor returns the next cursor the loop will fetch from.
func (l *SessionLoop) Cursor() int64 {
	return l.cursor.Load()
}

// Start runs batches until ctx is cancelled, which returns nil. It
// returns an error only when a chat cannot be resolved, which means
// storage is unavailable.
func (l *SessionLoop) Start(ctx context.Context) error {
	l.logger.Info("session loop started", "cursor", l.Cursor())
	for {
		if ctx.Err() != nil {
			l.logger.Info("session loop stopped", "cursor", l.Cursor())
			return nil
		}

		fetched, err := l.step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if fetched {
			continue
		}

		select {
		case <-ctx.Done():
		case <-time.After(l.errorBackoff):
		}
	}
}

// RunOnce fetches and processes a single batch. A failed fetch is
// logged and leaves the cursor unchanged.
func (l *SessionLoop) RunOnce(ctx context.Context) error {
	_, err := l.step(ctx)
	return err
}

// step reports whether the fetch succeeded.
func (l *SessionLoop) step(ctx context.Context) (bool, error) {
	events, err := l.fetcher.Fetch(ctx, l.Cursor(), l.pollTimeout)
	if err != nil {
		if ctx.Err() == nil {
			l.logger.Warn("fetch updates failed", "cursor", l.Cursor(), "error", err)
		}
		return false, nil
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Cursor < events[j].Cursor
	})

	for _, ev := range events {
		if err := l.handle(ctx, ev); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (l *SessionLoop) handle(ctx context.Context, ev InboundEvent) error {
	if ev.Cursor < l.Cursor() {
		l.logger.Debug("skipping redelivered event", "cursor", ev.Cursor)
		return nil
	}
	l.cursor.Store(ev.Cursor + 1)

	if ev.ChatID == 0 {
		l.logger.Debug("skipping event without chat", "cursor", ev.Cursor)
		return nil
	}

	session, created, err := l.identities.ResolveOrCreate(ctx, ev.ChatID)
	if err != nil {
		return fmt.Errorf("resolve chat %d: %w", ev.ChatID, err)
	}
	if created {
		l.logger.Info("new chat", "chat_id", ev.ChatID)
		l.handshake.Greet(ctx, ev.ChatID)
	}

	if !session.Linked() {
		if err := l.handshake.Prompt(ctx, session); err != nil {
			l.logger.Error("verification prompt failed", "chat_id", ev.ChatID, "error", err)
		}
		return nil
	}

	l.dispatcher.Handle(ctx, session, ev.Text)
	return nil
}

var _ Receiver = (*SessionLoop)(nil)
