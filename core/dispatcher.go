package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jdelaire/goalbot/core/ops"
	"github.com/jdelaire/goalbot/internal/goals"
	"github.com/jdelaire/goalbot/internal/store"
)

const defaultOpTimeout = 30 * time.Second

// Dispatcher parses commands from linked chats, runs them and replies.
type Dispatcher struct {
	ops         *ops.Registry
	sender      Sender
	opTimeout   time.Duration
	sendTimeout time.Duration
	logger      *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opsReg *ops.Registry, sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		ops:         opsReg,
		sender:      sender,
		opTimeout:   defaultOpTimeout,
		sendTimeout: defaultSendTimeout,
		logger:      logger,
	}
}

// WithTimeouts overrides the per-op and per-reply timeouts. Zero keeps
// the current value.
func (d *Dispatcher) WithTimeouts(op, send time.Duration) *Dispatcher {
	if op > 0 {
		d.opTimeout = op
	}
	if send > 0 {
		d.sendTimeout = send
	}
	return d
}

// Handle processes one message from a linked session: parse, execute,
// respond. Every outcome, including errors, ends in at most a few
// replies; nothing propagates to the caller.
func (d *Dispatcher) Handle(ctx context.Context, session *store.ChatSession, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	cmd, args, ok := parseCommand(text)
	if !ok {
		d.respond(ctx, session.ChatID, text)
		return
	}

	op := d.ops.Get(cmd)
	if op == nil {
		d.respond(ctx, session.ChatID, fmt.Sprintf("Unknown command: /%s", cmd))
		op = d.ops.Get("help")
		if op == nil {
			return
		}
		args = nil
	}

	opCtx, cancel := context.WithTimeout(ctx, d.opTimeout)
	defer cancel()

	result, err := op.Execute(opCtx, session, args)
	if err != nil {
		d.respond(ctx, session.ChatID, d.errorReply(op, session, err))
		return
	}
	d.respond(ctx, session.ChatID, result)
}

func (d *Dispatcher) errorReply(op ops.Op, session *store.ChatSession, err error) string {
	var argErr *ops.ArgumentError
	switch {
	case errors.As(err, &argErr):
		d.logger.Debug("bad arguments", "op", op.Name(), "chat_id", session.ChatID, "error", err)
		return "Usage: " + op.Usage()
	case errors.Is(err, goals.ErrNotFound):
		return "Not found."
	case errors.Is(err, goals.ErrForbidden):
		return "You do not have permission to do that."
	case errors.Is(err, goals.ErrEmptyTitle), errors.Is(err, goals.ErrEmptyText):
		return "Usage: " + op.Usage()
	case errors.Is(err, goals.ErrTitleTooLong):
		return "Title is too long."
	}

	d.logger.Error("op failed", "op", op.Name(), "chat_id", session.ChatID, "error", err)
	return fmt.Sprintf("Error running /%s. Try again later.", op.Name())
}

func (d *Dispatcher) respond(ctx context.Context, chatID int64, text string) {
	send(ctx, d.sender, d.sendTimeout, d.logger, chatID, text)
}

// parseCommand extracts the command name and arguments from a message.
// It handles "/command", "/command args", and "/command@botname args".
// ok is false for text that is not a command.
func parseCommand(text string) (cmd string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", nil, true
	}
	cmd, args = fields[0], fields[1:]

	// Strip @botname suffix.
	if at := strings.Index(cmd, "@"); at != -1 {
		cmd = cmd[:at]
	}

	return strings.ToLower(cmd), args, true
}
