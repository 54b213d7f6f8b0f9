package ops

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/jdelaire/goalbot/internal/store"
)

var startTime = time.Now()

// StatusOp reports the linked account and bot uptime.
type StatusOp struct {
	Domain Domain
}

func (s *StatusOp) Name() string        { return "status" }
func (s *StatusOp) Description() string { return "Show linked account and bot status" }
func (s *StatusOp) Usage() string       { return "/status" }

func (s *StatusOp) Execute(ctx context.Context, session *store.ChatSession, args []string) (string, error) {
	if err := noArgs(s.Name(), args); err != nil {
		return "", err
	}
	accountID, err := accountOf(session)
	if err != nil {
		return "", err
	}
	account, err := s.Domain.Account(ctx, accountID)
	if err != nil {
		return "", err
	}

	uptime := time.Since(startTime).Truncate(time.Second)
	return fmt.Sprintf("Status: OK\nAccount: %s\nUptime: %s\nGo: %s",
		account.Username, uptime, runtime.Version()), nil
}
