package ops

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jdelaire/goalbot/internal/goals"
	"github.com/jdelaire/goalbot/internal/store"
)

// ArgumentError reports missing or malformed command arguments. The
// dispatcher answers it with the op's usage line.
type ArgumentError struct {
	Op     string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("/%s: %s", e.Op, e.Reason)
}

func argError(op, format string, a ...any) error {
	return &ArgumentError{Op: op, Reason: fmt.Sprintf(format, a...)}
}

// Domain is the goal tracker as seen by the bot. Every method applies
// the same visibility rules as the web API for accountID.
type Domain interface {
	Account(ctx context.Context, accountID int64) (*store.Account, error)

	ListGoals(ctx context.Context, accountID int64) ([]*store.Goal, error)
	GetGoal(ctx context.Context, accountID, goalID int64) (*store.Goal, error)
	CreateGoal(ctx context.Context, accountID, categoryID int64, title string) (*store.Goal, error)

	ListCategories(ctx context.Context, accountID int64) ([]*store.Category, error)
	GetCategory(ctx context.Context, accountID, categoryID int64) (*goals.CategoryDetail, error)
	CreateCategory(ctx context.Context, accountID, boardID int64, title string) (*store.Category, error)

	ListBoards(ctx context.Context, accountID int64) ([]*store.Board, error)
	GetBoard(ctx context.Context, accountID, boardID int64) (*goals.BoardDetail, error)
	CreateBoard(ctx context.Context, accountID int64, title string) (*store.Board, error)

	ListComments(ctx context.Context, accountID, goalID int64) ([]*store.Comment, error)
	AddComment(ctx context.Context, accountID, goalID int64, text string) (*store.Comment, error)
}

var errNotLinked = errors.New("chat session is not linked to an account")

func accountOf(session *store.ChatSession) (int64, error) {
	if session == nil || session.AccountID == nil {
		return 0, errNotLinked
	}
	return *session.AccountID, nil
}

// noArgs rejects any arguments for commands that take none.
func noArgs(op string, args []string) error {
	if len(args) != 0 {
		return argError(op, "unexpected arguments")
	}
	return nil
}

// parseID reads a positive integer id from args[i].
func parseID(op string, args []string, i int) (int64, error) {
	if len(args) <= i {
		return 0, argError(op, "missing id")
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil || id <= 0 {
		return 0, argError(op, "invalid id %q", args[i])
	}
	return id, nil
}

// restText joins args[i:] into free text, e.g. a title.
func restText(op, what string, args []string, i int) (string, error) {
	if len(args) <= i {
		return "", argError(op, "missing %s", what)
	}
	return strings.Join(args[i:], " "), nil
}
