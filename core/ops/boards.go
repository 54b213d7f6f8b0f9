package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdelaire/goalbot/internal/store"
)

// CategoriesOp lists visible categories.
type CategoriesOp struct {
	Domain Domain
}

func (o *CategoriesOp) Name() string        { return "categories" }
func (o *CategoriesOp) Description() string { return "List your categories" }
func (o *CategoriesOp) Usage() string       { return "/categories" }

func (o *CategoriesOp) Execute(ctx context.Context, session *store.ChatSession, args []string) (string, error) {
	if err := noArgs(o.Name(), args); err != nil {
		return "", err
	}
	accountID, err := accountOf(session)
	if err != nil {
		return "", err
	}

	list, err := o.Domain.ListCategories(ctx, accountID)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "Categories list is empty.", nil
	}

	lines := make([]string, 0, len(list))
	for _, c := range list {
		lines = append(lines, fmt.Sprintf("#%d %s", c.ID, c.Title))
	}
	return strings.Join(lines, "\n"), nil
}

// CategoryOp shows one category.
type CategoryOp struct {
	Domain Domain
}

func (o *CategoryOp) Name() string        { return "category" }
func (o *CategoryOp) Description() string { return "Show category details" }
func (o *CategoryOp) Usage() string       { return "/category <id>" }

func (o *CategoryOp) Execute(ctx context.Context, session *store.ChatSession, args []string) (string, error) {
	id, err := parseID(o.Name(), args, 0)
	if err != nil {
		return "", err
	}
	if len(args) > 1 {
		return "", argError(o.Name(), "unexpected arguments")
	}
	accountID, err := accountOf(session)
	if err != nil {
		return "", err
	}

	d, err := o.Domain.GetCategory(ctx, accountID, id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("#%d %s\nBoard: #%d\nGoals: %d",
		d.Category.ID, d.Category.Title, d.Category.BoardID, d.GoalCount), nil
}

// BoardsOp lists boards the account participates in.
type BoardsOp struct {
	Domain Domain
}

func (o *BoardsOp) Name() string        { return "boards" }
func (o *BoardsOp) Description() string { return "List your boards" }
func (o *BoardsOp) Usage() string       { return "/boards" }

func (o *BoardsOp) Execute(ctx context.Context, session *store.ChatSession, args []string) (string, error) {
	if err := noArgs(o.Name(), args); err != nil {
		return "", err
	}
	accountID, err := accountOf(session)
	if err != nil {
		return "", err
	}

	list, err := o.Domain.ListBoards(ctx, accountID)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "Boards list is empty.", nil
	}

	lines := make([]string, 0, len(list))
	for _, b := range list {
		lines = append(lines, fmt.Sprintf("#%d %s (%s)", b.ID, b.Title, b.Role))
	}
	return strings.Join(lines, "\n"), nil
}

// BoardOp shows one board and its participants.
type BoardOp struct {
	Domain Domain
}

func (o *BoardOp) Name() string        { return "board" }
func (o *BoardOp) Description() string { return "Show board details" }
func (o *BoardOp) Usage() string       { return "/board <id>" }

func (o *BoardOp) Execute(ctx context.Context, session *store.ChatSession, args []string) (string, error) {
	id, err := parseID(o.Name(), args, 0)
	if err != nil {
		return "", err
	}
	if len(args) > 1 {
		return "", argError(o.Name(), "unexpected arguments")
	}
	accountID, err := accountOf(session)
	if err != nil {
		return "", err
	}

	d, err := o.Domain.GetBoard(ctx, accountID, id)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n", d.Board.ID, d.Board.Title)
	fmt.Fprintf(&b, "Your role: %s\n", d.Board.Role)
	b.WriteString("Participants:")
	for _, p := range d.Participants {
		fmt.Fprintf(&b, "\n  %s (%s)", p.Username, p.Role)
	}
	return b.String(), nil
}
