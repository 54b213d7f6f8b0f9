package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdelaire/goalbot/internal/store"
)

// CreateOp creates goals, categories and boards.
//
//	/create goal <category_id> <title>
//	/create category <board_id> <title>
//	/create board <title>
type CreateOp struct {
	Domain Domain
}

func (o *CreateOp) Name() string        { return "create" }
func (o *CreateOp) Description() string { return "Create a goal, category or board" }
func (o *CreateOp) Usage() string {
	return "/create goal <category_id> <title> | /create category <board_id> <title> | /create board <title>"
}

func (o *CreateOp) Execute(ctx context.Context, session *store.ChatSession, args []string) (string, error) {
	if len(args) == 0 {
		return "", argError(o.Name(), "missing kind")
	}

	switch kind := strings.ToLower(args[0]); kind {
	case "goal":
		parentID, title, err := o.parentAndTitle(args)
		if err != nil {
			return "", err
		}
		accountID, err := accountOf(session)
		if err != nil {
			return "", err
		}
		g, err := o.Domain.CreateGoal(ctx, accountID, parentID, title)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Goal created: #%d %s", g.ID, g.Title), nil

	case "category":
		parentID, title, err := o.parentAndTitle(args)
		if err != nil {
			return "", err
		}
		accountID, err := accountOf(session)
		if err != nil {
			return "", err
		}
		c, err := o.Domain.CreateCategory(ctx, accountID, parentID, title)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Category created: #%d %s", c.ID, c.Title), nil

	case "board":
		title, err := restText(o.Name(), "title", args, 1)
		if err != nil {
			return "", err
		}
		accountID, err := accountOf(session)
		if err != nil {
			return "", err
		}
		b, err := o.Domain.CreateBoard(ctx, accountID, title)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Board created: #%d %s", b.ID, b.Title), nil

	default:
		return "", argError(o.Name(), "unknown kind %q", kind)
	}
}

func (o *CreateOp) parentAndTitle(args []string) (int64, string, error) {
	id, err := parseID(o.Name(), args, 1)
	if err != nil {
		return 0, "", err
	}
	title, err := restText(o.Name(), "title", args, 2)
	if err != nil {
		return 0, "", err
	}
	return id, title, nil
}
