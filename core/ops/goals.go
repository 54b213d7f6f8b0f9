package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdelaire/goalbot/internal/store"
)

// GoalsOp lists the goals visible to the linked account.
type GoalsOp struct {
	Domain Domain
}

func (o *GoalsOp) Name() string        { return "goals" }
func (o *GoalsOp) Description() string { return "List your goals" }
func (o *GoalsOp) Usage() string       { return "/goals" }

func (o *GoalsOp) Execute(ctx context.Context, session *store.ChatSession, args []string) (string, error) {
	if err := noArgs(o.Name(), args); err != nil {
		return "", err
	}
	accountID, err := accountOf(session)
	if err != nil {
		return "", err
	}

	list, err := o.Domain.ListGoals(ctx, accountID)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "Goals list is empty.", nil
	}

	lines := make([]string, 0, len(list))
	for _, g := range list {
		lines = append(lines, fmt.Sprintf("#%d %s", g.ID, g.Title))
	}
	return strings.Join(lines, "\n"), nil
}

// GoalOp shows one goal.
type GoalOp struct {
	Domain Domain
}

func (o *GoalOp) Name() string        { return "goal" }
func (o *GoalOp) Description() string { return "Show goal details" }
func (o *GoalOp) Usage() string       { return "/goal <id>" }

func (o *GoalOp) Execute(ctx context.Context, session *store.ChatSession, args []string) (string, error) {
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

	g, err := o.Domain.GetGoal(ctx, accountID, id)
	if err != nil {
		return "", err
	}

	due := "none"
	if g.DueDate != nil {
		due = *g.DueDate
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n", g.ID, g.Title)
	fmt.Fprintf(&b, "Status: %s\n", g.Status)
	fmt.Fprintf(&b, "Priority: %s\n", g.Priority)
	fmt.Fprintf(&b, "Due: %s\n", due)
	fmt.Fprintf(&b, "Category: #%d %s", g.CategoryID, g.CategoryTitle)
	if g.Description != "" {
		fmt.Fprintf(&b, "\n\n%s", g.Description)
	}
	return b.String(), nil
}

// CommentsOp lists the comments of a goal.
type CommentsOp struct {
	Domain Domain
}

func (o *CommentsOp) Name() string        { return "comments" }
func (o *CommentsOp) Description() string { return "List comments on a goal" }
func (o *CommentsOp) Usage() string       { return "/comments <goal_id>" }

func (o *CommentsOp) Execute(ctx context.Context, session *store.ChatSession, args []string) (string, error) {
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

	list, err := o.Domain.ListComments(ctx, accountID, id)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return fmt.Sprintf("No comments on #%d yet.", id), nil
	}

	lines := make([]string, 0, len(list)+1)
	lines = append(lines, fmt.Sprintf("Comments on #%d:", id))
	for _, c := range list {
		lines = append(lines, fmt.Sprintf("[%s] %s", c.Username, c.Text))
	}
	return strings.Join(lines, "\n"), nil
}

// CommentOp adds a comment to a goal.
type CommentOp struct {
	Domain Domain
}

func (o *CommentOp) Name() string        { return "comment" }
func (o *CommentOp) Description() string { return "Comment on a goal" }
func (o *CommentOp) Usage() string       { return "/comment <goal_id> <text>" }

func (o *CommentOp) Execute(ctx context.Context, session *store.ChatSession, args []string) (string, error) {
	id, err := parseID(o.Name(), args, 0)
	if err != nil {
		return "", err
	}
	text, err := restText(o.Name(), "text", args, 1)
	if err != nil {
		return "", err
	}
	accountID, err := accountOf(session)
	if err != nil {
		return "", err
	}

	if _, err := o.Domain.AddComment(ctx, accountID, id, text); err != nil {
		return "", err
	}
	return fmt.Sprintf("Comment added to #%d.", id), nil
}
