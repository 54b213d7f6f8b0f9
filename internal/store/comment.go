package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jdelaire/goalbot/core/policy"
)

// Comment is a note left on a goal.
type Comment struct {
	ID        int64
	GoalID    int64
	AccountID int64
	Username  string
	Text      string
	CreatedTs int64
	UpdatedTs int64
}

// CreateComment describes a new comment.
type CreateComment struct {
	AccountID int64
	GoalID    int64
	Text      string
	// Roles the author must hold on the goal's board.
	Roles []policy.Role
	// ExcludeStatuses hides goals in these states from the author.
	ExcludeStatuses []GoalStatus
}

// ListComments returns the goal's comments oldest first. Callers check
// goal visibility before listing.
func (s *Store) ListComments(ctx context.Context, goalID int64) ([]*Comment, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT m.id, m.goal_id, m.account_id, a.username, m.text, m.created_ts, m.updated_ts
		FROM goal_comment m
		JOIN account a ON a.id = m.account_id
		WHERE m.goal_id = ?
		ORDER BY m.created_ts, m.id`), goalID)
	if err != nil {
		return nil, fmt.Errorf("list comments of goal %d: %w", goalID, err)
	}
	defer rows.Close()

	var list []*Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.GoalID, &c.AccountID, &c.Username, &c.Text, &c.CreatedTs, &c.UpdatedTs); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list comments of goal %d: %w", goalID, err)
	}
	return list, nil
}

// CreateComment checks goal access and inserts the comment in one
// transaction.
func (s *Store) CreateComment(ctx context.Context, create *CreateComment) (*Comment, error) {
	ts := s.timestamp()
	c := &Comment{
		GoalID:    create.GoalID,
		AccountID: create.AccountID,
		Text:      create.Text,
		CreatedTs: ts,
		UpdatedTs: ts,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		goalID := create.GoalID
		_, err := s.getGoal(ctx, tx, &FindGoal{
			AccountID:       create.AccountID,
			ID:              &goalID,
			Roles:           create.Roles,
			ExcludeStatuses: create.ExcludeStatuses,
		})
		if err != nil {
			return err
		}
		err = tx.QueryRowContext(ctx, s.rebind(`
			INSERT INTO goal_comment (goal_id, account_id, text, created_ts, updated_ts)
			VALUES (?, ?, ?, ?, ?) RETURNING id`),
			c.GoalID, c.AccountID, c.Text, ts, ts).Scan(&c.ID)
		if err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		return tx.QueryRowContext(ctx, s.rebind(`SELECT username FROM account WHERE id = ?`), c.AccountID).Scan(&c.Username)
	})
	if err != nil {
		return nil, fmt.Errorf("create comment on goal %d: %w", create.GoalID, err)
	}
	return c, nil
}
