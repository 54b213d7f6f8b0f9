package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jdelaire/goalbot/core/policy"
)

// Category groups goals inside a board.
type Category struct {
	ID        int64
	BoardID   int64
	AccountID int64
	Title     string
	IsDeleted bool
	CreatedTs int64
	UpdatedTs int64
}

// FindCategory selects categories on boards AccountID participates in.
// Deleted categories and categories of deleted boards are excluded.
type FindCategory struct {
	AccountID int64
	ID        *int64
	BoardID   *int64
	Roles     []policy.Role
}

// CreateCategory describes a new category.
type CreateCategory struct {
	AccountID int64
	BoardID   int64
	Title     string
	// Roles the creator must hold on the board.
	Roles []policy.Role
}

// ListCategories returns visible categories ordered by title, then id.
func (s *Store) ListCategories(ctx context.Context, find *FindCategory) ([]*Category, error) {
	return s.listCategories(ctx, s.db, find)
}

func (s *Store) listCategories(ctx context.Context, q queryer, find *FindCategory) ([]*Category, error) {
	where, args := []string{"p.account_id = ?", "c.is_deleted = FALSE", "b.is_deleted = FALSE"}, []any{find.AccountID}
	if v := find.ID; v != nil {
		where, args = append(where, "c.id = ?"), append(args, *v)
	}
	if v := find.BoardID; v != nil {
		where, args = append(where, "c.board_id = ?"), append(args, *v)
	}
	where, args = appendRoles(where, args, "p.role", find.Roles)

	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT c.id, c.board_id, c.account_id, c.title, c.is_deleted, c.created_ts, c.updated_ts
		FROM goal_category c
		JOIN board b ON b.id = c.board_id
		JOIN board_participant p ON p.board_id = b.id
		WHERE `+joinWhere(where)+`
		ORDER BY c.title, c.id`), args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var list []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.BoardID, &c.AccountID, &c.Title, &c.IsDeleted, &c.CreatedTs, &c.UpdatedTs); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return list, nil
}

// GetCategory returns the visible category matching find or ErrNotFound.
func (s *Store) GetCategory(ctx context.Context, find *FindCategory) (*Category, error) {
	return s.getCategory(ctx, s.db, find)
}

func (s *Store) getCategory(ctx context.Context, q queryer, find *FindCategory) (*Category, error) {
	list, err := s.listCategories(ctx, q, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

// CreateCategory checks board access and inserts the category in one
// transaction. ErrNotFound means the board is missing or the account
// lacks one of create.Roles on it.
func (s *Store) CreateCategory(ctx context.Context, create *CreateCategory) (*Category, error) {
	ts := s.timestamp()
	c := &Category{
		BoardID:   create.BoardID,
		AccountID: create.AccountID,
		Title:     create.Title,
		CreatedTs: ts,
		UpdatedTs: ts,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		boardID := create.BoardID
		if _, err := s.getBoard(ctx, tx, &FindBoard{AccountID: create.AccountID, ID: &boardID, Roles: create.Roles}); err != nil {
			return err
		}
		err := tx.QueryRowContext(ctx, s.rebind(`
			INSERT INTO goal_category (board_id, account_id, title, is_deleted, created_ts, updated_ts)
			VALUES (?, ?, ?, FALSE, ?, ?) RETURNING id`),
			c.BoardID, c.AccountID, c.Title, ts, ts).Scan(&c.ID)
		if err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create category on board %d: %w", create.BoardID, err)
	}
	return c, nil
}
