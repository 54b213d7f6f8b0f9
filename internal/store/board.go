package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jdelaire/goalbot/core/policy"
)

// Board groups categories and is shared through participants.
type Board struct {
	ID        int64
	Title     string
	IsDeleted bool
	// Role is the viewing account's role on the board.
	Role      policy.Role
	CreatedTs int64
	UpdatedTs int64
}

// Participant is an account's membership on a board.
type Participant struct {
	BoardID   int64
	AccountID int64
	Username  string
	Role      policy.Role
}

// FindBoard selects boards visible to AccountID. Deleted boards are
// never returned. Roles, when set, restricts to those participant roles.
type FindBoard struct {
	AccountID int64
	ID        *int64
	Roles     []policy.Role
}

// ListBoards returns visible boards ordered by title, then id.
func (s *Store) ListBoards(ctx context.Context, find *FindBoard) ([]*Board, error) {
	return s.listBoards(ctx, s.db, find)
}

func (s *Store) listBoards(ctx context.Context, q queryer, find *FindBoard) ([]*Board, error) {
	where, args := []string{"p.account_id = ?", "b.is_deleted = FALSE"}, []any{find.AccountID}
	if v := find.ID; v != nil {
		where, args = append(where, "b.id = ?"), append(args, *v)
	}
	where, args = appendRoles(where, args, "p.role", find.Roles)

	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT b.id, b.title, b.is_deleted, p.role, b.created_ts, b.updated_ts
		FROM board b
		JOIN board_participant p ON p.board_id = b.id
		WHERE `+joinWhere(where)+`
		ORDER BY b.title, b.id`), args...)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	var list []*Board
	for rows.Next() {
		var b Board
		if err := rows.Scan(&b.ID, &b.Title, &b.IsDeleted, &b.Role, &b.CreatedTs, &b.UpdatedTs); err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		list = append(list, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return list, nil
}

// GetBoard returns the visible board matching find or ErrNotFound.
func (s *Store) GetBoard(ctx context.Context, find *FindBoard) (*Board, error) {
	return s.getBoard(ctx, s.db, find)
}

func (s *Store) getBoard(ctx context.Context, q queryer, find *FindBoard) (*Board, error) {
	list, err := s.listBoards(ctx, q, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

// CreateBoard inserts a board and makes accountID its owner in the
// same transaction.
func (s *Store) CreateBoard(ctx context.Context, accountID int64, title string) (*Board, error) {
	ts := s.timestamp()
	b := &Board{Title: title, Role: policy.RoleOwner, CreatedTs: ts, UpdatedTs: ts}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, s.rebind(
			`INSERT INTO board (title, is_deleted, created_ts, updated_ts) VALUES (?, FALSE, ?, ?) RETURNING id`),
			title, ts, ts).Scan(&b.ID)
		if err != nil {
			return fmt.Errorf("insert board: %w", err)
		}
		return s.upsertParticipant(ctx, tx, b.ID, accountID, policy.RoleOwner)
	})
	if err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	return b, nil
}

// UpsertParticipant adds accountID to the board or changes its role.
func (s *Store) UpsertParticipant(ctx context.Context, boardID, accountID int64, role policy.Role) error {
	return s.upsertParticipant(ctx, s.db, boardID, accountID, role)
}

func (s *Store) upsertParticipant(ctx context.Context, q queryer, boardID, accountID int64, role policy.Role) error {
	_, err := q.ExecContext(ctx, s.rebind(`
		INSERT INTO board_participant (board_id, account_id, role, created_ts) VALUES (?, ?, ?, ?)
		ON CONFLICT (board_id, account_id) DO UPDATE SET role = excluded.role`),
		boardID, accountID, int(role), s.timestamp())
	if err != nil {
		return fmt.Errorf("upsert participant %d on board %d: %w", accountID, boardID, err)
	}
	return nil
}

// ListParticipants returns the board's members, strongest role first.
func (s *Store) ListParticipants(ctx context.Context, boardID int64) ([]*Participant, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT p.board_id, p.account_id, a.username, p.role
		FROM board_participant p
		JOIN account a ON a.id = p.account_id
		WHERE p.board_id = ?
		ORDER BY p.role, a.username`), boardID)
	if err != nil {
		return nil, fmt.Errorf("list participants of board %d: %w", boardID, err)
	}
	defer rows.Close()

	var list []*Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.BoardID, &p.AccountID, &p.Username, &p.Role); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participants of board %d: %w", boardID, err)
	}
	return list, nil
}
