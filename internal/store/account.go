package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Account is a tracker user.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedTs    int64
}

// FindAccount filters accounts. Nil fields are ignored.
type FindAccount struct {
	ID       *int64
	Username *string
}

// CreateAccount inserts a new account with an already hashed password.
func (s *Store) CreateAccount(ctx context.Context, username, passwordHash string) (*Account, error) {
	a := &Account{Username: username, PasswordHash: passwordHash, CreatedTs: s.timestamp()}
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO account (username, password_hash, created_ts) VALUES (?, ?, ?) RETURNING id`),
		a.Username, a.PasswordHash, a.CreatedTs).Scan(&a.ID)
	if err != nil {
		return nil, fmt.Errorf("create account %q: %w", username, err)
	}
	return a, nil
}

// GetAccount returns the account matching find or ErrNotFound.
func (s *Store) GetAccount(ctx context.Context, find *FindAccount) (*Account, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.Username; v != nil {
		where, args = append(where, "username = ?"), append(args, *v)
	}

	var a Account
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, username, password_hash, created_ts FROM account WHERE `+joinWhere(where)+` ORDER BY id LIMIT 1`),
		args...).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedTs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}
