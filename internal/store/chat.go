package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ChatSession binds a remote chat to an optional account.
type ChatSession struct {
	ID               int64
	ChatID           int64
	AccountID        *int64
	VerificationCode *string
	LastRemindedOn   *string
	CreatedTs        int64
	UpdatedTs        int64
}

// Linked reports whether the chat is bound to an account.
func (c *ChatSession) Linked() bool {
	return c.AccountID != nil
}

// FindChat filters chat sessions. Nil fields are ignored.
type FindChat struct {
	ID               *int64
	ChatID           *int64
	VerificationCode *string
	Linked           *bool
}

const chatColumns = `id, chat_id, account_id, verification_code, last_reminded_on, created_ts, updated_ts`

func scanChat(row interface{ Scan(...any) error }) (*ChatSession, error) {
	var (
		c         ChatSession
		accountID sql.NullInt64
		code      sql.NullString
		reminded  sql.NullString
	)
	if err := row.Scan(&c.ID, &c.ChatID, &accountID, &code, &reminded, &c.CreatedTs, &c.UpdatedTs); err != nil {
		return nil, err
	}
	c.AccountID = nullInt64Ptr(accountID)
	c.VerificationCode = nullStringPtr(code)
	c.LastRemindedOn = nullStringPtr(reminded)
	return &c, nil
}

// ResolveOrCreate returns the session for chatID, creating it when the
// chat has never been seen. created is true only for the call that
// inserted the row.
func (s *Store) ResolveOrCreate(ctx context.Context, chatID int64) (*ChatSession, bool, error) {
	ts := s.timestamp()
	res, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO chat_session (chat_id, created_ts, updated_ts) VALUES (?, ?, ?) ON CONFLICT (chat_id) DO NOTHING`),
		chatID, ts, ts)
	if err != nil {
		return nil, false, fmt.Errorf("insert chat session %d: %w", chatID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert chat session %d: %w", chatID, err)
	}

	session, err := s.GetChat(ctx, &FindChat{ChatID: &chatID})
	if err != nil {
		return nil, false, fmt.Errorf("read chat session %d: %w", chatID, err)
	}
	return session, n > 0, nil
}

// ListChats returns sessions matching find ordered by id.
func (s *Store) ListChats(ctx context.Context, find *FindChat) ([]*ChatSession, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.ChatID; v != nil {
		where, args = append(where, "chat_id = ?"), append(args, *v)
	}
	if v := find.VerificationCode; v != nil {
		where, args = append(where, "verification_code = ?"), append(args, *v)
	}
	if v := find.Linked; v != nil {
		if *v {
			where = append(where, "account_id IS NOT NULL")
		} else {
			where = append(where, "account_id IS NULL")
		}
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+chatColumns+` FROM chat_session WHERE `+joinWhere(where)+` ORDER BY id`), args...)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer rows.Close()

	var list []*ChatSession
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat session: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	return list, nil
}

// GetChat returns the first session matching find or ErrNotFound.
func (s *Store) GetChat(ctx context.Context, find *FindChat) (*ChatSession, error) {
	list, err := s.ListChats(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

// IssueToken generates a fresh verification code for an unlinked
// session, replacing any earlier one. The session is updated in place.
func (s *Store) IssueToken(ctx context.Context, session *ChatSession) (string, error) {
	code := s.newCode()
	ts := s.timestamp()

	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE chat_session SET verification_code = ?, updated_ts = ? WHERE id = ? AND account_id IS NULL`),
		code, ts, session.ID)
	if err != nil {
		return "", fmt.Errorf("issue token for chat %d: %w", session.ChatID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("issue token for chat %d: %w", session.ChatID, err)
	}
	if n == 0 {
		if _, err := s.GetChat(ctx, &FindChat{ID: &session.ID}); err != nil {
			return "", err
		}
		return "", ErrAlreadyLinked
	}

	session.VerificationCode = &code
	session.UpdatedTs = ts
	return code, nil
}

// ConsumeToken looks up the unlinked session whose current code is token.
func (s *Store) ConsumeToken(ctx context.Context, token string) (*ChatSession, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	unlinked := false
	return s.GetChat(ctx, &FindChat{VerificationCode: &token, Linked: &unlinked})
}

// LinkAccount binds the session to accountID and clears its code, but
// only if token is still the session's current code. A superseded or
// already used token yields ErrNotFound.
func (s *Store) LinkAccount(ctx context.Context, sessionID int64, token string, accountID int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE chat_session SET account_id = ?, verification_code = NULL, updated_ts = ?
		 WHERE id = ? AND verification_code = ? AND account_id IS NULL`),
		accountID, s.timestamp(), sessionID, token)
	if err != nil {
		return fmt.Errorf("link chat session %d: %w", sessionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("link chat session %d: %w", sessionID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkReminded records the date of the last reminder sent to the chat.
// It returns false when the chat was already reminded on that date.
func (s *Store) MarkReminded(ctx context.Context, sessionID int64, date string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE chat_session SET last_reminded_on = ?, updated_ts = ?
		 WHERE id = ? AND (last_reminded_on IS NULL OR last_reminded_on <> ?)`),
		date, s.timestamp(), sessionID, date)
	if err != nil {
		return false, fmt.Errorf("mark chat session %d reminded: %w", sessionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark chat session %d reminded: %w", sessionID, err)
	}
	return n > 0, nil
}
