package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SchemaVersion is the latest schema version supported by the migrator.
const SchemaVersion = 1

var schemaV1 = []string{
	`CREATE TABLE IF NOT EXISTS account (
		id            {{pk}},
		username      TEXT   NOT NULL UNIQUE,
		password_hash TEXT   NOT NULL,
		created_ts    BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS board (
		id         {{pk}},
		title      TEXT    NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_ts BIGINT  NOT NULL,
		updated_ts BIGINT  NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS board_participant (
		id         {{pk}},
		board_id   BIGINT  NOT NULL REFERENCES board(id),
		account_id BIGINT  NOT NULL REFERENCES account(id),
		role       INTEGER NOT NULL,
		created_ts BIGINT  NOT NULL,
		UNIQUE (board_id, account_id)
	)`,
	`CREATE TABLE IF NOT EXISTS goal_category (
		id         {{pk}},
		board_id   BIGINT  NOT NULL REFERENCES board(id),
		account_id BIGINT  NOT NULL REFERENCES account(id),
		title      TEXT    NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_ts BIGINT  NOT NULL,
		updated_ts BIGINT  NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS goal (
		id          {{pk}},
		category_id BIGINT  NOT NULL REFERENCES goal_category(id),
		account_id  BIGINT  NOT NULL REFERENCES account(id),
		title       TEXT    NOT NULL,
		description TEXT    NOT NULL DEFAULT '',
		status      INTEGER NOT NULL,
		priority    INTEGER NOT NULL,
		due_date    TEXT    NULL,
		created_ts  BIGINT  NOT NULL,
		updated_ts  BIGINT  NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS goal_comment (
		id         {{pk}},
		goal_id    BIGINT NOT NULL REFERENCES goal(id),
		account_id BIGINT NOT NULL REFERENCES account(id),
		text       TEXT   NOT NULL,
		created_ts BIGINT NOT NULL,
		updated_ts BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chat_session (
		id                {{pk}},
		chat_id           BIGINT NOT NULL UNIQUE,
		account_id        BIGINT NULL REFERENCES account(id),
		verification_code TEXT   NULL UNIQUE,
		last_reminded_on  TEXT   NULL,
		created_ts        BIGINT NOT NULL,
		updated_ts        BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_board_participant_account ON board_participant(account_id)`,
	`CREATE INDEX IF NOT EXISTS idx_goal_category_board ON goal_category(board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_goal_category ON goal(category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_goal_comment_goal ON goal_comment(goal_id)`,
}

// Migrate ensures the schema exists and is upgraded to SchemaVersion.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schemaV1 {
			if _, err := tx.ExecContext(ctx, s.ddl(stmt)); err != nil {
				return fmt.Errorf("migrate: apply v1: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO schema_migrations (version) VALUES (?)`), SchemaVersion); err != nil {
			return fmt.Errorf("migrate: record version: %w", err)
		}
		return nil
	})
}

// CurrentVersion returns the highest applied schema version.
func (s *Store) CurrentVersion(ctx context.Context) (int, error) {
	var current int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return current, nil
}

func (s *Store) ddl(stmt string) string {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == DriverPostgres {
		pk = "BIGSERIAL PRIMARY KEY"
	}
	return strings.ReplaceAll(stmt, "{{pk}}", pk)
}
