// Package store persists chat sessions, accounts and the goal domain
// (boards, participants, categories, goals, comments) in SQLite or
// PostgreSQL through database/sql.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/jdelaire/goalbot/core/policy"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names a supported SQL backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

var (
	// ErrNotFound is returned when no row matches, including rows the
	// caller is not allowed to see.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyLinked is returned when a token is issued for a chat
	// that already has an account.
	ErrAlreadyLinked = errors.New("chat session already linked")
)

// Store is the SQL-backed persistence layer.
type Store struct {
	db      *sql.DB
	driver  Driver
	now     func() time.Time
	newCode func() string
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the database. For SQLite, foreign keys and a busy
// timeout are enabled and the pool is limited to one connection so the
// file is written by a single writer.
func Open(driver Driver, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("open store: dsn is empty")
	}

	var name string
	switch driver {
	case DriverSQLite:
		name = "sqlite"
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
		name = "postgres"
	default:
		return nil, fmt.Errorf("open store: unsupported driver %q", driver)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open store: ping: %w", err)
	}

	return New(db, driver)
}

// New returns a Store bound to an existing database handle.
func New(db *sql.DB, driver Driver) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{
		db:      db,
		driver:  driver,
		now:     time.Now,
		newCode: shortuuid.New,
	}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver reports the backend in use.
func (s *Store) Driver() Driver {
	return s.driver
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) timestamp() int64 {
	return s.now().Unix()
}

// placeholders returns "(?, ?, ?)" for n values.
func placeholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func joinWhere(where []string) string {
	return strings.Join(where, " AND ")
}

func appendRoles(where []string, args []any, column string, roles []policy.Role) ([]string, []any) {
	if len(roles) == 0 {
		return where, args
	}
	where = append(where, column+" IN "+placeholders(len(roles)))
	for _, r := range roles {
		args = append(args, int(r))
	}
	return where, args
}
