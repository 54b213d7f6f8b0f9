package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "goalbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	s.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	n := 0
	var mu sync.Mutex
	s.newCode = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("code-%d", n)
	}

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Driver("mysql"), "x")
	require.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))
	v, err := s.CurrentVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, SchemaVersion, v)
}

func TestRebind(t *testing.T) {
	s := &Store{driver: DriverPostgres}
	require.Equal(t, "a = $1 AND b IN ($2, $3)", s.rebind("a = ? AND b IN "+placeholders(2)))

	lite := &Store{driver: DriverSQLite}
	require.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestPlaceholders(t *testing.T) {
	require.Equal(t, "(?)", placeholders(1))
	require.Equal(t, "(?, ?, ?)", placeholders(3))
}

func TestSQLiteDSN(t *testing.T) {
	require.Equal(t, "x.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("x.db"))
	require.Equal(t, "x.db?mode=rw&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("x.db?mode=rw"))
	require.Equal(t, "x.db?_pragma=journal_mode(WAL)", sqliteDSN("x.db?_pragma=journal_mode(WAL)"))
}
