package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveOrCreateCreatesOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, created, err := s.ResolveOrCreate(ctx, 555)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, int64(555), first.ChatID)
	require.False(t, first.Linked())
	require.Nil(t, first.VerificationCode)

	second, created, err := s.ResolveOrCreate(ctx, 555)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
}

func TestResolveOrCreateConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[int64]bool{}
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, c, err := s.ResolveOrCreate(ctx, 777)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if c {
				created++
			}
			ids[session.ID] = true
		}()
	}
	wg.Wait()

	require.Equal(t, 1, created)
	require.Len(t, ids, 1)

	list, err := s.ListChats(ctx, &FindChat{})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestIssueTokenReplacesPrevious(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	session, _, err := s.ResolveOrCreate(ctx, 1)
	require.NoError(t, err)

	first, err := s.IssueToken(ctx, session)
	require.NoError(t, err)
	second, err := s.IssueToken(ctx, session)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	require.Equal(t, second, *session.VerificationCode)

	_, err = s.ConsumeToken(ctx, first)
	require.ErrorIs(t, err, ErrNotFound)

	found, err := s.ConsumeToken(ctx, second)
	require.NoError(t, err)
	require.Equal(t, session.ID, found.ID)
}

func TestLinkAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	account, err := s.CreateAccount(ctx, "alice", "hash")
	require.NoError(t, err)
	session, _, err := s.ResolveOrCreate(ctx, 42)
	require.NoError(t, err)
	token, err := s.IssueToken(ctx, session)
	require.NoError(t, err)

	require.NoError(t, s.LinkAccount(ctx, session.ID, token, account.ID))

	linked, _, err := s.ResolveOrCreate(ctx, 42)
	require.NoError(t, err)
	require.True(t, linked.Linked())
	require.Equal(t, account.ID, *linked.AccountID)
	require.Nil(t, linked.VerificationCode)

	// The token is single-use.
	_, err = s.ConsumeToken(ctx, token)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.LinkAccount(ctx, session.ID, token, account.ID), ErrNotFound)

	_, err = s.IssueToken(ctx, linked)
	require.ErrorIs(t, err, ErrAlreadyLinked)
}

func TestLinkAccountRejectsSupersededToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	account, err := s.CreateAccount(ctx, "alice", "hash")
	require.NoError(t, err)
	session, _, err := s.ResolveOrCreate(ctx, 42)
	require.NoError(t, err)

	stale, err := s.IssueToken(ctx, session)
	require.NoError(t, err)
	_, err = s.IssueToken(ctx, session)
	require.NoError(t, err)

	require.ErrorIs(t, s.LinkAccount(ctx, session.ID, stale, account.ID), ErrNotFound)
}

func TestConsumeTokenEmpty(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ConsumeToken(context.Background(), "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestIssueTokenUnknownSession(t *testing.T) {
	s := newTestStore(t)
	_, err := s.IssueToken(context.Background(), &ChatSession{ID: 99, ChatID: 99})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMarkReminded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	session, _, err := s.ResolveOrCreate(ctx, 5)
	require.NoError(t, err)

	ok, err := s.MarkReminded(ctx, session.ID, "2026-03-01")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.MarkReminded(ctx, session.ID, "2026-03-01")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.MarkReminded(ctx, session.ID, "2026-03-02")
	require.NoError(t, err)
	require.True(t, ok)
}
