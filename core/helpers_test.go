package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jdelaire/goalbot/core/ops"
	"github.com/jdelaire/goalbot/internal/goals"
	"github.com/jdelaire/goalbot/internal/store"
)

// --- test helpers ---

type sentMessage struct {
	chatID int64
	text   string
}

type spySender struct {
	mu   sync.Mutex
	sent []sentMessage
	fail bool
}

func (s *spySender) SendText(_ context.Context, chatID int64, text string) (Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{chatID, text})
	if s.fail {
		return Delivery{}, errors.New("send failed")
	}
	return Delivery{MessageID: int64(len(s.sent)), ChatID: chatID, SentAt: time.Now()}, nil
}

func (s *spySender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	for i, m := range s.sent {
		out[i] = m.text
	}
	return out
}

func (s *spySender) lastText() string {
	texts := s.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (s *spySender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
}

func (s *spySender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// fakeFetcher returns queued batches in order, then empty batches.
type fakeFetcher struct {
	mu      sync.Mutex
	batches [][]InboundEvent
	errs    []error
	cursors []int64
}

func (f *fakeFetcher) Fetch(_ context.Context, cursor int64, _ time.Duration) ([]InboundEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursors = append(f.cursors, cursor)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "goalbot.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}

type harness struct {
	store      *store.Store
	svc        *goals.Service
	sender     *spySender
	fetcher    *fakeFetcher
	handshake  *Handshake
	dispatcher *Dispatcher
	linker     *Linker
	loop       *SessionLoop
}

func newHarness(t *testing.T, extraOps ...ops.Op) *harness {
	t.Helper()
	h := &harness{
		store:   newTestStore(t),
		sender:  &spySender{},
		fetcher: &fakeFetcher{},
	}
	h.svc = goals.NewService(h.store)

	all := []ops.Op{
		&ops.GoalsOp{Domain: h.svc},
		&ops.GoalOp{Domain: h.svc},
		&ops.CreateOp{Domain: h.svc},
	}
	reg, err := ops.NewRegistry(append(all, extraOps...)...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	h.handshake = NewHandshake(h.store, h.sender, testLogger())
	h.dispatcher = NewDispatcher(reg, h.sender, testLogger())
	h.linker = NewLinker(h.store, h.sender, testLogger())
	h.loop = NewSessionLoop(h.fetcher, h.store, h.handshake, h.dispatcher, testLogger()).
		WithPolling(time.Second, time.Millisecond)
	return h
}

// linkedSession creates an account and links chatID to it.
func (h *harness) linkedSession(t *testing.T, chatID int64, username string) *store.ChatSession {
	t.Helper()
	ctx := context.Background()
	account, err := h.store.CreateAccount(ctx, username, "h")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	session, _, err := h.store.ResolveOrCreate(ctx, chatID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	token, err := h.store.IssueToken(ctx, session)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := h.linker.Link(ctx, token, account.ID); err != nil {
		t.Fatalf("link: %v", err)
	}
	session.AccountID = &account.ID
	session.VerificationCode = nil
	h.sender.reset()
	return session
}

func extractCode(t *testing.T, text string) string {
	t.Helper()
	first, _, _ := strings.Cut(text, "\n")
	code, ok := strings.CutPrefix(first, "Verification code: ")
	if !ok || code == "" {
		t.Fatalf("no verification code in %q", text)
	}
	return code
}
