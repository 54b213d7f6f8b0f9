package ops_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jdelaire/goalbot/core/ops"
	"github.com/jdelaire/goalbot/internal/store"
)

type mockOp struct {
	name string
	desc string
}

func (m *mockOp) Name() string        { return m.name }
func (m *mockOp) Description() string { return m.desc }
func (m *mockOp) Usage() string       { return "/" + m.name }
func (m *mockOp) Execute(_ context.Context, _ *store.ChatSession, _ []string) (string, error) {
	return "ok", nil
}

func TestNewRegistryAndGet(t *testing.T) {
	r, err := ops.NewRegistry(&mockOp{name: "test", desc: "a test op"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	got := r.Get("test")
	if got == nil {
		t.Fatal("expected op, got nil")
	}
	if got.Name() != "test" {
		t.Errorf("name = %q, want %q", got.Name(), "test")
	}
	if r.Get("help") == nil {
		t.Error("expected help to be registered")
	}
}

func TestGetNotFound(t *testing.T) {
	r, err := ops.NewRegistry()
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if got := r.Get("missing"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestDuplicateName(t *testing.T) {
	_, err := ops.NewRegistry(&mockOp{name: "dup", desc: "first"}, &mockOp{name: "dup", desc: "second"})
	if err == nil {
		t.Fatal("expected error on duplicate name")
	}

	if _, err := ops.NewRegistry(&mockOp{name: "help"}); err == nil {
		t.Fatal("expected error when shadowing help")
	}
}

func TestEmptyName(t *testing.T) {
	if _, err := ops.NewRegistry(&mockOp{name: ""}); err == nil {
		t.Fatal("expected error on empty name")
	}
}

func TestList(t *testing.T) {
	r, err := ops.NewRegistry(
		&mockOp{name: "zebra", desc: "z"},
		&mockOp{name: "alpha", desc: "a"},
		&mockOp{name: "middle", desc: "m"},
	)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	list := r.List()
	expected := []string{"alpha", "help", "middle", "zebra"}
	if len(list) != len(expected) {
		t.Fatalf("len = %d, want %d", len(list), len(expected))
	}
	for i, op := range list {
		if op.Name() != expected[i] {
			t.Errorf("list[%d] = %q, want %q", i, op.Name(), expected[i])
		}
	}

	// Mutating the returned slice must not affect the registry.
	list[0] = nil
	if r.List()[0] == nil {
		t.Error("List returned the registry's backing slice")
	}
}

func TestHelpListsCommands(t *testing.T) {
	r, err := ops.NewRegistry(&mockOp{name: "goals", desc: "List your goals"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	got, err := r.Get("help").Execute(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	want := "Available commands:\n  /goals - List your goals\n  /help - List available commands"
	if got != want {
		t.Errorf("help = %q, want %q", got, want)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r, err := ops.Default(nil)
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}
	for _, name := range []string{"help", "goals", "goal", "categories", "category", "boards", "board", "comments", "comment", "create", "status"} {
		op := r.Get(name)
		if op == nil {
			t.Errorf("missing op %q", name)
			continue
		}
		if !strings.HasPrefix(op.Usage(), "/"+name) {
			t.Errorf("%s usage = %q", name, op.Usage())
		}
	}
}
