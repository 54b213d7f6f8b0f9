package ops

import (
	"context"
	"fmt"
	"sort"

	"github.com/jdelaire/goalbot/internal/store"
)

// Op defines an executable operation triggered by an inbound command.
// Execute is only called for linked sessions.
type Op interface {
	Name() string
	Description() string
	// Usage is the argument hint shown when Execute returns an
	// *ArgumentError, e.g. "/goal <id>".
	Usage() string
	Execute(ctx context.Context, session *store.ChatSession, args []string) (string, error)
}

// Registry is the command table. It is built once and never mutated.
type Registry struct {
	ops    map[string]Op
	sorted []Op
}

// NewRegistry builds a registry from ops plus a /help op listing them.
// Duplicate names are rejected.
func NewRegistry(ops ...Op) (*Registry, error) {
	r := &Registry{ops: make(map[string]Op, len(ops)+1)}

	for _, op := range append([]Op{&HelpOp{Registry: r}}, ops...) {
		name := op.Name()
		if name == "" {
			return nil, fmt.Errorf("op has empty name: %T", op)
		}
		if _, exists := r.ops[name]; exists {
			return nil, fmt.Errorf("op already registered: %s", name)
		}
		r.ops[name] = op
		r.sorted = append(r.sorted, op)
	}

	sort.Slice(r.sorted, func(i, j int) bool {
		return r.sorted[i].Name() < r.sorted[j].Name()
	})
	return r, nil
}

// Get returns the operation with the given name, or nil if not found.
func (r *Registry) Get(name string) Op {
	return r.ops[name]
}

// List returns all operations sorted by name.
func (r *Registry) List() []Op {
	out := make([]Op, len(r.sorted))
	copy(out, r.sorted)
	return out
}

// Default builds the bot's command table over domain.
func Default(domain Domain) (*Registry, error) {
	return NewRegistry(
		&GoalsOp{Domain: domain},
		&GoalOp{Domain: domain},
		&CategoriesOp{Domain: domain},
		&CategoryOp{Domain: domain},
		&BoardsOp{Domain: domain},
		&BoardOp{Domain: domain},
		&CommentsOp{Domain: domain},
		&CommentOp{Domain: domain},
		&CreateOp{Domain: domain},
		&StatusOp{Domain: domain},
	)
}
