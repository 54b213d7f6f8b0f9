package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdelaire/goalbot/internal/store"
)

// HelpOp lists all registered operations.
type HelpOp struct {
	Registry *Registry
}

func (h *HelpOp) Name() string        { return "help" }
func (h *HelpOp) Description() string { return "List available commands" }
func (h *HelpOp) Usage() string       { return "/help" }

func (h *HelpOp) Execute(_ context.Context, _ *store.ChatSession, _ []string) (string, error) {
	all := h.Registry.List()

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, op := range all {
		fmt.Fprintf(&b, "  /%s - %s\n", op.Name(), op.Description())
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
