// Package prompt implements the prompt registry (spec §4.7):
// registration, listing, and templated expansion via get(). Grounded in
// the teacher's PromptProvider.ListPrompts/GetPrompt pattern, reshaped
// around direct registration per spec §4.5.
package prompt

// file: internal/registry/prompt/registry.go

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mcpcore/mcpcore/internal/arena"
	"github.com/mcpcore/mcpcore/internal/logging"
	"github.com/mcpcore/mcpcore/internal/mcp"
	"github.com/mcpcore/mcpcore/internal/mcperr"
	"github.com/mcpcore/mcpcore/internal/schema"
)

// Registry holds the prompt templates a server exposes. Safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]mcp.Prompt
	order  []string
	logger logging.Logger
}

// New builds an empty Registry.
func New(logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &Registry{
		byName: make(map[string]mcp.Prompt),
		logger: logger,
	}
}

// Register adds p to the registry.
func (r *Registry) Register(p mcp.Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[p.Name]; exists {
		return mcperr.Wrap(mcperr.ErrDuplicateName, mcperr.CategoryPrompt, mcperr.CodeInvalidParams,
			fmt.Sprintf("prompt %q already registered", p.Name))
	}
	r.byName[p.Name] = p
	r.order = append(r.order, p.Name)
	return nil
}

// List returns descriptors for every registered prompt, in registration
// order, as a freshly allocated slice the caller owns.
func (r *Registry) List() []mcp.PromptDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]mcp.PromptDescriptor, 0, len(r.order))
	for _, name := range r.order {
		p := r.byName[name]
		out = append(out, mcp.PromptDescriptor{
			Name:        p.Name,
			Description: p.Description,
			Arguments:   p.Arguments,
		})
	}
	return out
}

// Count reports the number of registered prompts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Get expands name's template against arguments. Every PromptArg marked
// Required must be present in arguments; an unknown key present in
// arguments but not declared by the prompt is logged as a warning, not
// rejected (spec §4.7 — prompts tolerate forward-compatible extra
// arguments).
func (r *Registry) Get(ctx context.Context, a *arena.Arena, name string, arguments json.RawMessage) (mcp.PromptResult, error) {
	r.mu.RLock()
	p, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		// Unknown prompt name is an InvalidParams, not MethodNotFound (spec
		// §7/§8): prompts/get itself is a recognized method, its "name"
		// argument is the part that's invalid.
		return mcp.PromptResult{}, mcperr.Wrap(mcperr.ErrInvalidParams, mcperr.CategoryPrompt, mcperr.CodeInvalidParams,
			fmt.Sprintf("unknown prompt %q", name))
	}

	fields := map[string]interface{}{}
	if err := schema.Decode(arguments, &fields); err != nil {
		return mcp.PromptResult{}, mcperr.Wrap(err, mcperr.CategoryPrompt, mcperr.CodeInvalidParams,
			"prompt arguments must be a JSON object")
	}

	declared := make(map[string]bool, len(p.Arguments))
	for _, arg := range p.Arguments {
		declared[arg.Name] = true
		if arg.Required {
			if _, present := fields[arg.Name]; !present {
				return mcp.PromptResult{}, mcperr.Wrap(mcperr.ErrInvalidParams, mcperr.CategoryPrompt, mcperr.CodeInvalidParams,
					fmt.Sprintf("prompt %q missing required argument %q", name, arg.Name))
			}
		}
	}
	for key := range fields {
		if !declared[key] {
			r.logger.Warn("prompt called with undeclared argument", "prompt", name, "argument", key)
		}
	}

	messages, err := p.Handler(ctx, a, arguments)
	if err != nil {
		return mcp.PromptResult{}, mcperr.Wrap(err, mcperr.CategoryPrompt, mcperr.CodeInternalError,
			fmt.Sprintf("prompt %q handler failed", name))
	}
	return mcp.PromptResult{Description: p.Description, Messages: messages}, nil
}
