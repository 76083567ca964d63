// Package tool implements the tool registry (spec §4.5): registration,
// insertion-ordered listing, and invocation with shallow argument
// validation. Grounded in the teacher's provider-based tool handling in
// internal/mcp (ToolProvider.ListTools/CallTool) but reshaped around
// direct Tool registration rather than provider aggregation, per spec
// §4.5's flatter model.
package tool

// file: internal/registry/tool/registry.go

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mcpcore/mcpcore/internal/arena"
	"github.com/mcpcore/mcpcore/internal/mcp"
	"github.com/mcpcore/mcpcore/internal/mcperr"
	"github.com/mcpcore/mcpcore/internal/schema"
)

// Registry holds the tools a server exposes. Safe for concurrent use;
// reads (List, Call's lookup) take the read lock, Register takes the
// write lock, matching spec §5's read-mostly locking guidance.
type Registry struct {
	mu        sync.RWMutex
	byName    map[string]mcp.Tool
	order     []string
	validator *schema.Validator
}

// New builds an empty Registry with its own schema validator.
func New() *Registry {
	return &Registry{
		byName:    make(map[string]mcp.Tool),
		validator: schema.New(),
	}
}

// Register adds t to the registry. Returns mcperr.ErrDuplicateName if a
// tool with the same name is already registered.
func (r *Registry) Register(t mcp.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[t.Name]; exists {
		return mcperr.Wrap(mcperr.ErrDuplicateName, mcperr.CategoryTool, mcperr.CodeInvalidParams,
			fmt.Sprintf("tool %q already registered", t.Name))
	}
	if err := r.validator.Compile(t.Name, t.InputSchema); err != nil {
		return mcperr.Wrap(err, mcperr.CategoryTool, mcperr.CodeInvalidParams,
			fmt.Sprintf("tool %q: invalid input schema", t.Name))
	}
	r.byName[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// List returns descriptors for every registered tool, in registration
// order, as a freshly allocated slice the caller owns (spec §10).
func (r *Registry) List() []mcp.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]mcp.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		t := r.byName[name]
		out = append(out, mcp.ToolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return out
}

// Count reports the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Call shallow-validates arguments against name's input schema, then
// invokes its handler. A handler error is not propagated as a JSON-RPC
// protocol error: per spec §4.5 it is captured as a CallResult with
// IsError true and a single text content describing the failure, so
// tool failures reach the caller as ordinary results rather than
// transport-level errors. Only an unknown tool name is a protocol
// error, and per spec §7/§8 that's InvalidParams (−32602), not
// MethodNotFound — the method (tools/call) was found, its argument
// (the tool name) was not.
func (r *Registry) Call(ctx context.Context, a *arena.Arena, name string, arguments json.RawMessage) (mcp.CallResult, error) {
	r.mu.RLock()
	t, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return mcp.CallResult{}, mcperr.Wrap(mcperr.ErrInvalidParams, mcperr.CategoryTool, mcperr.CodeInvalidParams,
			fmt.Sprintf("unknown tool %q", name))
	}

	if err := r.validator.ValidateShallow(name, arguments); err != nil {
		return mcp.CallResult{
			Content: []mcp.Content{mcp.TextContent(err.Error())},
			IsError: true,
		}, nil
	}

	result, err := t.Handler(ctx, a, arguments)
	if err != nil {
		return mcp.CallResult{
			Content: []mcp.Content{mcp.TextContent(err.Error())},
			IsError: true,
		}, nil
	}

	var content []mcp.Content
	if len(result) > 0 {
		if unmarshalErr := json.Unmarshal(result, &content); unmarshalErr != nil {
			content = []mcp.Content{mcp.TextContent(string(result))}
		}
	}
	return mcp.CallResult{Content: content}, nil
}
