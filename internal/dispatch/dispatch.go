// Package dispatch implements the method dispatcher (spec §4.4): a
// method-name-to-Handler map plus four optional hook kinds run around
// every dispatch, with phase gating delegated to the server's
// lifecycle. Grounded in the teacher's router pattern in its old
// internal/mcp router/dispatch code (a map keyed by JSON-RPC method
// name, invoked under the connection's current state) but restructured
// around the spec's explicit before/after/error/fallback hook phases,
// which the teacher's router did not separate out.
package dispatch

// file: internal/dispatch/dispatch.go

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mcpcore/mcpcore/internal/arena"
	"github.com/mcpcore/mcpcore/internal/mcperr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer emits one span per dispatched method. With no SDK configured by
// the process, otel.Tracer returns the no-op implementation, so spans
// cost nothing until a real exporter is wired up in main.
var tracer = otel.Tracer("mcpcore.dispatch")

// Handler executes one JSON-RPC method call under the request's arena.
type Handler func(ctx context.Context, a *arena.Arena, params json.RawMessage) (json.RawMessage, error)

// BeforeHook runs before a handler. Returning an error aborts dispatch
// as if the handler itself had failed.
type BeforeHook func(ctx context.Context, method string) error

// AfterHook runs after a successful handler invocation.
type AfterHook func(ctx context.Context, method string, result json.RawMessage)

// ErrorHook runs when a handler (or a BeforeHook) returns an error and
// decides the final outcome.
type ErrorHook func(ctx context.Context, method string, err error) Result

// FallbackHook runs when no handler is registered for a method.
type FallbackHook func(ctx context.Context, method string) Result

// Result is the outcome of a dispatch: at most one of Payload or Err is
// set on return from Dispatch. A handler that returns neither a payload
// nor an error leaves both empty.
type Result struct {
	Payload json.RawMessage
	Err     error
}

// PhaseGate reports whether method may be dispatched given the server's
// current lifecycle phase (internal/mcp.Lifecycle.Allows satisfies this).
type PhaseGate interface {
	Allows(method string, isNotification bool) bool
}

// hooks bundles the four optional hook kinds for one method or for the
// dispatcher-wide default.
type hooks struct {
	before   []BeforeHook
	after    []AfterHook
	onError  ErrorHook
	fallback FallbackHook
}

// Dispatcher routes JSON-RPC methods to registered Handlers, running
// method-specific then global hooks around each dispatch (spec §4.4).
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	perMethod map[string]*hooks
	global   hooks
	gate     PhaseGate
}

// New builds a Dispatcher gated by gate (pass a *mcp.Lifecycle).
func New(gate PhaseGate) *Dispatcher {
	return &Dispatcher{
		handlers:  make(map[string]Handler),
		perMethod: make(map[string]*hooks),
		gate:      gate,
	}
}

// Handle registers h for method, replacing any prior handler.
func (d *Dispatcher) Handle(method string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[method] = h
}

// methodHooks returns method's hook bundle, creating it on first use.
// Caller must hold d.mu for writing.
func (d *Dispatcher) methodHooks(method string) *hooks {
	h, ok := d.perMethod[method]
	if !ok {
		h = &hooks{}
		d.perMethod[method] = h
	}
	return h
}

// OnBefore registers a method-specific before-hook. An empty method
// registers a global default, run after any method-specific hooks
// (spec §4.4 step 2: "method-specific on_before, then global on_before").
func (d *Dispatcher) OnBefore(method string, h BeforeHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if method == "" {
		d.global.before = append(d.global.before, h)
		return
	}
	mh := d.methodHooks(method)
	mh.before = append(mh.before, h)
}

// OnAfter registers a method-specific or (method == "") global
// after-hook.
func (d *Dispatcher) OnAfter(method string, h AfterHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if method == "" {
		d.global.after = append(d.global.after, h)
		return
	}
	mh := d.methodHooks(method)
	mh.after = append(mh.after, h)
}

// OnError sets method's (or, if method == "", the global) error hook.
func (d *Dispatcher) OnError(method string, h ErrorHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if method == "" {
		d.global.onError = h
		return
	}
	d.methodHooks(method).onError = h
}

// OnFallback sets method's (or, if method == "", the global) fallback
// hook, invoked when no handler is registered.
func (d *Dispatcher) OnFallback(method string, h FallbackHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if method == "" {
		d.global.fallback = h
		return
	}
	d.methodHooks(method).fallback = h
}

// Dispatch runs the full sequence from spec §4.4 for one method call.
// isNotification callers discard Result.Payload but hooks still run in
// full, matching "notifications follow the same flow but their outcome
// is discarded."
func (d *Dispatcher) Dispatch(ctx context.Context, a *arena.Arena, method string, params json.RawMessage, isNotification bool) Result {
	ctx, span := tracer.Start(ctx, "dispatch."+method,
		trace.WithAttributes(
			attribute.String("mcp.method", method),
			attribute.Bool("mcp.notification", isNotification),
		))
	defer span.End()

	result := d.dispatch(ctx, a, method, params, isNotification)
	if result.Err != nil {
		span.SetStatus(codes.Error, result.Err.Error())
	}
	return result
}

// dispatch runs the full sequence from spec §4.4, unwrapped from the
// tracing span Dispatch wraps it in.
func (d *Dispatcher) dispatch(ctx context.Context, a *arena.Arena, method string, params json.RawMessage, isNotification bool) Result {
	if d.gate != nil && !d.gate.Allows(method, isNotification) {
		return Result{Err: mcperr.Wrap(mcperr.ErrNotInitialized, mcperr.CategoryLifecycle, mcperr.CodeNotInitialized,
			fmt.Sprintf("method %q not allowed before initialization completes", method))}
	}

	d.mu.RLock()
	handler, hasHandler := d.handlers[method]
	mh := d.perMethod[method]
	global := d.global
	d.mu.RUnlock()

	var before []BeforeHook
	var after []AfterHook
	var onError ErrorHook
	var fallback FallbackHook
	if mh != nil {
		before = append(before, mh.before...)
		after = append(after, mh.after...)
		onError = mh.onError
		fallback = mh.fallback
	}
	before = append(before, global.before...)
	after = append(after, global.after...)
	if onError == nil {
		onError = global.onError
	}
	if fallback == nil {
		fallback = global.fallback
	}

	if !hasHandler {
		if fallback != nil {
			return fallback(ctx, method)
		}
		return Result{Err: mcperr.Wrap(mcperr.ErrMethodNotFound, mcperr.CategoryRPC, mcperr.CodeMethodNotFound,
			fmt.Sprintf("method %q not found", method))}
	}

	for _, hook := range before {
		if err := hook(ctx, method); err != nil {
			return resolveError(ctx, method, err, onError)
		}
	}

	payload, err := handler(ctx, a, params)
	if err != nil {
		return resolveError(ctx, method, err, onError)
	}

	// after-hooks run in mirrored order relative to before (spec §4.4 step
	// 4): before ran method-specific then global, so after runs global
	// then method-specific.
	for i := len(after) - 1; i >= 0; i-- {
		after[i](ctx, method, payload)
	}
	return Result{Payload: payload}
}

func resolveError(ctx context.Context, method string, err error, onError ErrorHook) Result {
	if onError != nil {
		return onError(ctx, method, err)
	}
	return Result{Err: mcperr.Wrap(err, mcperr.CategoryRPC, mcperr.CodeInternalError,
		fmt.Sprintf("method %q handler failed", method))}
}
