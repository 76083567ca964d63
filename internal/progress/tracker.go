// Package progress implements the progress-notification tracker (spec
// §4.8): per-(connection, token) trackers enforcing monotonic progress
// and emitting outbound $/progress notifications. Grounded in the
// teacher's notification-sending pattern in internal/mcp (building a
// JSON-RPC notification and writing it through the connection's
// transport) but generalized from the teacher's fixed notification set
// to the spec's token-scoped progress contract, and adding the
// per-(connection, token) uniqueness check spec.md §9 leaves open
// (resolved in SPEC_FULL.md §5.8).
package progress

// file: internal/progress/tracker.go

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcpcore/mcpcore/internal/mcperr"
)

// Notification is the payload of an outbound $/progress notification
// (spec §6's wire shape for "$/progress").
type Notification struct {
	ProgressToken interface{} `json:"progressToken"`
	Progress      float64     `json:"progress"`
	Total         *float64    `json:"total,omitempty"`
	Message       string      `json:"message,omitempty"`
}

// Sink delivers a progress notification to its connection's peer.
// server.Serve supplies one that writes through connection.Loop.Notify,
// which serializes outbound writes with response writes on the same
// connection (spec §4.10).
type Sink func(ctx context.Context, connectionID string, n Notification) error

// tracker is one request's progress state.
type tracker struct {
	token    interface{}
	progress float64
	total    *float64
	closed   bool
}

// key identifies a tracker by the (connection, token) pair spec §9's
// Open Question resolution tracks uniqueness against.
type key struct {
	connectionID string
	token        interface{}
}

// Manager owns every open tracker across all connections. Safe for
// concurrent use.
type Manager struct {
	mu       sync.Mutex
	trackers map[key]*tracker
	sink     Sink
}

// NewManager builds a Manager that emits notifications through sink.
func NewManager(sink Sink) *Manager {
	return &Manager{
		trackers: make(map[key]*tracker),
		sink:     sink,
	}
}

// Start opens a tracker for token on connectionID. Returns
// mcperr.ErrTokenInUse if a tracker for the same (connectionID, token)
// pair is already open.
func (m *Manager) Start(connectionID string, token interface{}) error {
	k := key{connectionID, token}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.trackers[k]; ok && !existing.closed {
		return mcperr.Wrap(mcperr.ErrTokenInUse, mcperr.CategoryProgress, mcperr.CodeProgressTokenInUse,
			fmt.Sprintf("progress token %v already in use on this connection", token))
	}
	m.trackers[k] = &tracker{token: token}
	return nil
}

// Update advances token's progress and emits a notification through the
// Manager's sink. progress must be monotonically non-decreasing
// relative to the tracker's last value, and, when total is non-nil,
// must fall within [0, total] (spec §4.8).
func (m *Manager) Update(ctx context.Context, connectionID string, token interface{}, prog float64, message string, total *float64) error {
	k := key{connectionID, token}

	m.mu.Lock()
	t, ok := m.trackers[k]
	if !ok {
		m.mu.Unlock()
		return mcperr.Wrap(mcperr.ErrInvalidParams, mcperr.CategoryProgress, mcperr.CodeInvalidParams,
			fmt.Sprintf("no open progress tracker for token %v", token))
	}
	if t.closed {
		m.mu.Unlock()
		return mcperr.Wrap(mcperr.ErrTrackerClosed, mcperr.CategoryProgress, mcperr.CodeInvalidRequest,
			fmt.Sprintf("progress tracker for token %v already completed", token))
	}
	if prog < t.progress {
		m.mu.Unlock()
		return mcperr.Wrap(mcperr.ErrNonMonotonic, mcperr.CategoryProgress, mcperr.CodeInvalidParams,
			fmt.Sprintf("progress %v is less than prior value %v", prog, t.progress))
	}
	effectiveTotal := total
	if effectiveTotal == nil {
		effectiveTotal = t.total
	} else {
		t.total = effectiveTotal
	}
	if effectiveTotal != nil && (prog < 0 || prog > *effectiveTotal) {
		m.mu.Unlock()
		return mcperr.Wrap(mcperr.ErrInvalidParams, mcperr.CategoryProgress, mcperr.CodeInvalidParams,
			fmt.Sprintf("progress %v out of range [0, %v]", prog, *effectiveTotal))
	}
	t.progress = prog
	m.mu.Unlock()

	if m.sink == nil {
		return nil
	}
	return m.sink(ctx, connectionID, Notification{
		ProgressToken: token,
		Progress:      prog,
		Total:         effectiveTotal,
		Message:       message,
	})
}

// Complete emits a final $/progress notification for token (progress
// equal to its last known total, if any was set) and marks the tracker
// closed (spec §4.8: "emits a terminal notification and marks the
// tracker closed"). Further Update calls against it fail with
// mcperr.ErrTrackerClosed.
func (m *Manager) Complete(ctx context.Context, connectionID string, token interface{}) error {
	k := key{connectionID, token}

	m.mu.Lock()
	t, ok := m.trackers[k]
	if !ok {
		m.mu.Unlock()
		return mcperr.Wrap(mcperr.ErrInvalidParams, mcperr.CategoryProgress, mcperr.CodeInvalidParams,
			fmt.Sprintf("no open progress tracker for token %v", token))
	}
	if t.closed {
		m.mu.Unlock()
		return mcperr.Wrap(mcperr.ErrTrackerClosed, mcperr.CategoryProgress, mcperr.CodeInvalidRequest,
			fmt.Sprintf("progress tracker for token %v already completed", token))
	}
	final := t.progress
	if t.total != nil {
		final = *t.total
	}
	t.progress = final
	t.closed = true
	total := t.total
	m.mu.Unlock()

	if m.sink == nil {
		return nil
	}
	return m.sink(ctx, connectionID, Notification{
		ProgressToken: token,
		Progress:      final,
		Total:         total,
	})
}

// ReleaseConnection drops every tracker owned by connectionID, called
// when a connection closes so its tokens don't linger.
func (m *Manager) ReleaseConnection(connectionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.trackers {
		if k.connectionID == connectionID {
			delete(m.trackers, k)
		}
	}
}

// contextKey is an unexported type so values this package stashes in a
// context never collide with another package's keys.
type contextKey struct{}

type contextValue struct {
	manager      *Manager
	connectionID string
}

// WithManager returns a context carrying manager and connectionID, so
// tool/resource/prompt handlers — which only receive (ctx, arena,
// arguments) per spec §3's handler signatures — can still reach the
// connection's progress tracker via FromContext.
func WithManager(ctx context.Context, manager *Manager, connectionID string) context.Context {
	return context.WithValue(ctx, contextKey{}, contextValue{manager: manager, connectionID: connectionID})
}

// FromContext recovers the Manager and connection id stashed by
// WithManager. ok is false if none was stashed.
func FromContext(ctx context.Context) (manager *Manager, connectionID string, ok bool) {
	v, ok := ctx.Value(contextKey{}).(contextValue)
	if !ok {
		return nil, "", false
	}
	return v.manager, v.connectionID, true
}
