// Package connection implements the transport-agnostic connection loop
// (spec §4.10): for each accepted byte-stream pair, repeatedly acquire
// an arena, read one frame, parse it as JSON-RPC, dispatch it, build a
// response, write the frame, and release the arena. Grounded in the
// teacher's stdio server loop (internal/jsonrpc/stdio_transport.go's
// read-dispatch-write cycle) but decoupled from any one framing or
// transport, since spec §4.1 requires both Content-Length and
// delimiter framing to share one connection-loop implementation.
package connection

// file: internal/connection/connection.go

import (
	"context"
	"encoding/json"
	"sync"

	cerrors "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/mcpcore/mcpcore/internal/arena"
	"github.com/mcpcore/mcpcore/internal/dispatch"
	"github.com/mcpcore/mcpcore/internal/framing"
	"github.com/mcpcore/mcpcore/internal/jsonrpc"
	"github.com/mcpcore/mcpcore/internal/logging"
	"github.com/mcpcore/mcpcore/internal/mcperr"
)

// Lifecycle is the subset of *mcp.Lifecycle the loop needs to force
// shutdown on disconnect, declared here so the loop does not depend on
// the mcp package.
type Lifecycle interface {
	HandleDisconnect(ctx context.Context)
}

// Loop runs the read-dispatch-write cycle for one connection (spec
// §4.10). Requests on one Loop are strictly serialized; separate Loops
// run concurrently on separate goroutines (spec §5's one-worker-per-
// connection scheduling model).
type Loop struct {
	ID         string
	framing    framing.Framing
	dispatcher *dispatch.Dispatcher
	pool       *arena.Pool
	lifecycle  Lifecycle
	logger     logging.Logger
	writeMu    sync.Mutex
}

// New builds a Loop with a freshly minted connection id (spec §4's
// ConnectionID, via google/uuid). d may be nil and supplied later via
// SetDispatcher — this lets callers wire handlers that themselves need
// a reference back to the Loop (e.g. a resources/subscribe handler that
// calls Notify) before Run starts.
func New(f framing.Framing, d *dispatch.Dispatcher, pool *arena.Pool, lifecycle Lifecycle, logger logging.Logger) *Loop {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	id := uuid.NewString()
	return &Loop{
		ID:         id,
		framing:    f,
		dispatcher: d,
		pool:       pool,
		lifecycle:  lifecycle,
		logger:     logger.WithField("connection_id", id),
	}
}

// SetDispatcher attaches (or replaces) the Loop's dispatcher. Must be
// called before Run.
func (l *Loop) SetDispatcher(d *dispatch.Dispatcher) {
	l.dispatcher = d
}

// Notify sends an outbound notification (spec §4's outbound
// $/progress and notifications/resources/updated messages), serialized
// against concurrent response writes by the same mutex WriteMessage
// uses for request responses (spec §5 ordering guarantee).
func (l *Loop) Notify(method string, params interface{}) error {
	payload, err := jsonrpc.BuildNotification(method, params)
	if err != nil {
		return err
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.framing.WriteMessage(payload)
}

// Run drives the loop until the stream closes or a write fails. It
// never returns an error — every terminal condition is logged and the
// loop simply stops, matching spec §4.10's "terminate silently"/
// "terminate with info log" contract.
func (l *Loop) Run(ctx context.Context) {
	defer l.lifecycle.HandleDisconnect(ctx)

	for {
		if ctx.Err() != nil {
			return
		}
		if !l.step(ctx) {
			return
		}
	}
}

// step runs one full acquire→read→parse→dispatch→write→release cycle.
// It returns false when the loop must terminate.
func (l *Loop) step(ctx context.Context) bool {
	a := l.pool.Acquire()
	defer l.pool.Release(a)

	raw, err := l.framing.ReadMessage()
	if err != nil {
		return l.handleReadError(err)
	}

	items, isBatch, parseErr := jsonrpc.Parse(raw)
	if parseErr != nil {
		return l.writeParseError(parseErr)
	}

	responses := make([][]byte, 0, len(items))
	for _, item := range items {
		resp := l.dispatchItem(ctx, a, item)
		if resp != nil {
			responses = append(responses, resp)
		}
	}

	return l.writeResponses(responses, isBatch)
}

// dispatchItem dispatches one parsed item and returns its serialized
// response, or nil for notifications (whose outcome is discarded per
// spec §4.4/§4.10).
func (l *Loop) dispatchItem(ctx context.Context, a *arena.Arena, item *jsonrpc.Item) []byte {
	if item.Err != nil {
		if item.IsNotification() {
			return nil
		}
		resp, _ := jsonrpc.BuildErrorFromErr(item.ID, item.Err)
		return resp
	}

	result := l.dispatcher.Dispatch(ctx, a, item.Method, item.Params, item.IsNotification())
	if item.IsNotification() {
		return nil
	}
	if result.Err != nil {
		resp, _ := jsonrpc.BuildErrorFromErr(item.ID, result.Err)
		return resp
	}
	var payload interface{} = json.RawMessage(result.Payload)
	if len(result.Payload) == 0 {
		payload = struct{}{}
	}
	resp, buildErr := jsonrpc.BuildResult(item.ID, payload)
	if buildErr != nil {
		resp, _ = jsonrpc.BuildErrorFromErr(item.ID, buildErr)
	}
	return resp
}

// writeResponses serializes responses back to the peer, respecting
// batch-vs-single framing (spec §4.2): a single non-batch request with
// no response (a notification) writes nothing at all.
func (l *Loop) writeResponses(responses [][]byte, isBatch bool) bool {
	if len(responses) == 0 {
		return true
	}

	var out []byte
	var err error
	if isBatch {
		out, err = jsonrpc.BuildBatch(responses)
	} else {
		out = responses[0]
	}
	if err != nil {
		l.logger.Error("connection: failed to build response batch", "error", err)
		return true
	}
	if out == nil {
		return true
	}

	l.writeMu.Lock()
	writeErr := l.framing.WriteMessage(out)
	l.writeMu.Unlock()
	if writeErr != nil {
		l.logger.Info("connection: write failed, terminating loop", "error", writeErr)
		return false
	}
	return true
}

// writeParseError emits a top-level −32700 for a batch/message that
// failed to parse as JSON at all.
func (l *Loop) writeParseError(parseErr error) bool {
	resp, buildErr := jsonrpc.BuildErrorFromErr(nil, parseErr)
	if buildErr != nil {
		l.logger.Error("connection: failed to build parse-error response", "error", buildErr)
		return true
	}
	l.writeMu.Lock()
	writeErr := l.framing.WriteMessage(resp)
	l.writeMu.Unlock()
	if writeErr != nil {
		l.logger.Info("connection: write failed after parse error, terminating loop", "error", writeErr)
		return false
	}
	return true
}

// handleReadError classifies a framing read failure per spec §4.10:
// clean EOF terminates silently, a malformed frame gets a −32700
// response (loop continues if the write succeeds), anything else is
// treated as a broken connection and terminates with an info log.
func (l *Loop) handleReadError(err error) bool {
	if cerrors.Is(err, mcperr.ErrEndOfStream) {
		return false
	}
	if cerrors.Is(err, mcperr.ErrMalformedFrame) {
		return l.writeParseError(err)
	}
	l.logger.Info("connection: read failed, terminating loop", "error", err)
	return false
}
