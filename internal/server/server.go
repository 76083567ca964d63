// Package server ties the lifecycle state machine, the three primitive
// registries, the method dispatcher, the progress tracker, and the
// connection loop together into one running MCP server (spec §4
// collectively, §6's method table). It exists specifically so that
// internal/mcp's domain types and internal/registry/* (which import
// internal/mcp) can both be imported here without an import cycle —
// internal/mcp intentionally knows nothing about dispatch or
// connection wiring.
//
// Grounded in the teacher's deleted internal/server package, which
// played the same wiring role for its RTM handlers; this rebuild keeps
// that "one type per running server, accept loop spins up per-
// connection state" shape but wires MCP primitives instead of RTM ones.
package server

// file: internal/server/server.go

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/mcpcore/mcpcore/internal/arena"
	"github.com/mcpcore/mcpcore/internal/connection"
	"github.com/mcpcore/mcpcore/internal/dispatch"
	"github.com/mcpcore/mcpcore/internal/framing"
	"github.com/mcpcore/mcpcore/internal/logging"
	"github.com/mcpcore/mcpcore/internal/mcp"
	"github.com/mcpcore/mcpcore/internal/mcperr"
	"github.com/mcpcore/mcpcore/internal/metrics"
	"github.com/mcpcore/mcpcore/internal/progress"
	"github.com/mcpcore/mcpcore/internal/registry/prompt"
	"github.com/mcpcore/mcpcore/internal/registry/resource"
	"github.com/mcpcore/mcpcore/internal/registry/tool"
)

// FramingKind selects which of the two wire framings (spec §4.1) a
// connection uses.
type FramingKind string

// Supported framing kinds.
const (
	FramingContentLength FramingKind = "content-length"
	FramingDelimiter      FramingKind = "delimiter"
)

// Server bundles the shared, cross-connection state: the registries,
// the progress manager, and metrics. One Server accepts any number of
// connections concurrently (spec §5's one-worker-per-connection model).
type Server struct {
	Info       mcp.Info
	Caps       mcp.Capabilities
	Tools      *tool.Registry
	Resources  *resource.Registry
	Prompts    *prompt.Registry
	Progress   *progress.Manager
	Metrics    *metrics.Metrics
	Logger     logging.Logger
	MaxFrame   int64
}

// New builds a Server. m may be nil, which disables metric recording; a
// nil logger falls back to the no-op logger. Progress is left nil, in
// which case Serve builds a per-connection Manager whose sink writes
// $/progress notifications to that connection.
func New(info mcp.Info, caps mcp.Capabilities, tools *tool.Registry, resources *resource.Registry, prompts *prompt.Registry, m *metrics.Metrics, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &Server{
		Info:      info,
		Caps:      caps,
		Tools:     tools,
		Resources: resources,
		Prompts:   prompts,
		Metrics:   m,
		Logger:    logger,
	}
}

// Serve accepts one connection over rw using the given framing kind
// and runs its loop until the stream closes. Blocks until Run returns.
func (s *Server) Serve(ctx context.Context, rw io.ReadWriter, kind FramingKind, arenaPool *arena.Pool) {
	var f framing.Framing
	switch kind {
	case FramingDelimiter:
		f = framing.NewDelimiterFraming(rw, rw, 0)
	default:
		f = framing.NewContentLengthFraming(rw, rw, s.MaxFrame)
	}

	lifecycle := mcp.NewLifecycle("", s.Info, s.Caps, s.Logger)
	loop := connection.New(f, nil, arenaPool, lifecycle, s.Logger)
	lifecycle.ConnectionID = loop.ID

	progressMgr := s.Progress
	if progressMgr == nil {
		progressMgr = progress.NewManager(func(ctx context.Context, _ string, n progress.Notification) error {
			return loop.Notify("$/progress", n)
		})
	}
	defer progressMgr.ReleaseConnection(loop.ID)

	d := s.buildDispatcher(lifecycle, loop)
	loop.SetDispatcher(d)

	if s.Metrics != nil {
		s.Metrics.ConnectionOpened()
		defer s.Metrics.ConnectionClosed()
	}

	// Tool/resource/prompt handlers only receive (ctx, arena, arguments)
	// per spec §3's handler signatures, so this connection's progress
	// manager and id ride along on the context instead of a wider
	// handler signature.
	loop.Run(progress.WithManager(ctx, progressMgr, loop.ID))
}

// buildDispatcher wires every MCP method from spec §6's table to its
// registry/lifecycle collaborator.
func (s *Server) buildDispatcher(lifecycle *mcp.Lifecycle, loop *connection.Loop) *dispatch.Dispatcher {
	d := dispatch.New(lifecycle)

	if s.Metrics != nil {
		// Requests on one connection's Dispatcher are strictly serialized
		// (spec §4.10), so a single closure-captured timestamp safely
		// bridges on_before to on_after without threading state through
		// the dispatcher's hook signatures.
		var start time.Time
		d.OnBefore("", func(_ context.Context, method string) error {
			s.Metrics.RequestsTotal.WithLabelValues(method).Inc()
			start = time.Now()
			return nil
		})
		d.OnAfter("", func(_ context.Context, method string, _ json.RawMessage) {
			s.Metrics.DispatchDurationSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())
		})
	}

	d.Handle("initialize", s.handleInitialize(lifecycle))
	d.Handle("initialized", s.handleInitialized(lifecycle))
	d.Handle("shutdown", s.handleShutdown(lifecycle))
	d.Handle("tools/list", s.handleToolsList())
	d.Handle("tools/call", s.handleToolsCall())
	d.Handle("resources/list", s.handleResourcesList())
	d.Handle("resources/read", s.handleResourcesRead())
	d.Handle("resources/subscribe", s.handleResourcesSubscribe(loop))
	d.Handle("resources/unsubscribe", s.handleResourcesUnsubscribe(loop))
	d.Handle("prompts/list", s.handlePromptsList())
	d.Handle("prompts/get", s.handlePromptsGet())

	return d
}

func (s *Server) handleInitialize(lifecycle *mcp.Lifecycle) dispatch.Handler {
	return func(ctx context.Context, _ *arena.Arena, params json.RawMessage) (json.RawMessage, error) {
		var req struct {
			ClientInfo   *mcp.Info         `json:"clientInfo"`
			Capabilities *mcp.Capabilities `json:"capabilities"`
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &req); err != nil {
				return nil, mcperr.Wrap(err, mcperr.CategoryRPC, mcperr.CodeInvalidParams, "invalid initialize params")
			}
		}
		if err := lifecycle.HandleInitialize(ctx, req.ClientInfo, req.Capabilities); err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			ProtocolVersion string             `json:"protocolVersion"`
			Capabilities    mcp.Capabilities   `json:"capabilities"`
			ServerInfo      mcp.Info           `json:"serverInfo"`
		}{
			ProtocolVersion: mcp.ProtocolVersion,
			Capabilities:    lifecycle.ServerCapabilities,
			ServerInfo:      lifecycle.ServerInfo,
		})
	}
}

func (s *Server) handleInitialized(lifecycle *mcp.Lifecycle) dispatch.Handler {
	return func(ctx context.Context, _ *arena.Arena, _ json.RawMessage) (json.RawMessage, error) {
		return nil, lifecycle.HandleInitialized(ctx)
	}
}

func (s *Server) handleShutdown(lifecycle *mcp.Lifecycle) dispatch.Handler {
	return func(ctx context.Context, _ *arena.Arena, _ json.RawMessage) (json.RawMessage, error) {
		if err := lifecycle.HandleShutdown(ctx); err != nil {
			return nil, err
		}
		return json.RawMessage(`{}`), nil
	}
}

func (s *Server) handleToolsList() dispatch.Handler {
	return func(_ context.Context, _ *arena.Arena, _ json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(struct {
			Tools []mcp.ToolDescriptor `json:"tools"`
		}{Tools: s.Tools.List()})
	}
}

func (s *Server) handleToolsCall() dispatch.Handler {
	return func(ctx context.Context, a *arena.Arena, params json.RawMessage) (json.RawMessage, error) {
		var req struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, mcperr.Wrap(err, mcperr.CategoryRPC, mcperr.CodeInvalidParams, "invalid tools/call params")
		}
		result, err := s.Tools.Call(ctx, a, req.Name, req.Arguments)
		if err != nil {
			return nil, err
		}
		if s.Metrics != nil {
			s.Metrics.RecordToolCall(req.Name, result.IsError)
		}
		return json.Marshal(result)
	}
}

func (s *Server) handleResourcesList() dispatch.Handler {
	return func(_ context.Context, _ *arena.Arena, _ json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(struct {
			Resources []mcp.ResourceDescriptor `json:"resources"`
		}{Resources: s.Resources.List()})
	}
}

func (s *Server) handleResourcesRead() dispatch.Handler {
	return func(ctx context.Context, a *arena.Arena, params json.RawMessage) (json.RawMessage, error) {
		var req struct {
			URI string `json:"uri"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, mcperr.Wrap(err, mcperr.CategoryRPC, mcperr.CodeInvalidParams, "invalid resources/read params")
		}
		content, err := s.Resources.Read(ctx, a, req.URI)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Contents []*mcp.ResourceContent `json:"contents"`
		}{Contents: []*mcp.ResourceContent{content}})
	}
}

func (s *Server) handleResourcesSubscribe(loop *connection.Loop) dispatch.Handler {
	return func(_ context.Context, _ *arena.Arena, params json.RawMessage) (json.RawMessage, error) {
		var req struct {
			URI string `json:"uri"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, mcperr.Wrap(err, mcperr.CategoryRPC, mcperr.CodeInvalidParams, "invalid resources/subscribe params")
		}
		// The connection id doubles as the subscription's callback id: one
		// connection keeps exactly one outbound notifier per uri, so a
		// second subscribe from the same connection to the same uri is the
		// idempotent re-subscribe spec §4.6 requires.
		err := s.Resources.Subscribe(req.URI, loop.ID, func(_ context.Context, _ *arena.Arena, uri string) {
			if notifyErr := loop.Notify("notifications/resources/updated", map[string]string{"uri": uri}); notifyErr != nil {
				s.Logger.Info("failed to deliver resource update notification", "uri", uri, "error", notifyErr)
			}
		})
		if err != nil {
			return nil, err
		}
		return json.RawMessage(`{}`), nil
	}
}

func (s *Server) handleResourcesUnsubscribe(loop *connection.Loop) dispatch.Handler {
	return func(_ context.Context, _ *arena.Arena, params json.RawMessage) (json.RawMessage, error) {
		var req struct {
			URI string `json:"uri"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, mcperr.Wrap(err, mcperr.CategoryRPC, mcperr.CodeInvalidParams, "invalid resources/unsubscribe params")
		}
		s.Resources.Unsubscribe(req.URI, loop.ID)
		return json.RawMessage(`{}`), nil
	}
}

func (s *Server) handlePromptsList() dispatch.Handler {
	return func(_ context.Context, _ *arena.Arena, _ json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(struct {
			Prompts []mcp.PromptDescriptor `json:"prompts"`
		}{Prompts: s.Prompts.List()})
	}
}

func (s *Server) handlePromptsGet() dispatch.Handler {
	return func(ctx context.Context, a *arena.Arena, params json.RawMessage) (json.RawMessage, error) {
		var req struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, mcperr.Wrap(err, mcperr.CategoryRPC, mcperr.CodeInvalidParams, "invalid prompts/get params")
		}
		result, err := s.Prompts.Get(ctx, a, req.Name, req.Arguments)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	}
}
