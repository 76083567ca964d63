package mcp

// file: internal/mcp/lifecycle.go

import (
	"context"

	"github.com/mcpcore/mcpcore/internal/fsm"
	"github.com/mcpcore/mcpcore/internal/logging"
	"github.com/mcpcore/mcpcore/internal/mcperr"
)

// Phase is a server lifecycle state (spec §3/§4.9).
const (
	PhaseUninitialized fsm.State = "uninitialized"
	PhaseInitializing  fsm.State = "initializing"
	PhaseReady         fsm.State = "ready"
	PhaseShuttingDown  fsm.State = "shutting_down"
)

// Lifecycle events.
const (
	eventInitialize  fsm.Event = "initialize"
	eventInitialized fsm.Event = "initialized"
	eventShutdown    fsm.Event = "shutdown"
	eventDisconnect  fsm.Event = "disconnect"
)

// Info identifies a peer in the initialize handshake (spec §6).
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Capabilities is the feature set a peer declares or a server advertises
// during initialize (spec §4.9).
type Capabilities struct {
	Tools     *ToolsCapability     `json:"tools,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
	Prompts   *PromptsCapability   `json:"prompts,omitempty"`
	Logging   *struct{}            `json:"logging,omitempty"`
	Progress  *struct{}            `json:"progress,omitempty"`
}

// ToolsCapability advertises tool-related sub-features.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ResourcesCapability advertises resource-related sub-features.
type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

// PromptsCapability advertises prompt-related sub-features.
type PromptsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// Lifecycle wraps the FSM wrapper (internal/fsm, itself wrapping
// looplab/fsm) with the MCP-specific state machine: Uninitialized →
// Initializing → Ready → ShuttingDown (spec §4.9). Transitions are
// triggered only by the corresponding methods; anything else is
// InvalidLifecycle.
type Lifecycle struct {
	ConnectionID       string
	machine            fsm.FSM
	ClientInfo         *Info
	ClientCapabilities *Capabilities
	ServerInfo         Info
	ServerCapabilities Capabilities
}

// NewLifecycle builds a Lifecycle starting in PhaseUninitialized.
func NewLifecycle(connectionID string, serverInfo Info, serverCaps Capabilities, logger logging.Logger) *Lifecycle {
	l := &Lifecycle{
		ConnectionID:       connectionID,
		ServerInfo:         serverInfo,
		ServerCapabilities: serverCaps,
	}

	m := fsm.NewFSM(PhaseUninitialized, logger)
	m.AddTransition(fsm.Transition{From: []fsm.State{PhaseUninitialized}, To: PhaseInitializing, Event: eventInitialize})
	m.AddTransition(fsm.Transition{From: []fsm.State{PhaseInitializing}, To: PhaseReady, Event: eventInitialized})
	m.AddTransition(fsm.Transition{From: []fsm.State{PhaseReady}, To: PhaseShuttingDown, Event: eventShutdown})
	m.AddTransition(fsm.Transition{
		From:  []fsm.State{PhaseUninitialized, PhaseInitializing, PhaseReady},
		To:    PhaseShuttingDown,
		Event: eventDisconnect,
	})
	if err := m.Build(); err != nil {
		// Transition table above is static and known-valid; a build
		// failure here is a programmer error, not a runtime condition.
		panic("mcp: lifecycle fsm failed to build: " + err.Error())
	}
	l.machine = m
	return l
}

// Phase returns the current lifecycle phase.
func (l *Lifecycle) Phase() fsm.State {
	return l.machine.CurrentState()
}

// HandleInitialize transitions Uninitialized → Initializing, recording
// the peer's declared info/capabilities.
func (l *Lifecycle) HandleInitialize(ctx context.Context, clientInfo *Info, clientCaps *Capabilities) error {
	if err := l.machine.Transition(ctx, eventInitialize, nil); err != nil {
		return mcperr.Wrap(mcperr.ErrNotInitialized, mcperr.CategoryLifecycle, mcperr.CodeNotInitialized,
			"initialize called out of order")
	}
	l.ClientInfo = clientInfo
	l.ClientCapabilities = clientCaps
	return nil
}

// HandleInitialized transitions Initializing → Ready on receipt of the
// "initialized" notification.
func (l *Lifecycle) HandleInitialized(ctx context.Context) error {
	if err := l.machine.Transition(ctx, eventInitialized, nil); err != nil {
		return mcperr.Wrap(mcperr.ErrNotInitialized, mcperr.CategoryLifecycle, mcperr.CodeNotInitialized,
			"initialized notification received out of order")
	}
	return nil
}

// HandleShutdown transitions Ready → ShuttingDown.
func (l *Lifecycle) HandleShutdown(ctx context.Context) error {
	if err := l.machine.Transition(ctx, eventShutdown, nil); err != nil {
		return mcperr.Wrap(mcperr.ErrNotInitialized, mcperr.CategoryLifecycle, mcperr.CodeNotInitialized,
			"shutdown called out of order")
	}
	return nil
}

// HandleDisconnect force-transitions to ShuttingDown on peer disconnect,
// regardless of the current phase.
func (l *Lifecycle) HandleDisconnect(ctx context.Context) {
	_ = l.machine.Transition(ctx, eventDisconnect, nil)
}

// methodsAllowedBeforeReady lists the only methods permitted while
// phase != Ready (spec §3 invariant): initialize and all notifications.
var methodsAllowedBeforeReady = map[string]bool{
	"initialize": true,
}

// Allows reports whether method may be dispatched given the current
// phase. Notifications (isNotification == true) are always allowed —
// the state machine only gates requests.
func (l *Lifecycle) Allows(method string, isNotification bool) bool {
	if isNotification {
		return true
	}
	if l.Phase() == PhaseReady {
		return true
	}
	return methodsAllowedBeforeReady[method]
}
