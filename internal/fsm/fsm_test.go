package fsm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stateUninitialized State = "uninitialized"
	stateInitializing  State = "initializing"
	stateReady         State = "ready"
	stateShuttingDown  State = "shutting_down"
)

const (
	evInitialize  Event = "initialize"
	evInitialized Event = "initialized"
	evShutdown    Event = "shutdown"
)

func buildLifecycleFSM(t *testing.T) FSM {
	t.Helper()
	m := NewFSM(stateUninitialized, nil)
	m.AddTransition(Transition{From: []State{stateUninitialized}, To: stateInitializing, Event: evInitialize})
	m.AddTransition(Transition{From: []State{stateInitializing}, To: stateReady, Event: evInitialized})
	m.AddTransition(Transition{From: []State{stateReady}, To: stateShuttingDown, Event: evShutdown})
	require.NoError(t, m.Build())
	return m
}

func TestLifecycleHappyPath(t *testing.T) {
	m := buildLifecycleFSM(t)
	assert.Equal(t, stateUninitialized, m.CurrentState())

	require.NoError(t, m.Transition(context.Background(), evInitialize, nil))
	assert.Equal(t, stateInitializing, m.CurrentState())

	require.NoError(t, m.Transition(context.Background(), evInitialized, nil))
	assert.Equal(t, stateReady, m.CurrentState())

	require.NoError(t, m.Transition(context.Background(), evShutdown, nil))
	assert.Equal(t, stateShuttingDown, m.CurrentState())
}

func TestOutOfOrderTransitionFails(t *testing.T) {
	m := buildLifecycleFSM(t)
	// initialized before initialize: out of order.
	err := m.Transition(context.Background(), evInitialized, nil)
	assert.Error(t, err)
	assert.Equal(t, stateUninitialized, m.CurrentState())
}

func TestDoubleInitializeFails(t *testing.T) {
	m := buildLifecycleFSM(t)
	require.NoError(t, m.Transition(context.Background(), evInitialize, nil))
	require.NoError(t, m.Transition(context.Background(), evInitialized, nil))

	err := m.Transition(context.Background(), evInitialize, nil)
	assert.Error(t, err)
	assert.Equal(t, stateReady, m.CurrentState())
}

func TestGuardConditionBlocksTransition(t *testing.T) {
	m := NewFSM(stateUninitialized, nil)
	m.AddTransition(Transition{
		From:      []State{stateUninitialized},
		To:        stateInitializing,
		Event:     evInitialize,
		Condition: func(context.Context, Event, interface{}) bool { return false },
	})
	require.NoError(t, m.Build())

	err := m.Transition(context.Background(), evInitialize, "payload")
	assert.Error(t, err)
	assert.Equal(t, stateUninitialized, m.CurrentState())
}

func TestActionRunsOnSuccessfulTransition(t *testing.T) {
	var ran bool
	m := NewFSM(stateUninitialized, nil)
	m.AddTransition(Transition{
		From:  []State{stateUninitialized},
		To:    stateInitializing,
		Event: evInitialize,
		Action: func(context.Context, Event, interface{}) error {
			ran = true
			return nil
		},
	})
	require.NoError(t, m.Build())
	require.NoError(t, m.Transition(context.Background(), evInitialize, nil))
	assert.True(t, ran)
}
