package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLifecycle() *Lifecycle {
	return NewLifecycle("conn-1", Info{Name: "test-server", Version: "0.0.1"}, Capabilities{}, nil)
}

func TestLifecycleHappyPath(t *testing.T) {
	l := newTestLifecycle()
	assert.Equal(t, PhaseUninitialized, l.Phase())

	require.NoError(t, l.HandleInitialize(context.Background(), &Info{Name: "client"}, &Capabilities{}))
	assert.Equal(t, PhaseInitializing, l.Phase())

	require.NoError(t, l.HandleInitialized(context.Background()))
	assert.Equal(t, PhaseReady, l.Phase())

	require.NoError(t, l.HandleShutdown(context.Background()))
	assert.Equal(t, PhaseShuttingDown, l.Phase())
}

func TestDoubleInitializeFails(t *testing.T) {
	l := newTestLifecycle()
	require.NoError(t, l.HandleInitialize(context.Background(), nil, nil))
	require.NoError(t, l.HandleInitialized(context.Background()))

	err := l.HandleInitialize(context.Background(), nil, nil)
	assert.Error(t, err)
	assert.Equal(t, PhaseReady, l.Phase())
}

func TestAllowsGatesNonInitializeRequestsBeforeReady(t *testing.T) {
	l := newTestLifecycle()
	assert.True(t, l.Allows("initialize", false))
	assert.False(t, l.Allows("tools/list", false))
	assert.True(t, l.Allows("notifications/anything", true))

	require.NoError(t, l.HandleInitialize(context.Background(), nil, nil))
	require.NoError(t, l.HandleInitialized(context.Background()))
	assert.True(t, l.Allows("tools/list", false))
}

func TestDisconnectForcesShutdownFromAnyPhase(t *testing.T) {
	l := newTestLifecycle()
	l.HandleDisconnect(context.Background())
	assert.Equal(t, PhaseShuttingDown, l.Phase())
}
