package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mcpcore/mcpcore/internal/arena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type alwaysAllow struct{}

func (alwaysAllow) Allows(string, bool) bool { return true }

type neverAllow struct{}

func (neverAllow) Allows(string, bool) bool { return false }

func TestDispatchInvokesRegisteredHandler(t *testing.T) {
	d := New(alwaysAllow{})
	d.Handle("ping", func(context.Context, *arena.Arena, json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`"pong"`), nil
	})
	result := d.Dispatch(context.Background(), nil, "ping", nil, false)
	require.NoError(t, result.Err)
	assert.Equal(t, `"pong"`, string(result.Payload))
}

func TestDispatchUnknownMethodReturnsError(t *testing.T) {
	d := New(alwaysAllow{})
	result := d.Dispatch(context.Background(), nil, "nope", nil, false)
	assert.Error(t, result.Err)
}

func TestDispatchFallbackRunsWhenNoHandler(t *testing.T) {
	d := New(alwaysAllow{})
	d.OnFallback("", func(context.Context, string) Result {
		return Result{Payload: json.RawMessage(`"fallback"`)}
	})
	result := d.Dispatch(context.Background(), nil, "nope", nil, false)
	require.NoError(t, result.Err)
	assert.Equal(t, `"fallback"`, string(result.Payload))
}

func TestDispatchGateRejectsBeforeReady(t *testing.T) {
	d := New(neverAllow{})
	d.Handle("tools/list", func(context.Context, *arena.Arena, json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`[]`), nil
	})
	result := d.Dispatch(context.Background(), nil, "tools/list", nil, false)
	assert.Error(t, result.Err)
}

func TestDispatchHookOrdering(t *testing.T) {
	d := New(alwaysAllow{})
	var order []string
	d.Handle("m", func(context.Context, *arena.Arena, json.RawMessage) (json.RawMessage, error) {
		order = append(order, "handler")
		return nil, nil
	})
	d.OnBefore("m", func(context.Context, string) error {
		order = append(order, "before-method")
		return nil
	})
	d.OnBefore("", func(context.Context, string) error {
		order = append(order, "before-global")
		return nil
	})
	d.OnAfter("m", func(context.Context, string, json.RawMessage) {
		order = append(order, "after-method")
	})
	d.OnAfter("", func(context.Context, string, json.RawMessage) {
		order = append(order, "after-global")
	})

	result := d.Dispatch(context.Background(), nil, "m", nil, false)
	require.NoError(t, result.Err)
	assert.Equal(t, []string{"before-method", "before-global", "handler", "after-global", "after-method"}, order)
}

func TestDispatchErrorHookOverridesDefaultMapping(t *testing.T) {
	d := New(alwaysAllow{})
	d.Handle("m", func(context.Context, *arena.Arena, json.RawMessage) (json.RawMessage, error) {
		return nil, errors.New("boom")
	})
	d.OnError("m", func(context.Context, string, error) Result {
		return Result{Payload: json.RawMessage(`"recovered"`)}
	})
	result := d.Dispatch(context.Background(), nil, "m", nil, false)
	require.NoError(t, result.Err)
	assert.Equal(t, `"recovered"`, string(result.Payload))
}

func TestDispatchUncaughtErrorMapsThroughTaxonomy(t *testing.T) {
	d := New(alwaysAllow{})
	d.Handle("m", func(context.Context, *arena.Arena, json.RawMessage) (json.RawMessage, error) {
		return nil, errors.New("boom")
	})
	result := d.Dispatch(context.Background(), nil, "m", nil, false)
	assert.Error(t, result.Err)
}

func TestDispatchBeforeHookErrorAbortsHandler(t *testing.T) {
	d := New(alwaysAllow{})
	called := false
	d.Handle("m", func(context.Context, *arena.Arena, json.RawMessage) (json.RawMessage, error) {
		called = true
		return nil, nil
	})
	d.OnBefore("m", func(context.Context, string) error {
		return errors.New("blocked")
	})
	result := d.Dispatch(context.Background(), nil, "m", nil, false)
	assert.Error(t, result.Err)
	assert.False(t, called)
}
