package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectingSink(out *[]Notification) Sink {
	return func(_ context.Context, _ string, n Notification) error {
		*out = append(*out, n)
		return nil
	}
}

func TestStartThenUpdateEmitsNotification(t *testing.T) {
	var got []Notification
	m := NewManager(collectingSink(&got))

	require.NoError(t, m.Start("conn-1", "tok-1"))
	require.NoError(t, m.Update(context.Background(), "conn-1", "tok-1", 0.5, "halfway", nil))
	require.Len(t, got, 1)
	assert.Equal(t, 0.5, got[0].Progress)
	assert.Equal(t, "halfway", got[0].Message)
}

func TestStartRejectsReuseOfOpenToken(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Start("conn-1", "tok-1"))
	err := m.Start("conn-1", "tok-1")
	assert.Error(t, err)
}

func TestStartAllowsReuseAfterComplete(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Start("conn-1", "tok-1"))
	require.NoError(t, m.Complete(context.Background(), "conn-1", "tok-1"))
	assert.NoError(t, m.Start("conn-1", "tok-1"))
}

func TestCompleteEmitsTerminalNotification(t *testing.T) {
	var got []Notification
	m := NewManager(collectingSink(&got))
	require.NoError(t, m.Start("conn-1", "tok-1"))
	require.NoError(t, m.Update(context.Background(), "conn-1", "tok-1", 0.5, "halfway", nil))
	require.NoError(t, m.Complete(context.Background(), "conn-1", "tok-1"))

	require.Len(t, got, 2)
	assert.Equal(t, 0.5, got[1].Progress)
}

func TestCompleteTwiceFails(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Start("conn-1", "tok-1"))
	require.NoError(t, m.Complete(context.Background(), "conn-1", "tok-1"))
	err := m.Complete(context.Background(), "conn-1", "tok-1")
	assert.Error(t, err)
}

func TestUpdateRejectsDecreasingProgress(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Start("conn-1", "tok-1"))
	require.NoError(t, m.Update(context.Background(), "conn-1", "tok-1", 0.5, "", nil))
	err := m.Update(context.Background(), "conn-1", "tok-1", 0.4, "", nil)
	assert.Error(t, err)
}

func TestUpdateAfterCompleteFails(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Start("conn-1", "tok-1"))
	require.NoError(t, m.Complete(context.Background(), "conn-1", "tok-1"))
	err := m.Update(context.Background(), "conn-1", "tok-1", 0.1, "", nil)
	assert.Error(t, err)
}

func TestUpdateRejectsOutOfRangeAgainstTotal(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Start("conn-1", "tok-1"))
	total := 10.0
	err := m.Update(context.Background(), "conn-1", "tok-1", 11, "", &total)
	assert.Error(t, err)
}

func TestReleaseConnectionDropsItsTrackers(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Start("conn-1", "tok-1"))
	m.ReleaseConnection("conn-1")
	assert.NoError(t, m.Start("conn-1", "tok-1"))
}

func TestTokensAreScopedPerConnection(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Start("conn-1", "tok-1"))
	assert.NoError(t, m.Start("conn-2", "tok-1"))
}
