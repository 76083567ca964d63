package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReturnsWorkingDefaults(t *testing.T) {
	settings := New()
	assert.Equal(t, "mcpcore", settings.Server.Name)
	assert.Equal(t, "content-length", settings.Framing.Discipline)
	assert.EqualValues(t, '\n', settings.Framing.Delimiter)
	assert.Positive(t, settings.Limits.MaxFrameBytes)
}

func TestLoadNoPathReturnsDefaults(t *testing.T) {
	settings, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, New(), settings)
}

func TestLoadPartialFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  name: custom-server\n"), 0o600))

	settings, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom-server", settings.Server.Name)
	assert.Equal(t, "content-length", settings.Framing.Discipline) // default retained
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
