// Package config handles application configuration for the MCP server core:
// framing discipline, size limits, and logging, loaded from YAML with
// sane defaults when no file is present. Grounded in the teacher's
// internal/config/app_config.go (package-level logger, yaml tags, New()
// defaults).
package config

// file: internal/config/config.go

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/mcpcore/mcpcore/internal/logging"
	"gopkg.in/yaml.v3"
)

var logger = logging.GetLogger("config")

// Settings is the root configuration for the MCP server core.
type Settings struct {
	Server  ServerConfig  `yaml:"server"`
	Framing FramingConfig `yaml:"framing"`
	Limits  LimitsConfig  `yaml:"limits"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig carries the identity advertised during the initialize
// handshake (spec §6).
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// FramingConfig selects and configures the wire framing discipline
// (spec §4.1).
type FramingConfig struct {
	// Discipline is "content-length" or "delimiter".
	Discipline string `yaml:"discipline"`
	// Delimiter is the single byte terminating a message under delimiter
	// framing. Defaults to '\n'.
	Delimiter byte `yaml:"delimiter"`
}

// LimitsConfig bounds resource usage per spec §4.1/§4.3.
type LimitsConfig struct {
	// MaxFrameBytes caps a single message under Content-Length framing.
	MaxFrameBytes int64 `yaml:"max_frame_bytes"`
	// ArenaInitialCapacity is the scratch buffer size a freshly grown
	// arena starts with.
	ArenaInitialCapacity int `yaml:"arena_initial_capacity"`
}

// LoggingConfig selects the slog level and format for the default logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

const defaultMaxFrameBytes = 16 * 1024 * 1024 // 16 MiB, per spec §4.1.

// New returns Settings populated with defaults, the way
// internal/config.New() provides a working setup before any file is read.
func New() *Settings {
	logger.Debug("creating configuration settings with defaults")
	return &Settings{
		Server: ServerConfig{
			Name:    "mcpcore",
			Version: "0.1.0",
		},
		Framing: FramingConfig{
			Discipline: "content-length",
			Delimiter:  '\n',
		},
		Limits: LimitsConfig{
			MaxFrameBytes:        defaultMaxFrameBytes,
			ArenaInitialCapacity: 4096,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads and parses a YAML configuration file at path, applying it on
// top of New()'s defaults so a partial file is legal.
func Load(path string) (*Settings, error) {
	settings := New()
	if path == "" {
		logger.Debug("no config path given, using defaults")
		return settings, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is an operator-supplied CLI flag.
	if err != nil {
		return nil, errors.Wrapf(err, "reading config file %q", path)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, errors.Wrapf(err, "parsing config file %q", path)
	}

	if settings.Framing.Delimiter == 0 {
		settings.Framing.Delimiter = '\n'
	}
	if settings.Limits.MaxFrameBytes <= 0 {
		settings.Limits.MaxFrameBytes = defaultMaxFrameBytes
	}

	logger.Info("loaded configuration", "path", path)
	return settings, nil
}
