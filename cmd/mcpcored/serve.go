// file: cmd/mcpcored/serve.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mcpcore/mcpcore/internal/arena"
	"github.com/mcpcore/mcpcore/internal/config"
	"github.com/mcpcore/mcpcore/internal/logging"
	"github.com/mcpcore/mcpcore/internal/mcp"
	"github.com/mcpcore/mcpcore/internal/metrics"
	"github.com/mcpcore/mcpcore/internal/registry/prompt"
	"github.com/mcpcore/mcpcore/internal/registry/resource"
	"github.com/mcpcore/mcpcore/internal/registry/tool"
	"github.com/mcpcore/mcpcore/internal/schema"
	"github.com/mcpcore/mcpcore/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	serveConfigPath string
	serveTransport  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio, reading/writing framed JSON-RPC",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "path to a YAML config file")
	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "override the configured framing discipline (content-length|delimiter)")
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewSlogLogger(nil)

	tools := tool.New()
	resources := resource.New(false, arena.NewPool(settings.Limits.ArenaInitialCapacity), logger)
	prompts := prompt.New(logger)
	registerBuiltinEcho(tools)

	m := metrics.New(prometheus.DefaultRegisterer)

	srv := server.New(
		mcp.Info{Name: settings.Server.Name, Version: settings.Server.Version},
		mcp.Capabilities{
			Tools:   &mcp.ToolsCapability{},
			Prompts: &mcp.PromptsCapability{},
		},
		tools, resources, prompts, m, logger,
	)
	srv.MaxFrame = settings.Limits.MaxFrameBytes

	kind := server.FramingContentLength
	discipline := settings.Framing.Discipline
	if serveTransport != "" {
		discipline = serveTransport
	}
	if discipline == "delimiter" {
		kind = server.FramingDelimiter
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if serveConfigPath != "" {
		go func() {
			if err := config.WatchFile(ctx, serveConfigPath, func(reloaded *config.Settings) {
				srv.MaxFrame = reloaded.Limits.MaxFrameBytes
			}); err != nil {
				logger.Warn("config watch stopped", "error", err)
			}
		}()
	}

	logger.Info("starting mcpcored", "transport", string(kind), "name", settings.Server.Name)
	srv.Serve(ctx, stdioReadWriter{}, kind, arena.NewPool(settings.Limits.ArenaInitialCapacity))
	return nil
}

// stdioReadWriter adapts os.Stdin/os.Stdout to the single io.ReadWriter
// server.Serve expects for one connection.
type stdioReadWriter struct{}

func (stdioReadWriter) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioReadWriter) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

// registerBuiltinEcho gives a freshly started server one trivial tool so
// `mcpcored serve` is immediately useful against a bare client without
// external tool wiring; real deployments register their own tools before
// calling server.New in their own main.
func registerBuiltinEcho(tools *tool.Registry) {
	_ = tools.Register(mcp.Tool{
		Name:        "echo",
		Description: "echoes the text argument back as a text content block",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`),
		Handler: func(_ context.Context, _ *arena.Arena, arguments json.RawMessage) (json.RawMessage, error) {
			var args struct {
				Text string `json:"text"`
			}
			if err := schema.Decode(arguments, &args); err != nil {
				return nil, err
			}
			return json.Marshal([]mcp.Content{mcp.TextContent(args.Text)})
		},
	})
}
