// file: cmd/mcpcored/validate.go
package main

import (
	"fmt"

	"github.com/mcpcore/mcpcore/internal/config"
	"github.com/spf13/cobra"
)

var validateConfigPath string

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Load a config file and report whether it parses, without starting the server",
	RunE:  runValidateConfig,
}

func init() {
	validateConfigCmd.Flags().StringVar(&validateConfigPath, "config", "", "path to a YAML config file")
}

func runValidateConfig(cmd *cobra.Command, args []string) error {
	if validateConfigPath == "" {
		return fmt.Errorf("validate-config requires --config")
	}
	settings, err := config.Load(validateConfigPath)
	if err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	cmd.Printf("config OK: server=%q framing=%q max_frame_bytes=%d\n",
		settings.Server.Name, settings.Framing.Discipline, settings.Limits.MaxFrameBytes)
	return nil
}
