// Package main provides the simpleplugin CLI: an interactive console that
// drives the command engine against an in-memory server, plus tools for
// inspecting rules, rendering message templates and checking configuration.
//
// # Basic Usage
//
// Start the console:
//
//	simpleplugin console --config simpleplugin.yaml
//
// Run one command as a player:
//
//	simpleplugin exec --as Steve kick Alex griefing
//
// Look up a stored player record:
//
//	simpleplugin records Steve
//
// Render a message template:
//
//	simpleplugin render --sender Steve '@admin(%s) used %c'
//
// # Environment Variables
//
//   - SIMPLEPLUGIN_CONFIG: path to the configuration file
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	logLevel   string
	envFile    string
}

func buildRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:          "simpleplugin",
		Short:        "Command validation and dispatch engine for game-server plugins",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(flags.envFile, cmd.Flags().Changed("env-file"))
		},
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "",
		"Path to YAML or JSON5 configuration file (or set SIMPLEPLUGIN_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env",
		"Environment file loaded before ${VAR} expansion in the config")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "",
		"Override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		buildConsoleCmd(flags),
		buildExecCmd(flags),
		buildRulesCmd(flags),
		buildRenderCmd(flags),
		buildRecordsCmd(flags),
		buildConfigCmd(flags),
		buildVersionCmd(),
	)
	return rootCmd
}

// loadEnvFile sets variables from path without overriding the environment.
// A missing file is only an error when it was asked for explicitly.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}
