// Package cmdutil holds flag and setup helpers shared by ragsearch commands.
package cmdutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/elvenok1/servidor-api-rag/pkg/cliui"
	"github.com/elvenok1/servidor-api-rag/pkg/config"
	"github.com/elvenok1/servidor-api-rag/pkg/logger"
)

// Global flag names.
const (
	FlagDebug     = "debug"
	FlagConfigDir = "config-dir"
	FlagLogJSON   = "log-json"
	FlagLogFile   = "log-file"
)

// AddGlobalFlags registers the persistent flags every ragsearch command understands.
func AddGlobalFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.BoolP(FlagDebug, "d", false, "Enable debug logging")
	pf.String(FlagConfigDir, "", "Directory containing config.toml (default: ./.ragsearch or ~/.ragsearch)")
	pf.Bool(FlagLogJSON, false, "Write logs as JSON")
	pf.String(FlagLogFile, "", "Also append JSON logs, with source locations, to this file")
}

// NewLogger builds the command's logger from the global flags. Interactive
// terminals get the pretty handler. With --log-file, records are also
// appended to that file as JSON; the returned func closes it.
func NewLogger(cmd *cobra.Command, w io.Writer) (*slog.Logger, func() error, error) {
	debug, _ := cmd.Flags().GetBool(FlagDebug)
	asJSON, _ := cmd.Flags().GetBool(FlagLogJSON)
	logFile, _ := cmd.Flags().GetString(FlagLogFile)

	console := logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(asJSON),
		logger.WithPretty(!asJSON && cliui.IsTerminal(w)),
		logger.WithWriter(w),
	)
	if logFile == "" {
		return console, func() error { return nil }, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	file := logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithSource(true),
		logger.WithWriter(f),
	)
	return logger.Multi(console, file), f.Close, nil
}

// LoadConfig layers flags, env, config.toml and defaults into a validated Config.
func LoadConfig(cmd *cobra.Command, fs config.FlagSet, registryKeys []string) (*viper.Viper, *config.Config, error) {
	configDir, _ := cmd.Flags().GetString(FlagConfigDir)

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, fs, registryKeys)

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, nil, err
	}
	return v, cfg, nil
}
