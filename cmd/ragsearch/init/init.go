// Package initcmder provides the init command for initializing a local
// .ragsearch directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elvenok1/servidor-api-rag/pkg/config"
	"github.com/elvenok1/servidor-api-rag/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .ragsearch/ directory in the current working directory.

Creates a local .ragsearch/ directory with a config.toml that takes precedence
over ~/.ragsearch/. An existing config.toml is never overwritten.

Presets:
  ollama   Ollama embeddings (all-minilm, 384 dimensions) and Qdrant (default)
  openai   OpenAI embeddings (text-embedding-3-small, 1536 dimensions) and Qdrant
  local    Ollama embeddings and a local sqlite-vec database

Examples:
  ragsearch init
  ragsearch init --preset local`

const initShortDesc string = "Initialize a local .ragsearch/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout(), preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Config preset ("+strings.Join(config.ValidPresetNames(), ", ")+")")

	return cmd
}

func runInit(w io.Writer, preset string) error {
	cfg := config.NewDefaultConfig()
	if preset != "" {
		var err error
		cfg, err = config.PresetConfig(preset)
		if err != nil {
			return err
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir, err := dotdir.NewManager().Init(cwd)
	if err != nil {
		return err
	}

	configPath := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(w, "Already initialized: %s\n", dir)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(w, "Initialized .ragsearch directory: %s\n", dir)
	return nil
}
