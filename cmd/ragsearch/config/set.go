package configcmder

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elvenok1/servidor-api-rag/pkg/cliui"
	"github.com/elvenok1/servidor-api-rag/cmd/ragsearch/cmdutil"
	"github.com/elvenok1/servidor-api-rag/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file
stored in the .ragsearch/ directory. Keys use dotted notation matching
the TOML section structure. Run "ragsearch init" first if no
.ragsearch/ directory exists yet.

Examples:
  ragsearch config set collection.name openpyxl_final_v2
  ragsearch config set collection.dimensions 384
  ragsearch config set vector_store.host_override qdrant.example.com
  ragsearch config set embedding.timeout 45s`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString(cmdutil.FlagConfigDir)
			return runSet(cmd.OutOrStdout(), args[0], args[1], configDir)
		},
		ValidArgsFunction: completeKeys,
	}

	return cmd
}

func runSet(w io.Writer, key, value, configDir string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	target := cfger.GetTarget()
	if target == "" {
		return errors.New("no .ragsearch directory found: run \"ragsearch init\" or pass --config-dir")
	}
	printTarget(w, target)

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		cliui.ValueStyle.Render(display(key, value)),
	)
	return nil
}
