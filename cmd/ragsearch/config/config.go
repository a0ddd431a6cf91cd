// Package configcmder provides the config command for managing persistent
// ragsearch configuration stored in the .ragsearch/ directory.
package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/elvenok1/servidor-api-rag/pkg/cliui"
	"github.com/elvenok1/servidor-api-rag/pkg/config"
)

const configLongDesc string = `Manage persistent ragsearch configuration.

Configuration is stored as config.toml in the .ragsearch/ directory and provides
default values for command flags. CLI flags and RAGSEARCH_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure, for example:
  collection.name, collection.embedding_model, collection.dimensions,
  embedding.provider, embedding.target, vector_store.target,
  vector_store.tls, search.max_top_k

Use subcommands to get, set, or list configuration values:
  ragsearch config set <key> <value>    Set a configuration value
  ragsearch config get <key>            Get a configuration value
  ragsearch config list                 List all configuration values

Examples:
  ragsearch config set collection.name openpyxl_final_v2
  ragsearch config set vector_store.tls true
  ragsearch config get embedding.timeout
  ragsearch config list`

const configShortDesc string = "Manage persistent ragsearch configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, target string) {
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}

// display masks credentials.
func display(key, value string) string {
	if value != "" && config.IsSecretKey(key) {
		return "********"
	}
	return value
}
