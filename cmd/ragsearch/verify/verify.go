// Package verifycmder provides the verify command, which runs startup
// verification once against the configured providers and reports the result.
package verifycmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/elvenok1/servidor-api-rag/cmd/ragsearch/cmdutil"
	"github.com/elvenok1/servidor-api-rag/pkg/bootstrap"
	"github.com/elvenok1/servidor-api-rag/pkg/cliui"
	"github.com/elvenok1/servidor-api-rag/pkg/config"
	"github.com/elvenok1/servidor-api-rag/pkg/logger"
)

type verifyCommander struct {
	collection     string
	embeddingModel string
	dimensions     uint
	embeddingProv  string
	embeddingTgt   string
	vectorProv     string
	vectorTgt      string

	config *config.Config
}

var verifyFlagKeys = []string{
	config.FlagCollection,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
}

const verifyLongDesc string = `Verify that the configured collection can be searched.

Runs the same checks the server runs at startup: the embedding provider is
reachable (bypassing the embedding cache), a sample query embeds to the
configured dimensions, and the collection exists in the vector store with the
same dimensions. Exits non-zero when any check fails.

Examples:
  ragsearch verify
  ragsearch verify --collection openpyxl_final_v2 --embedding-dimensions 384`

const verifyShortDesc string = "Verify the collection against its embedding model"

func NewVerifyCmd() *cobra.Command {
	cmder := &verifyCommander{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: verifyShortDesc,
		Long:  verifyLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			_, cmder.config, err = cmdutil.LoadConfig(cmd, config.ServerFlags, verifyFlagKeys)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			debug, _ := cmd.Flags().GetBool(cmdutil.FlagDebug)
			log := logger.Nop()
			if debug {
				var (
					closeLog func() error
					err      error
				)
				log, closeLog, err = cmdutil.NewLogger(cmd, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				defer closeLog()
			}

			out := cmd.OutOrStdout()
			gate := bootstrap.NewGate(cmder.config, nil, log)
			defer gate.Close()

			cmder.printIdentity(out)

			return cliui.Step(out, "Verifying collection", func() error {
				return gate.Verify(cmd.Context())
			})
		},
	}

	fs := config.ServerFlags
	config.AddStringFlag(cmd, fs, config.FlagCollection, &cmder.collection)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, fs, config.FlagEmbeddingDims, &cmder.dimensions)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingTgt, &cmder.embeddingTgt)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreTgt, &cmder.vectorTgt)

	return cmd
}

func (c *verifyCommander) printIdentity(w io.Writer) {
	identity := c.config.Identity()

	rows := [][2]string{
		{"collection", identity.Name},
		{"embedding model", identity.EmbeddingModel},
		{"dimensions", fmt.Sprintf("%d", identity.Dimensions)},
		{"fingerprint", identity.Fingerprint()},
		{"embedding", c.config.Embedding.Provider + " " + c.config.Embedding.Target},
		{"vector store", c.config.VectorStore.Provider + " " + c.config.VectorStore.Target},
	}

	fmt.Fprintln(w)
	for _, row := range rows {
		fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render(fmt.Sprintf("%-16s", row[0])), cliui.ValueStyle.Render(row[1]))
	}
	fmt.Fprintln(w)
}
