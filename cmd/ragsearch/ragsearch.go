// Package ragsearchcmder is the root ragsearch command.
package ragsearchcmder

import (
	"github.com/spf13/cobra"

	"github.com/elvenok1/servidor-api-rag/cmd/ragsearch/cmdutil"
	configcmder "github.com/elvenok1/servidor-api-rag/cmd/ragsearch/config"
	initcmder "github.com/elvenok1/servidor-api-rag/cmd/ragsearch/init"
	searchcmder "github.com/elvenok1/servidor-api-rag/cmd/ragsearch/search"
	servecmder "github.com/elvenok1/servidor-api-rag/cmd/ragsearch/serve"
	verifycmder "github.com/elvenok1/servidor-api-rag/cmd/ragsearch/verify"
	versioncmder "github.com/elvenok1/servidor-api-rag/cmd/version"
)

const ragsearchLongDesc string = `ragsearch is semantic search over an indexed documentation collection.

Queries are embedded with the same model the collection was indexed with and
matched against a vector store (Qdrant, sqlite-vec or pgvector).

Get started:
  ragsearch init                  Create a local .ragsearch/config.toml
  ragsearch verify                Check the collection against its embedding model
  ragsearch serve                 Run the search API
  ragsearch search "<query>"      Query a running server`

const ragsearchShortDesc string = "ragsearch - semantic retrieval service"

func NewRagsearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ragsearch",
		Short:        ragsearchShortDesc,
		Long:         ragsearchLongDesc,
		SilenceUsage: true,
	}

	cmdutil.AddGlobalFlags(cmd)

	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(verifycmder.NewVerifyCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
