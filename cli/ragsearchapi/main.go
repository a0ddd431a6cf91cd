package main

import (
	"os"

	"github.com/elvenok1/servidor-api-rag/cmd/ragsearch/cmdutil"
	servecmder "github.com/elvenok1/servidor-api-rag/cmd/ragsearch/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()
	cmd.Use = "ragsearchapi"
	cmdutil.AddGlobalFlags(cmd)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
