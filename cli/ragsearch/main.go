package main

import (
	"os"

	ragsearchcmder "github.com/elvenok1/servidor-api-rag/cmd/ragsearch"
)

func main() {
	cmd := ragsearchcmder.NewRagsearchCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
