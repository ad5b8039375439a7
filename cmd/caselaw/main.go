package main

import (
	"os"

	"github.com/joseph-ayodele/caselaw-ingest/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
