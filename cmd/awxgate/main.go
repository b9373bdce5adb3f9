// Package main is the entry point for the awxgate CLI.
//
// awxgate launches AWX job templates against single hosts through
// throw-away inventories, watches the resulting jobs, releases the
// inventories and keeps a day-partitioned audit trail. It runs either as
// an HTTP API (serve) or as a one-shot command line tool.
//
// For detailed usage information, run:
//
//	awxgate --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/awxgate/cmd/awxgate/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
