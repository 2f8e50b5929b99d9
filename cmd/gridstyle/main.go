// Package main provides the CLI for the GridStyle conditional formatting engine.
package main

import (
	"os"

	"github.com/gridstack-labs/gridstyle/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
