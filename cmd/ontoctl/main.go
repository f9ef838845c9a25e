// Package main is the entry point for the ontoctl tool.
package main

import (
	"os"

	"ontoforge.io/ontoforge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
