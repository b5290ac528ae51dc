// Package main provides the CLI for the evaltable combo program evaluator.
package main

import (
	"os"

	"github.com/leapstack-labs/evaltable/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
