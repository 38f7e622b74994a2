// Package main is the entry point for the flag usage dashboard.
// It hands control to the cobra command tree in internal/cli.
package main

import (
	"os"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
