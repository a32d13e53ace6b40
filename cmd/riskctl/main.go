// Package main provides the entry point for the riskctl CLI.
package main

import (
	"fmt"
	"os"

	"early-warning/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
