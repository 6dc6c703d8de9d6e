// Package main provides the entry point for the deepsearch server and CLI.
package main

import (
	"os"

	"github.com/askveeva/deepsearch/cmd/deepsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
