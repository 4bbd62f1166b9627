// Package main provides the entry point for the winwin-search CLI.
package main

import (
	"os"

	"github.com/heibaibufen/winwin-search/cmd/winwin-search/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
