// Package main provides the klarpost command line interface.
package main

import (
	"os"

	"github.com/klarpost/klarpost/cmd/klarpost/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
