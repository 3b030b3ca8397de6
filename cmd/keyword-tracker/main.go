// Package main is the entry point for the keyword-tracker server.
package main

import (
	"os"

	"github.com/donaldgifford/keyword-tracker/cmd/keyword-tracker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
