// Package main is the entry point for the kwt CLI client.
package main

import (
	"github.com/donaldgifford/keyword-tracker/cmd/kwt/cmd"
)

func main() {
	cmd.Execute()
}
