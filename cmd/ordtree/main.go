// Package main provides the entry point for the ordtree CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/ordtree/cmd/ordtree/commands"
)

func main() {
	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
