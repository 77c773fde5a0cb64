package main

import (
	"os"

	"github.com/YuminosukeSato/lidmlp/cmd/mlp/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
