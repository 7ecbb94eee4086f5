package main

import (
	"os"

	"github.com/nmltools/go-nmlgen/cmd/nmlgen/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
