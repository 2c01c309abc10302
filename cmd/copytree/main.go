package main

import (
	"os"

	"github.com/temirov/engineci/internal/cli"
)

// main is the entry point for the copytree command.
func main() {
	os.Exit(cli.RunTreeCopier(os.Args[1:]))
}
