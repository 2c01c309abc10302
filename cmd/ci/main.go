package main

import (
	"os"

	"github.com/temirov/engineci/internal/cli"
)

// main is the entry point for the ci command.
func main() {
	os.Exit(cli.RunDispatcher(os.Args[1:]))
}
