package main

import (
	"os"

	"github.com/defi-org-code/dotc/internal/cli"
)

func main() {
	if !cli.Run(os.Args) {
		os.Exit(1)
	}
}
