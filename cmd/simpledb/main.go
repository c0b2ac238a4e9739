package main

import (
	"os"

	"github.com/waveofmymind/simple-db/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
