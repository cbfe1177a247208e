package main

import (
	"os"

	"github.com/meigma/tarspan/cmd/tarspan/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
