package main

import (
	"os"

	"github.com/omegafx/propsim/cmd/propsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
