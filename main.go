package main

import (
	"os"

	"github.com/datachat-ai/datachat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
