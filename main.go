package main

import (
	"os"

	"github.com/lmenard/platter/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
