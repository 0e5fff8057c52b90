package main

import (
	"os"

	"github.com/nurpe/pointage/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
