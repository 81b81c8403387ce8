package main

import (
	"os"

	"github.com/iamgilwell/booster/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
