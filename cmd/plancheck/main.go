package main

import (
	"fmt"
	"os"

	"github.com/arnavshah/allocation-api-go/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		if !cli.IsConflictExit(err) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		os.Exit(1)
	}
}
