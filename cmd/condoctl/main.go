// Command condoctl runs the condominium reports from a terminal.
package main

import (
	"fmt"
	"os"

	"condo/internal/cli"
)

func main() {
	cli.LoadEnvFile()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
