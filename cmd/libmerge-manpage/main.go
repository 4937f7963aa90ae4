package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/libmerge/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCmd(cli.DefaultOptions())

	if err := cli.GenManPage(rootCmd, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
