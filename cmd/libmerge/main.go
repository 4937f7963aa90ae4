package main

import (
	"context"
	"os"

	"github.com/arthur-debert/libmerge/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), cli.DefaultOptions(), os.Args[1:]))
}
