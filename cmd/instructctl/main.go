package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-instructform/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "instructctl: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
