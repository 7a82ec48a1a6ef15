package main

import (
	"fmt"
	"os"

	"mpijobctl/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(cli.DefaultDeps()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
