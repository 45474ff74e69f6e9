package main

import (
	"fmt"
	"os"

	"tippool/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tipctl:", err)
		os.Exit(1)
	}
}
