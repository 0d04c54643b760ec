// Package main is the waygraph CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/hyperjump/waygraph/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
