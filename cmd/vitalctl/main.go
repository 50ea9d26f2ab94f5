// Package main is the entry point for the vitalctl CLI tool.
package main

import (
	"os"

	"github.com/good-yellow-bee/vitalwatch/cmd/vitalctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
