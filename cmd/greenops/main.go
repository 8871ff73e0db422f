// Package main is the entry point for the greenops planner.
package main

import (
	"os"

	"github.com/namansh70747/greenops-planner/cmd/greenops/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
