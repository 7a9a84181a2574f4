// Package main provides the statsmith CLI, which serves the stats API and
// queries it from the command line.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
