// Package main provides the cellar CLI for exercising caches and comparing
// eviction policies.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
