// Package main implements synth, a terminal client for the Synth study
// service: account management, deck upload and an interactive study loop.
package main

import (
	"os"
)

// version is overridden at build time.
var version = "dev"

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
