package main

import (
	"fmt"
	"os"
)

// mailproof - CLI tool and API service for turning DKIM-signed emails into
// zero-knowledge proof witnesses and proofs
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
