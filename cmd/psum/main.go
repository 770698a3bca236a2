// Package main provides the entry point for the psum partial-checksum CLI.
package main

import (
	"errors"
	"os"
)

// errPartialFailure marks runs that completed but found failures: mismatched,
// missing, or unreadable files. It maps to exit code 1; any other error means
// the run could not complete and maps to exit code 2.
var errPartialFailure = errors.New("some files failed")

func main() {
	err := Execute()
	switch {
	case err == nil:
	case errors.Is(err, errPartialFailure):
		os.Exit(1)
	default:
		os.Exit(2)
	}
}
