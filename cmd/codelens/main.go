// Package main provides the entry point for the codelens CLI.
package main

import (
	"os"

	"github.com/codelens-dev/codelens/cmd/codelens/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
