// Package main provides the entry point for the wikidex CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Aman-CERP/wikidex/cmd/wikidex/cmd"
	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, wderrors.FormatForCLI(err))
		os.Exit(1)
	}
}
