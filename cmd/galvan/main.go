// Command galvan transpiles Galvan sources to Rust.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/galvan/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	err := cmd.Execute()
	if err == nil {
		return
	}

	// Commands print their own errors; bare cobra errors (bad flags,
	// unknown commands) do not.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
