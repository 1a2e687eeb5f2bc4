// Command rubigo is the engine's command line: validate documents,
// replay events, run conformance vectors, inspect stored traces.
package main

import (
	"fmt"
	"os"

	"github.com/rubigo-ui/rubigo/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
