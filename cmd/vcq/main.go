// Command vcq plans and runs vertex-centric queries.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/vcq/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
