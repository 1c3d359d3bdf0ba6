// Command tarkcore runs the policy-engine, context-tracker and MCP
// supervisor core as a standalone CLI for scripting and debugging. The
// interactive host embeds the internal packages directly; this binary is
// a thin boundary shell only, per spec.md §1.
package main

import (
	"fmt"
	"os"

	"github.com/tarkdev/tarkcore/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
