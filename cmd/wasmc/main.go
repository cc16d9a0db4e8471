// Command wasmc is the CLI entrypoint: it delegates entirely to pkg/cmd,
// which wires cobra verbs onto pkg/compiler.Compile.
package main

import (
	"fmt"
	"os"

	"github.com/latticec/wasmc/pkg/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
