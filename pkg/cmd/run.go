package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/latticec/wasmc/pkg/compiler"
)

func init() {
	runCmd.Flags().Bool("strict", false, "treat compiler warnings as errors")

	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Compile and report the exported ABI of a program (execution is left to a host runtime)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

// runRun compiles source the same way compileCmd does, then prints each
// export's Host ABI shape instead of executing it: this package has no
// WebAssembly runtime of its own to embed (spec's "run" verb is a
// documented, out-of-core collaborator contract, not a promise this repo
// fulfills end to end).
func runRun(cmd *cobra.Command, args []string) error {
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	cfg := compiler.CompilationConfig{
		Format: "wat",
		Debug:  GetFlag(cmd, "verbose"),
		Strict: GetFlag(cmd, "strict"),
	}

	res, err := compiler.Compile(string(source), cfg, nil)
	if err != nil {
		return fmt.Errorf("compiling %s:\n%s", args[0], formatDiagnostic(err, string(source)))
	}

	for _, w := range res.Warnings {
		log.Warnf("%s", w)
	}

	if len(res.Sig) == 0 {
		fmt.Println("no array-typed exports; nothing for a host to marshal specially")
	}

	for name, entry := range res.Sig {
		fmt.Printf("%s: arrayParams=%v arrayReturn=%v\n", name, entry.ArrayParams, entry.ArrayReturn)
	}

	fmt.Println("compiled module ready; executing it requires wiring an external WebAssembly host")

	return nil
}
