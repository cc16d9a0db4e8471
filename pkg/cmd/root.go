// Package cmd implements the command-line front end: a thin cobra wrapper
// around pkg/compiler.Compile and nothing else. This is the documented,
// out-of-core external interface - the host embedding this compiler as a
// library never imports this package.
package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootCmd is the program's entry command; every verb is registered onto it
// from that verb's own init().
var rootCmd = &cobra.Command{
	Use:   "wasmc",
	Short: "Ahead-of-time compiler to WebAssembly",
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug-level logging")
}

// Execute runs the CLI, returning the first error any command produced.
// cmd/wasmc's main is just `if err := cmd.Execute(); err != nil { ... }`.
func Execute() error {
	return rootCmd.Execute()
}

// GetFlag returns cmd's own bool flag value, falling back to false on any
// lookup failure rather than panicking - a malformed flag definition is a
// programmer error caught by a test, not something to surface at runtime.
func GetFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		log.Debugf("cmd: flag %q: %v", name, err)
		return false
	}

	return v
}

// GetString returns cmd's own string flag value, the same fallback
// convention as GetFlag.
func GetString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		log.Debugf("cmd: flag %q: %v", name, err)
		return ""
	}

	return v
}
