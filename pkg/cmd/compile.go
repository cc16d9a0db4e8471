package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/latticec/wasmc/pkg/compiler"
	"github.com/latticec/wasmc/pkg/module"
)

func init() {
	compileCmd.Flags().StringP("output", "o", "", "output file (defaults to stdout)")
	compileCmd.Flags().String("format", "binary", "output format: binary or wat")
	compileCmd.Flags().Bool("gc", false, "suppress the synthetic _memory/_alloc exports")
	compileCmd.Flags().Bool("strict", false, "treat compiler warnings as errors")

	rootCmd.AddCommand(compileCmd)
}

var compileCmd = &cobra.Command{
	Use:   "compile <file>",
	Short: "Compile a parsed S-expression program to WebAssembly",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func runCompile(cmd *cobra.Command, args []string) error {
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	cfg := compiler.CompilationConfig{
		Format: GetString(cmd, "format"),
		GC:     GetFlag(cmd, "gc"),
		Debug:  GetFlag(cmd, "verbose"),
		Strict: GetFlag(cmd, "strict"),
	}

	var asm module.Assembler
	if cfg.Format != module.FormatWat {
		return fmt.Errorf("binary assembly requires an external assembler collaborator; pass --format wat, or wire one in via pkg/module.Assembler")
	}

	res, err := compiler.Compile(string(source), cfg, asm)
	if err != nil {
		return fmt.Errorf("compiling %s:\n%s", args[0], formatDiagnostic(err, string(source)))
	}

	for _, w := range res.Warnings {
		log.Warnf("%s", w)
	}

	out := []byte(res.WAT)
	if res.Wasm != nil {
		out = res.Wasm
	}

	outputPath := GetString(cmd, "output")
	if outputPath == "" {
		_, err := os.Stdout.Write(out)
		return err
	}

	return os.WriteFile(outputPath, out, 0o644)
}
