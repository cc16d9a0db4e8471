package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const addSource = `((export (function add (a b) (block (return (+ a b))))))`

func TestCompileCmd_WritesWatToOutputFile(t *testing.T) {
	dir := t.TempDir()

	srcPath := filepath.Join(dir, "program.jz")
	if err := os.WriteFile(srcPath, []byte(addSource), 0o644); err != nil {
		t.Fatalf("writing fixture source: %v", err)
	}

	outPath := filepath.Join(dir, "out.wat")

	rootCmd.SetArgs([]string{"compile", srcPath, "--format", "wat", "--output", outPath})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("compile: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	if !strings.Contains(string(got), `(export "add" (func $fn_add))`) {
		t.Errorf("expected output to export add, got:\n%s", got)
	}
}

func TestCompileCmd_BinaryFormatErrorsWithoutAssembler(t *testing.T) {
	dir := t.TempDir()

	srcPath := filepath.Join(dir, "program.jz")
	if err := os.WriteFile(srcPath, []byte(addSource), 0o644); err != nil {
		t.Fatalf("writing fixture source: %v", err)
	}

	rootCmd.SetArgs([]string{"compile", srcPath})
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("expected an error for binary format with no wired assembler")
	}
}
