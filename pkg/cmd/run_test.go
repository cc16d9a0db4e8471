package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunCmd_CompilesWithoutExecuting(t *testing.T) {
	dir := t.TempDir()

	srcPath := filepath.Join(dir, "program.jz")
	if err := os.WriteFile(srcPath, []byte(addSource), 0o644); err != nil {
		t.Fatalf("writing fixture source: %v", err)
	}

	rootCmd.SetArgs([]string{"run", srcPath})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("run: %v", err)
	}
}
