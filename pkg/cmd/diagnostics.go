package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/latticec/wasmc/pkg/diag"
)

// defaultWidth is used whenever stdout isn't a terminal (piped output, CI,
// redirected to a file) - term.GetSize fails in exactly that case.
const defaultWidth = 80

// terminalWidth returns the current terminal's column width, falling back
// to defaultWidth when stdout isn't a TTY - the teacher's own termio usage
// follows this same has-a-terminal/doesn't split.
func terminalWidth() int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return defaultWidth
	}

	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}

	return w
}

// formatDiagnostic renders err against source as a caret-pointer snippet
// sized to the terminal, the way a compiler's own CLI front end reports a
// syntax or semantic error. Non-diag errors (a bare file-read failure, an
// AssemblerFailed from an external collaborator) are passed through
// unchanged - there is no source span to point at.
//
// The normalizer's own spanOf currently always reports span [0,0) (see its
// doc comment: a real SourceMap is the external parser collaborator's
// responsibility to attach), so every pointer this prints lands at offset
// 0 until that collaborator wires real spans through. The snippet still
// reports the right message and stays width-aware; only the caret position
// is a known placeholder.
func formatDiagnostic(err error, source string) string {
	var de *diag.Error
	if !errors.As(err, &de) {
		return err.Error()
	}

	width := terminalWidth()

	span := de.Span()
	start := span.Start()
	if start < 0 || start > len(source) {
		start = 0
	}

	lineStart := strings.LastIndexByte(source[:start], '\n') + 1

	lineEnd := len(source)
	if idx := strings.IndexByte(source[start:], '\n'); idx >= 0 {
		lineEnd = start + idx
	}

	line := source[lineStart:lineEnd]
	if len(line) > width {
		line = line[:width]
	}

	caret := strings.Repeat(" ", start-lineStart) + "^"

	return fmt.Sprintf("%s\n%s\n%s", de.Error(), line, caret)
}
