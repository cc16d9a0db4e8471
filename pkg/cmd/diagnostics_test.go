package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/sexp"
)

func TestFormatDiagnostic_RendersDiagError(t *testing.T) {
	src := "bad source"
	err := diag.New(diag.UnsupportedLiteral, sexp.NewSpan(0, 0), "malformed literal")

	got := formatDiagnostic(err, src)

	if !strings.Contains(got, "malformed literal") {
		t.Errorf("expected the diagnostic message, got:\n%s", got)
	}

	if !strings.Contains(got, "^") {
		t.Errorf("expected a caret pointer, got:\n%s", got)
	}
}

func TestFormatDiagnostic_PassesThroughNonDiagError(t *testing.T) {
	err := errors.New("plain file error")

	got := formatDiagnostic(err, "")
	if got != "plain file error" {
		t.Errorf("expected the bare error message, got %q", got)
	}
}
