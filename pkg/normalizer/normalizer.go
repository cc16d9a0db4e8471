// Package normalizer walks the raw pkg/sexp tree produced by the external
// parser collaborator and produces a pkg/ast tree with increment/decrement
// and compound-assign rewrites applied, constants folded, and every
// prohibited construct rejected. It is a single recursive descent over the
// list-of-lists shape, dispatching on the leading symbol of each list.
package normalizer

import (
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/sexp"
)

// Normalizer holds the per-compilation state threaded through every call:
// the warning bag, the set of every name declared so far, and the stack of
// block scopes used for the scope-adjacent warnings. One Normalizer is constructed per
// compilation and discarded afterwards.
type Normalizer struct {
	Warnings *diag.Bag
	seen     map[string]bool // every identifier declared anywhere so far, for the implicit-global warning
	scopes   []map[string]bool
}

// New constructs a Normalizer with a fresh warning bag and an empty
// top-level scope.
func New() *Normalizer {
	return &Normalizer{Warnings: &diag.Bag{}, seen: map[string]bool{}, scopes: []map[string]bool{{}}}
}

// Normalize translates a top-level program: a list of statement S-expressions.
func (n *Normalizer) Normalize(prog sexp.SExp) (*ast.Program, error) {
	list, ok := prog.(*sexp.List)
	if !ok {
		return nil, diag.New(diag.UnsupportedLiteral, zeroSpan(), "top-level program must be a list of statements")
	}

	stmts := make([]ast.Stmt, 0, len(list.Elements))

	for _, e := range list.Elements {
		s, err := n.normalizeStmt(e)
		if err != nil {
			return nil, err
		}

		stmts = append(stmts, s)
	}

	log.Debugf("normalizer: produced %d top-level statements", len(stmts))

	return ast.NewProgram(spanOf(prog), stmts), nil
}

func zeroSpan() sexp.Span { return sexp.NewSpan(0, 0) }

func spanOf(sexp.SExp) sexp.Span {
	// The external parser collaborator is responsible for maintaining a
	// pkg/sexp.SourceMap keyed by node identity; this compiler
	// consumes whatever span it reports. Fixture-built ASTs (as used by
	// this repo's own tests, which construct nodes directly rather than
	// through a real frontend) have no meaningful byte offsets, so callers
	// that care about precise spans attach a SourceMap externally.
	return zeroSpan()
}

// isLiteralList reports whether l is the `[, value]` vacant-operator shape
// used to mark a literal.
func isLiteralList(l *sexp.List) bool {
	return len(l.Elements) == 2 && l.Elements[0] == nil
}

// parseNumberLiteral parses a literal token's text into a float64,
// classifying whether it is within the language's safe-integer range.
func parseNumberLiteral(text string) (float64, bool, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false, err
	}

	const maxSafeInteger = 1 << 53

	isInt := f == float64(int64(f))
	exceeds := isInt && (f > maxSafeInteger || f < -maxSafeInteger)

	return f, exceeds, nil
}

func isQuoted(text string) bool {
	return len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`)
}

func unquote(text string) string {
	inner := text[1 : len(text)-1]
	return strings.ReplaceAll(inner, `\"`, `"`)
}
