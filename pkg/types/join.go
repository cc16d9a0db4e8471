package types

import (
	"fmt"

	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/sexp"
	"github.com/latticec/wasmc/pkg/value"
)

// Join computes the least upper bound of two kinds under the declared-type
// widening rule: i32 widens to f64 in either direction, any other
// mismatched pair (numeric against reference, or two distinct reference
// kinds) is a nonsense coercion.
func Join(a, b value.Kind) (value.Kind, error) {
	if a == b {
		return a, nil
	}

	if (a == value.KindI32 && b == value.KindF64) || (a == value.KindF64 && b == value.KindI32) {
		return value.KindF64, nil
	}

	return 0, joinError(a, b)
}

func joinError(a, b value.Kind) error {
	return diag.New(diag.NonsenseCoercion, zeroSpan(), fmt.Sprintf("cannot reconcile %s and %s", a, b))
}

func zeroSpan() sexp.Span { return sexp.NewSpan(0, 0) }
