package codegen

import "github.com/latticec/wasmc/pkg/value"

// StringTable interns every string literal longer than
// value.MaxShortStringUnits seen during one compilation. Short literals
// never reach here: the expression codegen packs them directly into an
// f64.const via value.EncodeShortString. Long literals are laid out once
// in a data segment by pkg/module, which initializes each literal's global
// with its precomputed heap pointer; every occurrence of the same literal
// text reuses the same global.
type StringTable struct {
	order []string
	index map[string]int
}

func newStringTable() *StringTable {
	return &StringTable{index: map[string]int{}}
}

// Intern returns s's stable index into the table, assigning a fresh one the
// first time s is seen.
func (t *StringTable) Intern(s string) int {
	if i, ok := t.index[s]; ok {
		return i
	}

	i := len(t.order)
	t.order = append(t.order, s)
	t.index[s] = i

	return i
}

// Literals returns every interned literal in assignment order, so pkg/module
// can place them by index and declare the per-literal WebAssembly global
// ($str_0, $str_1, ...) the expression codegen reads.
func (t *StringTable) Literals() []string {
	return t.order
}

// StringGlobal returns the WebAssembly global name holding interned literal
// index i's materialized heap pointer.
func StringGlobal(i int) string {
	return "$str_" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}

	var buf [20]byte

	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}

	return string(buf[pos:])
}

// codeUnits converts an ASCII/BMP string literal into its 16-bit code
// units, matching the heap string payload layout (value package doc
// comment: 16-bit code units).
func codeUnits(s string) []uint16 {
	units := make([]uint16, 0, len(s))
	for _, r := range s {
		units = append(units, uint16(r))
	}

	return units
}

// isShortASCII reports whether s fits value.EncodeShortString's inline
// payload: at most value.MaxShortStringUnits 7-bit ASCII code units.
func isShortASCII(s string) bool {
	if len(s) > value.MaxShortStringUnits {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}

	return true
}
