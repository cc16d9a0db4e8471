// Package runtime emits the WebAssembly text fragments that back the
// heap-mode runtime: the bump allocator, array/ring/string/map/set helper
// functions, and the handful of math stdlib wrappers that aren't a single
// WebAssembly instruction. Only the helpers a compilation actually uses are
// emitted; pkg/codegen calls Require as it lowers each construct, and
// pkg/module asks the Prelude for the final text once codegen finishes.
package runtime

import (
	"fmt"
	"strings"

	"github.com/latticec/wasmc/pkg/value"
)

// Builder accumulates indented WebAssembly text as flat instruction-text
// assembly: callers append one logical line at a time rather than building
// a syntax tree for the output.
type Builder struct {
	buf    strings.Builder
	indent int
}

// NewBuilder constructs an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// Line appends one indented, newline-terminated line.
func (b *Builder) Line(format string, args ...any) {
	b.buf.WriteString(strings.Repeat("  ", b.indent))
	fmt.Fprintf(&b.buf, format, args...)
	b.buf.WriteByte('\n')
}

// Open appends a line and increases indentation for the lines that follow.
func (b *Builder) Open(format string, args ...any) {
	b.Line(format, args...)
	b.indent++
}

// Close decreases indentation and appends a closing line.
func (b *Builder) Close(line string) {
	b.indent--
	b.Line("%s", line)
}

// String returns the accumulated text.
func (b *Builder) String() string { return b.buf.String() }

// i32Const/f64Const are small formatting helpers shared by every emitter in
// this package.
func i32Const(n int) string  { return fmt.Sprintf("(i32.const %d)", n) }
func f64Const(n int) string  { return fmt.Sprintf("(f64.const %d)", n) }
func tagConst(t value.Tag) string { return i32Const(int(t)) }
