package module

import (
	"encoding/binary"

	"github.com/latticec/wasmc/pkg/value"
)

// stringSlot is one interned literal's placement: the byte offset of its
// header (length/capacity, value.HeaderSize ahead of the payload), the
// exact header+payload bytes a (data ...) segment carries, and the
// NaN-boxed pointer bits (tag STRING, a distinct id, offset of the
// payload) the literal's precomputed global holds.
type stringSlot struct {
	HeaderOffset int
	Bytes        []byte
	Bits         uint64
}

// stringLayout is every interned literal's placement plus the bump
// allocator's starting cursor, positioned immediately past the last
// literal's (8-byte aligned) block.
type stringLayout struct {
	Strings   []stringSlot
	BumpStart int
}

// layoutStrings lays out literals back to back starting at address 0: each
// gets an 8-byte length/capacity header (value.HeaderSize) immediately
// followed by its code units, 2 bytes apiece (the heap string payload
// layout pkg/runtime/string.go's emitStringSlice assumes), padded up to
// the next 8-byte boundary so the following literal's header starts slot-
// aligned the same way $alloc's blocks do.
func layoutStrings(literals []string) *stringLayout {
	layout := &stringLayout{}

	cursor := 0

	for i, s := range literals {
		units := codeUnitsOf(s)

		payloadOffset := cursor + value.HeaderSize
		dataLen := value.HeaderSize + 2*len(units)

		buf := make([]byte, dataLen)
		binary.LittleEndian.PutUint32(buf[value.ArrayLengthOffset:], uint32(len(units)))
		binary.LittleEndian.PutUint32(buf[value.ArrayCapacityOffset:], uint32(len(units)))

		for j, u := range units {
			binary.LittleEndian.PutUint16(buf[value.HeaderSize+2*j:], u)
		}

		bits := value.Encode(value.STRING, uint16(i), uint32(payloadOffset))

		layout.Strings = append(layout.Strings, stringSlot{
			HeaderOffset: cursor,
			Bytes:        buf,
			Bits:         bits,
		})

		cursor += dataLen
		if rem := cursor % value.SlotSize; rem != 0 {
			cursor += value.SlotSize - rem
		}
	}

	layout.BumpStart = cursor

	return layout
}

// codeUnitsOf converts an interned literal into its 16-bit code units,
// matching pkg/codegen/strings.go's identical helper for the short-string
// encode path this package cannot import directly (unexported).
func codeUnitsOf(s string) []uint16 {
	units := make([]uint16, 0, len(s))
	for _, r := range s {
		units = append(units, uint16(r))
	}

	return units
}
