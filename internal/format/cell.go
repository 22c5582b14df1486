package format

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Cell represents a single allocation (free or in-use) within an HBIN.
//
// Cell header layout (little-endian):
//
//	Offset  Size  Description
//	0x00    4     Signed size. Negative => allocated, positive => free.
//	              The absolute value includes the 4-byte header.
//	0x04    ...   Payload. First two bytes form the record tag when allocated.
type Cell struct {
	Offset int  // Offset of the cell header within the buffer passed to the decoder
	Size   int  // Total size including header
	Free   bool // True when the cell is marked as free
	Data   []byte
}

// Tag returns the two-byte record signature of the payload, if any.
func (c Cell) Tag() string {
	if len(c.Data) < SignatureSize {
		return ""
	}
	return string(c.Data[:SignatureSize])
}

// ParseCell decodes the cell whose header starts at b[0].
func ParseCell(b []byte) (Cell, error) {
	if len(b) < CellHeaderSize {
		return Cell{}, fmt.Errorf("cell: %w", ErrTruncated)
	}
	raw := int32(binary.LittleEndian.Uint32(b))
	if raw == 0 {
		return Cell{}, errors.New("cell: zero length")
	}
	allocated := raw < 0
	size := int(raw)
	if allocated {
		size = -size
	}
	if size < CellHeaderSize || size > len(b) {
		return Cell{}, fmt.Errorf("cell: %w (size %d, have %d)", ErrTruncated, size, len(b))
	}
	return Cell{
		Size: size,
		Free: !allocated,
		Data: b[CellHeaderSize:size],
	}, nil
}

// WalkCells iterates every cell inside h, free or allocated, in file order.
// Iteration stops early when fn returns false or a malformed cell is found.
func WalkCells(b []byte, h HBIN, fn func(Cell) bool) error {
	off := h.Start + HBINHeaderSize
	end := h.Start + int(h.Size)
	for off+CellHeaderSize <= end {
		c, err := ParseCell(b[off:end])
		if err != nil {
			return fmt.Errorf("hbin %#x: %w", h.Start, err)
		}
		c.Offset = off
		if !fn(c) {
			return nil
		}
		off += c.Size
	}
	return nil
}
