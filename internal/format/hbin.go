package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// HBIN describes a hive bin. Each HBIN begins with a 0x20-byte header:
//
//	Offset  Size  Field
//	0x00    4     'h' 'b' 'i' 'n'
//	0x04    4     Offset of this HBIN relative to the first HBIN
//	0x08    4     Size of HBIN, multiple of 0x1000
//
// Start is the absolute offset of the HBIN in the file buffer.
type HBIN struct {
	Start      int
	FileOffset uint32
	Size       uint32
}

// NextHBIN validates the HBIN header located at off within b and returns the
// header along with the offset of the subsequent HBIN.
func NextHBIN(b []byte, off int) (HBIN, int, error) {
	if off < 0 || off+HBINHeaderSize > len(b) {
		return HBIN{}, 0, fmt.Errorf("hbin: %w", ErrTruncated)
	}
	head := b[off : off+HBINHeaderSize]
	if !bytes.Equal(head[:4], HBINSignature) {
		return HBIN{}, 0, fmt.Errorf("hbin at %#x: %w", off, ErrSignatureMismatch)
	}
	fileOff := binary.LittleEndian.Uint32(head[HBINFileOffsetField:])
	size := binary.LittleEndian.Uint32(head[HBINSizeOffset:])
	if size == 0 || size%HBINAlignment != 0 {
		return HBIN{}, 0, fmt.Errorf("hbin at %#x: invalid size %d", off, size)
	}
	next := off + int(size)
	if next > len(b) {
		return HBIN{}, 0, fmt.Errorf("hbin at %#x: %w", off, ErrTruncated)
	}
	return HBIN{Start: off, FileOffset: fileOff, Size: size}, next, nil
}
