package hivegen

import (
	"encoding/binary"

	"github.com/joshuapare/hivebatch/internal/format"
)

// SZ encodes s as a NUL terminated UTF-16LE string.
func SZ(s string) []byte {
	return append(format.EncodeUTF16(s), 0, 0)
}

// MultiSZ encodes parts as a REG_MULTI_SZ payload.
func MultiSZ(parts ...string) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, SZ(p)...)
	}
	return append(out, 0, 0)
}

// DWORD encodes v little-endian.
func DWORD(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

// QWORD encodes v little-endian.
func QWORD(v uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, v)
}
