package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// DecodeSubkeyList extracts NK offsets from list records (LI, LF, LH). Each
// entry stores the relative offset of a child NK cell. LF/LH additionally store
// a name hash which is skipped because higher layers compare names.
func DecodeSubkeyList(b []byte) ([]uint32, error) {
	if len(b) < ListHeaderSize {
		return nil, fmt.Errorf("subkey list: %w", ErrTruncated)
	}
	sig := b[:SignatureSize]
	count := int(binary.LittleEndian.Uint16(b[SignatureSize:ListHeaderSize]))
	entries := b[ListHeaderSize:]
	stride := 0
	switch {
	case bytes.Equal(sig, LISignature), bytes.Equal(sig, RISignature):
		stride = OffsetFieldSize
	case bytes.Equal(sig, LFSignature), bytes.Equal(sig, LHSignature):
		stride = LFEntrySize
	default:
		return nil, fmt.Errorf("subkey list %q: %w", sig, ErrUnsupported)
	}
	if len(entries) < count*stride {
		return nil, fmt.Errorf("subkey list %q: %w", sig, ErrTruncated)
	}
	out := make([]uint32, count)
	for i := range count {
		out[i] = binary.LittleEndian.Uint32(entries[i*stride:])
	}
	return out, nil
}

// IsRIList checks if a byte slice contains an RI (indirect) subkey list whose
// entries point at further LF/LH/LI lists rather than at NK records.
func IsRIList(b []byte) bool {
	return len(b) >= SignatureSize && bytes.Equal(b[:SignatureSize], RISignature)
}

// DecodeValueList decodes a value list containing offsets to VK records.
func DecodeValueList(b []byte, count uint32) ([]uint32, error) {
	need := int(count) * OffsetFieldSize
	if need == 0 {
		return nil, nil
	}
	if len(b) < need {
		return nil, fmt.Errorf("value list: %w", ErrTruncated)
	}
	out := make([]uint32, count)
	for i := range count {
		out[i] = binary.LittleEndian.Uint32(b[int(i)*OffsetFieldSize:])
	}
	return out, nil
}
