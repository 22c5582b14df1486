package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// NKRecord captures metadata extracted from an NK record. NK cells describe
// registry keys:
//
//	Offset  Size  Field
//	0x00    2     'n' 'k'
//	0x02    2     Flags (bit 0x20 => name stored as ASCII)
//	0x04    8     Last write time (FILETIME)
//	0x10    4     Parent cell offset
//	0x14    4     Number of subkeys
//	0x1C    4     Offset to subkey list
//	0x24    4     Number of values
//	0x28    4     Offset to value list
//	0x2C    4     Security offset
//	0x30    4     Class name offset
//	0x48    2     Name length
//	0x4A    2     Class length
//	0x4C    n     Name bytes (ASCII or UTF-16LE)
type NKRecord struct {
	Flags            uint16
	LastWriteRaw     uint64
	ParentOffset     uint32
	SubkeyCount      uint32
	SubkeyListOffset uint32
	ValueCount       uint32
	ValueListOffset  uint32
	SecurityOffset   uint32
	ClassNameOffset  uint32
	NameLength       uint16
	ClassLength      uint16
	NameRaw          []byte
}

// NameIsCompressed returns true when the name is stored in 8-bit form.
func (nk NKRecord) NameIsCompressed() bool {
	return nk.Flags&NKFlagCompressedName != 0
}

// IsRoot reports whether the record carries the root-key flag.
func (nk NKRecord) IsRoot() bool {
	return nk.Flags&NKFlagRootKey != 0
}

// Name decodes the key name.
func (nk NKRecord) Name() string {
	return DecodeName(nk.NameRaw, nk.NameIsCompressed())
}

// DecodeNK decodes an NK record payload with bounds checking.
func DecodeNK(b []byte) (NKRecord, error) {
	if len(b) < NKFixedHeaderSize {
		return NKRecord{}, fmt.Errorf("nk: %w (have %d, need %d)", ErrTruncated, len(b), NKFixedHeaderSize)
	}
	if !bytes.Equal(b[:SignatureSize], NKSignature) {
		return NKRecord{}, fmt.Errorf("nk: %w", ErrSignatureMismatch)
	}
	le := binary.LittleEndian
	nk := NKRecord{
		Flags:            le.Uint16(b[NKFlagsOffset:]),
		LastWriteRaw:     le.Uint64(b[NKLastWriteOffset:]),
		ParentOffset:     le.Uint32(b[NKParentOffset:]),
		SubkeyCount:      le.Uint32(b[NKSubkeyCountOffset:]),
		SubkeyListOffset: le.Uint32(b[NKSubkeyListOffset:]),
		ValueCount:       le.Uint32(b[NKValueCountOffset:]),
		ValueListOffset:  le.Uint32(b[NKValueListOffset:]),
		SecurityOffset:   le.Uint32(b[NKSecurityOffset:]),
		ClassNameOffset:  le.Uint32(b[NKClassNameOffset:]),
		NameLength:       le.Uint16(b[NKNameLenOffset:]),
		ClassLength:      le.Uint16(b[NKClassLenOffset:]),
	}
	if nk.SubkeyCount > MaxSubkeyCount {
		return NKRecord{}, fmt.Errorf("nk subkey count %d exceeds limit %d: %w",
			nk.SubkeyCount, MaxSubkeyCount, ErrSanityLimit)
	}
	if nk.ValueCount > MaxValueCount {
		return NKRecord{}, fmt.Errorf("nk value count %d exceeds limit %d: %w",
			nk.ValueCount, MaxValueCount, ErrSanityLimit)
	}
	end := NKNameOffset + int(nk.NameLength)
	if end > len(b) {
		return NKRecord{}, fmt.Errorf("nk name: %w (need %d bytes from %d, have %d)",
			ErrTruncated, nk.NameLength, NKNameOffset, len(b))
	}
	nk.NameRaw = b[NKNameOffset:end]
	return nk, nil
}
