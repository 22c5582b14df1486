package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// VKRecord models a value key record header. VK cells describe registry values
// and reference the actual data payload (either inline or via another cell).
type VKRecord struct {
	NameLength uint16
	DataLength uint32
	DataOffset uint32
	Type       uint32
	Flags      uint16
	NameRaw    []byte
}

// NameIsASCII reports whether the name is stored as ANSI bytes (flag 0x01).
func (vk VKRecord) NameIsASCII() bool {
	return vk.Flags&VKFlagASCIIName != 0
}

// Name decodes the value name. The default value has an empty name.
func (vk VKRecord) Name() string {
	return DecodeName(vk.NameRaw, vk.NameIsASCII())
}

// DataInline reports whether the data is stored within the DataOffset field.
func (vk VKRecord) DataInline() bool {
	return vk.DataLength&VKDataInlineBit != 0
}

// Length returns the logical data length with the inline bit masked off.
func (vk VKRecord) Length() int {
	return int(vk.DataLength & VKDataLengthMask)
}

// DecodeVK decodes a VK record payload with bounds checking.
func DecodeVK(b []byte) (VKRecord, error) {
	if len(b) < VKMinSize {
		return VKRecord{}, fmt.Errorf("vk: %w (have %d, need %d)", ErrTruncated, len(b), VKMinSize)
	}
	if !bytes.Equal(b[:SignatureSize], VKSignature) {
		return VKRecord{}, fmt.Errorf("vk: %w", ErrSignatureMismatch)
	}
	le := binary.LittleEndian
	vk := VKRecord{
		NameLength: le.Uint16(b[VKNameLenOffset:]),
		DataLength: le.Uint32(b[VKDataLenOffset:]),
		DataOffset: le.Uint32(b[VKDataOffOffset:]),
		Type:       le.Uint32(b[VKTypeOffset:]),
		Flags:      le.Uint16(b[VKFlagsOffset:]),
	}
	if vk.Length() > MaxValueDataLen {
		return VKRecord{}, fmt.Errorf("vk data len %d exceeds limit %d: %w",
			vk.Length(), MaxValueDataLen, ErrSanityLimit)
	}
	end := VKNameOffset + int(vk.NameLength)
	if end > len(b) {
		return VKRecord{}, fmt.Errorf("vk name: %w (need %d bytes from %d, have %d)",
			ErrTruncated, vk.NameLength, VKNameOffset, len(b))
	}
	vk.NameRaw = b[VKNameOffset:end]
	return vk, nil
}
