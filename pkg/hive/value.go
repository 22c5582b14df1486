package hive

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/joshuapare/hivebatch/internal/format"
	"github.com/joshuapare/hivebatch/pkg/types"
)

// DefaultValueName is how the unnamed default value is displayed.
const DefaultValueName = "(default)"

// Value is a read-only view of a registry value.
type Value struct {
	name    string
	typ     types.RegType
	raw     []byte
	slack   []byte
	deleted bool
	offset  uint32
	key     *Key
}

// Name returns the stored name; the default value has an empty name.
func (v *Value) Name() string { return v.name }

// DisplayName returns the name, or "(default)" for the default value.
func (v *Value) DisplayName() string {
	if v.name == "" {
		return DefaultValueName
	}
	return v.name
}

// Type returns the value type.
func (v *Value) Type() types.RegType { return v.typ }

// Raw returns the logical data bytes.
func (v *Value) Raw() []byte { return v.raw }

// Slack returns bytes in the data cell beyond the logical data length.
func (v *Value) Slack() []byte { return v.slack }

// Deleted reports whether the value belongs to a recovered key.
func (v *Value) Deleted() bool { return v.deleted }

// Key returns the owning key.
func (v *Value) Key() *Key { return v.key }

// Offset returns the hive-bins relative offset of the value's cell.
func (v *Value) Offset() uint32 { return v.offset }

// Data renders the value as text: strings decoded from UTF-16, multi-strings
// joined by spaces, integers in decimal and everything else as dash separated
// hex bytes.
func (v *Value) Data() string {
	switch v.typ {
	case types.REG_SZ, types.REG_EXPAND_SZ, types.REG_LINK:
		return format.DecodeUTF16(v.raw)
	case types.REG_MULTI_SZ:
		return strings.Join(MultiString(v.raw), " ")
	case types.REG_DWORD:
		if len(v.raw) >= format.DWORDSize {
			return strconv.FormatUint(uint64(binary.LittleEndian.Uint32(v.raw)), 10)
		}
	case types.REG_DWORD_BE:
		if len(v.raw) >= format.DWORDSize {
			return strconv.FormatUint(uint64(binary.BigEndian.Uint32(v.raw)), 10)
		}
	case types.REG_QWORD:
		if len(v.raw) >= format.QWORDSize {
			return strconv.FormatUint(binary.LittleEndian.Uint64(v.raw), 10)
		}
	}
	return HexString(v.raw)
}

// MultiString splits a REG_MULTI_SZ payload, dropping empty entries.
func MultiString(raw []byte) []string {
	if len(raw)%2 == 1 {
		raw = raw[:len(raw)-1]
	}
	var out []string
	start := 0
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] == 0 && raw[i+1] == 0 {
			if s := format.DecodeUTF16(raw[start:i]); s != "" {
				out = append(out, s)
			}
			start = i + 2
		}
	}
	if start < len(raw) {
		if s := format.DecodeUTF16(raw[start:]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// HexString renders b as upper-case hex pairs separated by dashes.
func HexString(b []byte) string {
	const digits = "0123456789ABCDEF"
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(b)*3 - 1)
	for i, c := range b {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.WriteByte(digits[c>>4])
		sb.WriteByte(digits[c&0x0f])
	}
	return sb.String()
}
