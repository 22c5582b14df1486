package format

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// DecodeName decodes an NK/VK name. Compressed names are Windows-1252,
// everything else is UTF-16LE.
func DecodeName(raw []byte, compressed bool) string {
	if len(raw) == 0 {
		return ""
	}
	if compressed {
		if isASCII(raw) {
			return string(raw)
		}
		out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return string(raw)
		}
		return string(out)
	}
	return DecodeUTF16(raw)
}

// DecodeUTF16 decodes UTF-16LE bytes, dropping a trailing odd byte and
// anything after the first NUL terminator.
func DecodeUTF16(raw []byte) string {
	if len(raw)%2 == 1 {
		raw = raw[:len(raw)-1]
	}
	out, err := utf16le.NewDecoder().Bytes(raw)
	if err != nil {
		return ""
	}
	s := string(out)
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return s
}

// EncodeUTF16 encodes s as UTF-16LE without a BOM or terminator.
func EncodeUTF16(s string) []byte {
	out, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil
	}
	return out
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
