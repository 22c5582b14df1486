package output

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDateFormat renders timestamps with seven fractional digits.
const DefaultDateFormat = "yyyy-MM-dd HH:mm:ss.fffffff"

// RunTimestampFormat names output files for one run.
const RunTimestampFormat = "yyyyMMddHHmmss"

// FormatTime renders t using a .NET style custom format string, the notation
// rule authors already use for --dt. Supported specifiers: yyyy yy MM M dd d
// HH H hh h mm m ss s f..fffffff F..FFFFFFF tt zzz K, 'quoted' literals and
// backslash escapes. Anything else is copied through.
func FormatTime(t time.Time, layout string) string {
	if layout == "" {
		layout = DefaultDateFormat
	}
	var b strings.Builder
	for i := 0; i < len(layout); {
		c := layout[i]
		switch c {
		case '\'', '"':
			end := strings.IndexByte(layout[i+1:], c)
			if end < 0 {
				b.WriteString(layout[i+1:])
				return b.String()
			}
			b.WriteString(layout[i+1 : i+1+end])
			i += end + 2
			continue
		case '\\':
			if i+1 < len(layout) {
				b.WriteByte(layout[i+1])
			}
			i += 2
			continue
		}

		n := 1
		for i+n < len(layout) && layout[i+n] == c {
			n++
		}
		b.WriteString(specifier(t, c, n))
		i += n
	}
	return b.String()
}

func specifier(t time.Time, c byte, n int) string {
	switch c {
	case 'y':
		if n <= 2 {
			return pad(t.Year()%100, n)
		}
		return pad(t.Year(), n)
	case 'M':
		if n >= 4 {
			return t.Month().String()
		}
		if n == 3 {
			return t.Month().String()[:3]
		}
		return pad(int(t.Month()), n)
	case 'd':
		if n >= 4 {
			return t.Weekday().String()
		}
		if n == 3 {
			return t.Weekday().String()[:3]
		}
		return pad(t.Day(), n)
	case 'H':
		return pad(t.Hour(), min(n, 2))
	case 'h':
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		return pad(h, min(n, 2))
	case 'm':
		return pad(t.Minute(), min(n, 2))
	case 's':
		return pad(t.Second(), min(n, 2))
	case 'f', 'F':
		n = min(n, 7)
		frac := fmt.Sprintf("%09d", t.Nanosecond())[:n]
		if c == 'F' {
			frac = strings.TrimRight(frac, "0")
		}
		return frac
	case 't':
		ampm := "AM"
		if t.Hour() >= 12 {
			ampm = "PM"
		}
		if n == 1 {
			return ampm[:1]
		}
		return ampm
	case 'z', 'K':
		_, off := t.Zone()
		sign := '+'
		if off < 0 {
			sign = '-'
			off = -off
		}
		if c == 'K' && off == 0 && t.Location() == time.UTC {
			return "Z"
		}
		if c == 'z' && n < 3 {
			return fmt.Sprintf("%c%s", sign, pad(off/3600, n))
		}
		return fmt.Sprintf("%c%02d:%02d", sign, off/3600, (off%3600)/60)
	}
	return strings.Repeat(string(c), n)
}

func pad(v, width int) string {
	return fmt.Sprintf("%0*d", width, v)
}
