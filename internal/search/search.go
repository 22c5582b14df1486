// Package search finds keys and values in a hive by name, data, slack, size
// or embedded base64 content.
package search

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/hivebatch/pkg/hive"
	"github.com/joshuapare/hivebatch/pkg/types"
)

// Region says which part of a key or value a hit was found in.
type Region string

const (
	RegionKeyName   Region = "key name"
	RegionValueName Region = "value name"
	RegionData      Region = "data"
	RegionSlack     Region = "slack"
	RegionSize      Region = "size"
	RegionBase64    Region = "base64"
)

// Mode selects how a term is interpreted.
type Mode struct {
	// Regex treats the term as a case-insensitive regular expression.
	Regex bool
	// Literal matches the rendered data as-is, without trying byte
	// encodings of the term.
	Literal bool
}

// Hit is one match.
type Hit struct {
	Key       *hive.Key
	Value     *hive.Value // nil for key name hits
	HitString string
	Region    Region
	Deleted   bool
}

// Engine searches one hive.
type Engine struct {
	h *hive.Hive
}

// New returns an engine over h.
func New(h *hive.Hive) *Engine {
	return &Engine{h: h}
}

// KeyName finds keys whose name contains term.
func (e *Engine) KeyName(term string, mode Mode) ([]Hit, error) {
	re, err := compile(term, mode.Regex)
	if err != nil {
		return nil, err
	}
	var hits []Hit
	err = e.h.Walk(func(k *hive.Key) error {
		if k.Parent() == nil {
			return nil
		}
		if m := re.FindString(k.Name()); m != "" {
			hits = append(hits, Hit{Key: k, HitString: m, Region: RegionKeyName, Deleted: k.Deleted()})
		}
		return nil
	})
	return hits, err
}

// ValueName finds values whose name contains term.
func (e *Engine) ValueName(term string, mode Mode) ([]Hit, error) {
	re, err := compile(term, mode.Regex)
	if err != nil {
		return nil, err
	}
	return e.values(func(v *hive.Value) (string, bool) {
		m := re.FindString(v.Name())
		return m, m != ""
	}, RegionValueName)
}

// ValueData finds values whose data contains term. The rendered data string
// is always searched. Unless mode is literal, values that do not render as
// text are also searched as Windows-1252 and UTF-16LE text, and the hit
// string is the matching decoded text.
func (e *Engine) ValueData(term string, mode Mode) ([]Hit, error) {
	re, err := compile(term, mode.Regex)
	if err != nil {
		return nil, err
	}
	return e.values(func(v *hive.Value) (string, bool) {
		if m := re.FindString(v.Data()); m != "" {
			return m, true
		}
		if mode.Literal || v.Type().IsString() {
			return "", false
		}
		return findInBytes(re, v.Raw())
	}, RegionData)
}

// ValueSlack finds values whose slack bytes contain term. Literal mode
// matches the dash separated hex rendering of the slack.
func (e *Engine) ValueSlack(term string, mode Mode) ([]Hit, error) {
	re, err := compile(term, mode.Regex)
	if err != nil {
		return nil, err
	}
	return e.values(func(v *hive.Value) (string, bool) {
		slack := v.Slack()
		if len(slack) == 0 {
			return "", false
		}
		if mode.Literal {
			m := re.FindString(hive.HexString(slack))
			if m == "" {
				m = re.FindString(strings.ReplaceAll(hive.HexString(slack), "-", ""))
			}
			return m, m != ""
		}
		return findInBytes(re, slack)
	}, RegionSlack)
}

// ValueSize finds values holding at least minSize bytes of data.
func (e *Engine) ValueSize(minSize int) ([]Hit, error) {
	return e.values(func(v *hive.Value) (string, bool) {
		if len(v.Raw()) < minSize {
			return "", false
		}
		return fmt.Sprint(len(v.Raw())), true
	}, RegionSize)
}

// Base64 finds string values whose whole data is valid base64 encoding at
// least minLen bytes.
func (e *Engine) Base64(minLen int) ([]Hit, error) {
	return e.values(func(v *hive.Value) (string, bool) {
		if !v.Type().IsString() {
			return "", false
		}
		s := strings.TrimSpace(v.Data())
		if len(s) < 4 || len(s)%4 != 0 {
			return "", false
		}
		dec, err := base64.StdEncoding.DecodeString(s)
		if err != nil || len(dec) < minLen {
			return "", false
		}
		return s, true
	}, RegionBase64)
}

func (e *Engine) values(match func(*hive.Value) (string, bool), region Region) ([]Hit, error) {
	var hits []Hit
	err := e.h.Walk(func(k *hive.Key) error {
		for _, v := range k.Values() {
			if s, ok := match(v); ok {
				hits = append(hits, Hit{
					Key:       k,
					Value:     v,
					HitString: s,
					Region:    region,
					Deleted:   k.Deleted() || v.Deleted(),
				})
			}
		}
		return nil
	})
	return hits, err
}

func compile(term string, regex bool) (*regexp.Regexp, error) {
	if term == "" {
		return nil, fmt.Errorf("empty search term")
	}
	if !regex {
		term = regexp.QuoteMeta(term)
	}
	re, err := regexp.Compile("(?i)" + term)
	if err != nil {
		return nil, fmt.Errorf("invalid search pattern %q: %w", term, err)
	}
	return re, nil
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// findInBytes matches re against b read as Windows-1252 text and as UTF-16LE
// text at both byte alignments.
func findInBytes(re *regexp.Regexp, b []byte) (string, bool) {
	if s, err := charmap.Windows1252.NewDecoder().Bytes(b); err == nil {
		if m := re.Find(s); m != nil {
			return string(m), true
		}
	}
	for shift := 0; shift < 2 && shift < len(b); shift++ {
		raw := b[shift:]
		if len(raw)%2 == 1 {
			raw = raw[:len(raw)-1]
		}
		s, err := utf16le.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		if m := re.Find(s); m != nil {
			return string(m), true
		}
	}
	return "", false
}

// HighlightTerms returns the distinct words to highlight when displaying
// hits found for term. Name searches highlight the term. Data searches
// highlight the decoded hit for binary values unless the term is a regex.
// Slack searches highlight the hit unless the term is a regex.
func HighlightTerms(hits []Hit, term string, regex bool) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, h := range hits {
		switch h.Region {
		case RegionData:
			if !regex && h.Value != nil && h.Value.Type() == types.REG_BINARY {
				add(h.HitString)
			} else {
				add(term)
			}
		case RegionSlack:
			if regex {
				add(term)
			} else {
				add(h.HitString)
			}
		case RegionKeyName, RegionValueName:
			add(term)
		}
	}
	return out
}
