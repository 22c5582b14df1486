package match

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		filter    string
		keyPath   string
		valueName string
		want      bool
	}{
		{"wildcard prefix only", `Software\Microsoft\*`, "", `Software\Microsoft\Office`, "", true},
		{"wildcard prefix mismatch", `Software\Classes\*`, "", `Software\Microsoft\Office`, "", false},
		{"wildcard prefix and suffix", `Software\*\Run`, "", `Software\Microsoft\Windows\Run`, "", true},
		{"wildcard suffix mismatch", `Software\*\Run`, "", `Software\Microsoft\Windows\RunOnce`, "", false},
		{"wildcard case insensitive", `SOFTWARE\*\run`, "", `software\x\Run`, "", true},
		{"wildcard filter equal", `Software\*`, "Shell", `Software\a`, "shell", true},
		{"wildcard filter differs", `Software\*`, "Shell", `Software\a`, "Other", false},
		{"wildcard filter with empty value name", `Software\*`, "Shell", `Software\a`, "", false},
		{"exact no filter", `Software\Run`, "", `software\run`, "", true},
		{"exact with filter equal", `Software\Run`, "Foo", `Software\Run`, "FOO", true},
		{"exact with filter differs", `Software\Run`, "Foo", `Software\Run`, "Bar", false},
		{"key path not contained", `Software\Run`, "", `Software\RunOnce`, "", false},
		// the pattern contains the key path; with no filter on either side
		// the empty names compare equal and the pattern matches
		{"substring over-match", `Software\Microsoft\Windows\Run`, "", `Software`, "", true},
		{"substring with filter needs value", `Software\Microsoft\Windows\Run`, "Foo", `Software`, "", false},
		{"substring no filter but rule value", `Software\Microsoft\Windows\Run`, "", `Software`, "Foo", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.pattern, tt.filter, tt.keyPath, tt.valueName))
		})
	}
}

func TestPath(t *testing.T) {
	assert.True(t, Path(`Software\*\Run`, `software\ms\run`))
	assert.False(t, Path(`Software\*\Run`, `Software\Run`), "prefix and suffix may not overlap")
	assert.True(t, Path(`Software\Run`, `SOFTWARE\RUN`))
	assert.False(t, Path(`Software\Run`, `Software`))
	assert.True(t, HasWildcard(`a\*`))
	assert.False(t, HasWildcard(`a\b`))
}

var segment = rapid.StringMatching(`[A-Za-z0-9 ._-]{1,8}`)

func keyPathGen() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		parts := rapid.SliceOfN(segment, 1, 5).Draw(t, "parts")
		return strings.Join(parts, `\`)
	})
}

// For non-wildcard patterns with no filter and no rule value name, a match
// happens exactly when the pattern contains the key path.
func TestPropertyNonWildcardIsContainment(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pattern := keyPathGen().Draw(t, "pattern")
		keyPath := keyPathGen().Draw(t, "keyPath")
		want := strings.Contains(strings.ToLower(pattern), strings.ToLower(keyPath))
		if got := Matches(pattern, "", keyPath, ""); got != want {
			t.Fatalf("Matches(%q, %q) = %v, want %v", pattern, keyPath, got, want)
		}
	})
}

// Any key path contained in a pattern matches it, including proper prefixes.
func TestPropertyContainedPathsMatch(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pattern := keyPathGen().Draw(t, "pattern")
		i := rapid.IntRange(0, len(pattern)-1).Draw(t, "i")
		j := rapid.IntRange(i+1, len(pattern)).Draw(t, "j")
		sub := pattern[i:j]
		if !Matches(pattern, "", sub, "") {
			t.Fatalf("pattern %q should match contained %q", pattern, sub)
		}
		if !Matches(strings.ToUpper(pattern), "", strings.ToLower(sub), "") {
			t.Fatalf("case folding broke containment for %q / %q", pattern, sub)
		}
	})
}

// A wildcard pattern built from a key path's own prefix and suffix always
// matches that key path, and the filter decides the rest.
func TestPropertyWildcardPrefixSuffix(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keyPath := keyPathGen().Draw(t, "keyPath")
		i := rapid.IntRange(0, len(keyPath)).Draw(t, "split")
		j := rapid.IntRange(i, len(keyPath)).Draw(t, "suffixStart")
		pattern := keyPath[:i] + Wildcard + keyPath[j:]
		if !Matches(pattern, "", keyPath, "") {
			t.Fatalf("pattern %q should match %q", pattern, keyPath)
		}
		filter := segment.Draw(t, "filter")
		if !Matches(pattern, filter, keyPath, strings.ToUpper(filter)) {
			t.Fatalf("filter %q should match value name case-insensitively", filter)
		}
		other := filter + "x"
		if Matches(pattern, filter, keyPath, other) {
			t.Fatalf("filter %q should not match %q", filter, other)
		}
	})
}

// Matching never depends on the case of any argument.
func TestPropertyCaseInsensitive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pattern := keyPathGen().Draw(t, "pattern")
		if rapid.Bool().Draw(t, "wild") {
			pattern += Wildcard
		}
		keyPath := keyPathGen().Draw(t, "keyPath")
		filter := rapid.SampledFrom([]string{"", "Value"}).Draw(t, "filter")
		valueName := rapid.SampledFrom([]string{"", "value", "other"}).Draw(t, "valueName")
		a := Matches(pattern, filter, keyPath, valueName)
		b := Matches(strings.ToUpper(pattern), strings.ToLower(filter), strings.ToLower(keyPath), strings.ToUpper(valueName))
		if a != b {
			t.Fatalf("case changed result for %q %q %q %q", pattern, filter, keyPath, valueName)
		}
	})
}
