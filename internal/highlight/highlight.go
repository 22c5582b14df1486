// Package highlight marks search terms in console output.
package highlight

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// MatchStyle renders highlighted terms, red on green.
	MatchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4B4B")).
			Background(lipgloss.Color("#04B575"))

	// DeletedStyle renders lines describing deleted keys and values.
	DeletedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)
)

// Highlighter holds the terms of the current search pass. Matching ignores
// case and is not restricted to whole words.
type Highlighter struct {
	style lipgloss.Style
	rules []*regexp.Regexp
}

// New returns a highlighter rendering matches with style.
func New(style lipgloss.Style) *Highlighter {
	return &Highlighter{style: style}
}

// Set replaces the current terms. When regex is false terms are matched
// literally. Empty terms are ignored.
func (h *Highlighter) Set(terms []string, regex bool) error {
	h.rules = h.rules[:0]
	for _, t := range terms {
		if t == "" {
			continue
		}
		expr := t
		if !regex {
			expr = regexp.QuoteMeta(t)
		}
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			h.rules = nil
			return fmt.Errorf("highlight term %q: %w", t, err)
		}
		h.rules = append(h.rules, re)
	}
	return nil
}

// Clear drops every term.
func (h *Highlighter) Clear() { h.rules = nil }

// Active reports whether any term is set.
func (h *Highlighter) Active() bool { return len(h.rules) > 0 }

// Apply returns text with every match of every term styled. Overlapping
// matches are merged.
func (h *Highlighter) Apply(text string) string {
	if len(h.rules) == 0 || text == "" {
		return text
	}
	var spans [][2]int
	for _, re := range h.rules {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if loc[1] > loc[0] {
				spans = append(spans, [2]int{loc[0], loc[1]})
			}
		}
	}
	if len(spans) == 0 {
		return text
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s[0] <= last[1] {
			last[1] = max(last[1], s[1])
			continue
		}
		merged = append(merged, s)
	}

	var b strings.Builder
	pos := 0
	for _, s := range merged {
		b.WriteString(text[pos:s[0]])
		b.WriteString(h.style.Render(text[s[0]:s[1]]))
		pos = s[1]
	}
	b.WriteString(text[pos:])
	return b.String()
}
