package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Issue is one validation failure. Rule is the 0-based index of the rule in
// Keys, or -1 for document level issues.
type Issue struct {
	Field   string
	Rule    int
	Line    int
	Message string
}

func (i Issue) String() string {
	var b strings.Builder
	if i.Rule >= 0 {
		fmt.Fprintf(&b, "Keys[%d]", i.Rule)
		if i.Field != "" {
			b.WriteString("." + i.Field)
		}
	} else if i.Field != "" {
		b.WriteString(i.Field)
	} else {
		b.WriteString("document")
	}
	if i.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", i.Line)
	}
	b.WriteString(": " + i.Message)
	return b.String()
}

// SyntaxError describes a document that is not valid YAML.
type SyntaxError struct {
	Line    int
	Column  int
	BadLine string
	HasTabs bool
	Message string
	// Annotated is the document with every tab shown as <TAB>. It is only
	// set when the document contains tabs.
	Annotated string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return "syntax error: " + e.Message
}

// Report collects everything wrong with a document.
type Report struct {
	Source string
	Syntax *SyntaxError
	Issues []Issue
}

// OK reports whether the document can be used.
func (r *Report) OK() bool {
	return r == nil || (r.Syntax == nil && len(r.Issues) == 0)
}

// Err returns nil for a clean report and a summary error otherwise.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	src := r.Source
	if src == "" {
		src = "batch document"
	}
	if r.Syntax != nil {
		return fmt.Errorf("%s: %w", src, r.Syntax)
	}
	return fmt.Errorf("%s had %d validation error(s)", src, len(r.Issues))
}

// Lines renders the report for display, one message per line.
func (r *Report) Lines() []string {
	if r.OK() {
		return nil
	}
	var out []string
	if s := r.Syntax; s != nil {
		out = append(out, s.Error())
		if s.BadLine != "" {
			out = append(out, fmt.Sprintf("Bad line (or close to it) %q has invalid data at column %d", s.BadLine, s.Column))
		}
		if s.HasTabs {
			out = append(out, "Bad line contains one or more tab characters. Replace them with spaces")
		}
		if s.Annotated != "" {
			out = append(out, strings.Split(strings.TrimRight(s.Annotated, "\n"), "\n")...)
		}
		return out
	}
	for _, i := range r.Issues {
		out = append(out, i.String())
	}
	return out
}

func (r *Report) add(i Issue) {
	r.Issues = append(r.Issues, i)
}

var lineRe = regexp.MustCompile(`line (\d+)`)

func lineOf(msg string) int {
	m := lineRe.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func newSyntaxError(data []byte, err error) *SyntaxError {
	text := string(data)
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	msg := strings.TrimPrefix(err.Error(), "yaml: ")

	se := &SyntaxError{Line: lineOf(msg), Message: msg}
	if se.Line == 0 {
		// fall back to the first line indented with a tab
		for i, l := range lines {
			if strings.HasPrefix(strings.TrimLeft(l, " "), "\t") {
				se.Line = i + 1
				break
			}
		}
	}
	if se.Line > 0 && se.Line <= len(lines) {
		se.BadLine = lines[se.Line-1]
		if idx := strings.IndexByte(se.BadLine, '\t'); idx >= 0 {
			se.Column = idx + 1
		} else {
			se.Column = len(se.BadLine) - len(strings.TrimLeft(se.BadLine, " ")) + 1
		}
	}
	if strings.Contains(text, "\t") {
		se.HasTabs = true
		se.Annotated = strings.ReplaceAll(text, "\t", "<TAB>")
	}
	return se
}
