// Package rules loads and validates batch documents: YAML files listing the
// keys and values to extract from each hive type.
package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/hivebatch/pkg/types"
)

// Rule selects a key, optionally one of its values, in hives of one type.
type Rule struct {
	Description string         `yaml:"Description"`
	HiveType    types.HiveType `yaml:"HiveType"`
	Category    string         `yaml:"Category"`
	KeyPath     string         `yaml:"KeyPath"`
	ValueName   string         `yaml:"ValueName,omitempty"`
	Recursive   bool           `yaml:"Recursive"`
	Comment     string         `yaml:"Comment,omitempty"`

	// Line is the 1-based line of the rule in its document.
	Line int `yaml:"-"`
}

// RuleSet is a validated batch document.
type RuleSet struct {
	Description string `yaml:"Description"`
	Author      string `yaml:"Author"`
	Version     int    `yaml:"Version"`
	ID          string `yaml:"Id"`
	Keys        []Rule `yaml:"Keys"`
}

// document mirrors the YAML layout before validation.
type document struct {
	Description string    `yaml:"Description"`
	Author      string    `yaml:"Author"`
	Version     int       `yaml:"Version"`
	ID          string    `yaml:"Id"`
	Keys        []rawRule `yaml:"Keys"`
}

type rawRule struct {
	Description string `yaml:"Description"`
	HiveType    string `yaml:"HiveType"`
	Category    string `yaml:"Category"`
	KeyPath     string `yaml:"KeyPath"`
	ValueName   string `yaml:"ValueName"`
	Recursive   bool   `yaml:"Recursive"`
	Comment     string `yaml:"Comment"`
}

// LoadFile reads and validates the document at path. An unreadable file is
// reported as a document issue.
func LoadFile(path string) (*RuleSet, *Report) {
	data, err := os.ReadFile(path)
	if err != nil {
		r := &Report{Source: path}
		r.add(Issue{Field: "", Rule: -1, Message: err.Error()})
		return nil, r
	}
	rs, rep := Load(data)
	rep.Source = path
	return rs, rep
}

// Load parses and validates a batch document. When the returned report is
// not empty the rule set must not be used; it is nil for syntax errors.
func Load(data []byte) (*RuleSet, *Report) {
	rep := &Report{}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		rep.Syntax = newSyntaxError(data, err)
		return nil, rep
	}
	if len(root.Content) == 0 {
		rep.add(Issue{Rule: -1, Message: "document is empty"})
		return nil, rep
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		var te *yaml.TypeError
		if !errors.As(err, &te) {
			rep.Syntax = newSyntaxError(data, err)
			return nil, rep
		}
		for _, msg := range te.Errors {
			rep.add(Issue{Rule: -1, Line: lineOf(msg), Message: msg})
		}
		return nil, rep
	}

	lines := ruleLines(&root)
	rs := &RuleSet{
		Description: doc.Description,
		Author:      doc.Author,
		Version:     doc.Version,
		ID:          doc.ID,
		Keys:        make([]Rule, 0, len(doc.Keys)),
	}
	validateDocument(rs, rep)
	if len(doc.Keys) == 0 {
		rep.add(Issue{Field: "Keys", Rule: -1, Line: keysLine(&root), Message: "at least one key is required"})
	}
	for i, raw := range doc.Keys {
		line := 0
		if i < len(lines) {
			line = lines[i]
		}
		rule := Rule{
			Description: strings.TrimSpace(raw.Description),
			Category:    strings.TrimSpace(raw.Category),
			KeyPath:     strings.Trim(strings.TrimSpace(raw.KeyPath), `\`),
			ValueName:   raw.ValueName,
			Recursive:   raw.Recursive,
			Comment:     raw.Comment,
			Line:        line,
		}
		validateRule(i, raw, &rule, rep)
		rs.Keys = append(rs.Keys, rule)
	}
	return rs, rep
}

// ruleLines returns the line of each item in the Keys sequence.
func ruleLines(root *yaml.Node) []int {
	seq := keysNode(root)
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]int, len(seq.Content))
	for i, n := range seq.Content {
		out[i] = n.Line
	}
	return out
}

func keysLine(root *yaml.Node) int {
	if n := keysNode(root); n != nil {
		return n.Line
	}
	return 0
}

func keysNode(root *yaml.Node) *yaml.Node {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil
	}
	m := root.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == "Keys" {
			return m.Content[i+1]
		}
	}
	return nil
}

// Summary renders a one-line description of a rule for logs.
func (r Rule) Summary() string {
	if r.ValueName != "" {
		return fmt.Sprintf(`%s\%s (%s)`, r.KeyPath, r.ValueName, r.HiveType)
	}
	return fmt.Sprintf("%s (%s, recursive=%t)", r.KeyPath, r.HiveType, r.Recursive)
}
