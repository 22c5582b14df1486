package rules

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/joshuapare/hivebatch/internal/match"
	"github.com/joshuapare/hivebatch/pkg/types"
)

func validateDocument(rs *RuleSet, rep *Report) {
	if strings.TrimSpace(rs.Description) == "" {
		rep.add(Issue{Field: "Description", Rule: -1, Message: "document Description is required"})
	}
	if rs.ID != "" {
		if _, err := uuid.Parse(rs.ID); err != nil {
			rep.add(Issue{Field: "Id", Rule: -1, Message: fmt.Sprintf("Id must be a GUID, got %q", rs.ID)})
		}
	}
}

func validateRule(i int, raw rawRule, rule *Rule, rep *Report) {
	issue := func(field, msg string) {
		rep.add(Issue{Field: field, Rule: i, Line: rule.Line, Message: msg})
	}

	if rule.KeyPath == "" {
		issue("KeyPath", "KeyPath is required")
	} else if n := strings.Count(rule.KeyPath, match.Wildcard); n > 1 {
		issue("KeyPath", fmt.Sprintf("KeyPath may contain at most one wildcard, found %d", n))
	}

	switch ht := strings.TrimSpace(raw.HiveType); {
	case ht == "":
		issue("HiveType", "HiveType is required")
	default:
		parsed, ok := types.ParseHiveType(ht)
		if !ok {
			issue("HiveType", fmt.Sprintf("unknown HiveType %q", ht))
		}
		rule.HiveType = parsed
	}

	if rule.Description == "" {
		issue("Description", "Description is required")
	}
	if rule.Category == "" {
		issue("Category", "Category is required")
	}
	if rule.ValueName != "" && rule.Recursive {
		issue("Recursive", "Recursive must be false when ValueName is set")
	}
}
