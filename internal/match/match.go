// Package match decides whether a plugin key path pattern applies to a
// registry key visited by a batch rule.
//
// Patterns come in two forms. A pattern containing "*" is split at the first
// wildcard into a prefix and an optional suffix; the key path must start with
// the prefix and, when a suffix is present, end with it. A pattern without a
// wildcard must contain the key path as a substring, so short key paths such
// as "Software" match many patterns.
//
// All comparisons ignore case.
package match

import "strings"

// Wildcard is the single wildcard marker allowed in a key path pattern.
const Wildcard = "*"

// Matches reports whether pattern selects keyPath.
//
// filter is the value name the pattern owner is interested in; an empty
// filter means "any value". valueName is the value name the caller is
// asking about (a rule's value filter), empty when the caller wants the
// whole key.
func Matches(pattern, filter, keyPath, valueName string) bool {
	p := strings.ToLower(pattern)
	k := strings.ToLower(keyPath)

	if prefix, suffix, ok := strings.Cut(p, Wildcard); ok {
		if !strings.HasPrefix(k, prefix) {
			return false
		}
		if suffix != "" && !strings.HasSuffix(k, suffix) {
			return false
		}
		if filter == "" {
			return true
		}
		return strings.EqualFold(filter, valueName)
	}

	if !strings.Contains(p, k) {
		return false
	}
	if filter == "" && p == k {
		return true
	}
	return strings.EqualFold(filter, valueName)
}

// Path reports whether a key path matches pattern on position alone, without
// the value name rules. It is used to expand wildcard rule paths.
func Path(pattern, keyPath string) bool {
	p := strings.ToLower(pattern)
	k := strings.ToLower(keyPath)
	prefix, suffix, ok := strings.Cut(p, Wildcard)
	if !ok {
		return p == k
	}
	return len(k) >= len(prefix)+len(suffix) && strings.HasPrefix(k, prefix) && strings.HasSuffix(k, suffix)
}

// HasWildcard reports whether pattern contains the wildcard marker.
func HasWildcard(pattern string) bool {
	return strings.Contains(pattern, Wildcard)
}
