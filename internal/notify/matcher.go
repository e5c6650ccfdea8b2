package notify

import "strings"

// Matchers is a parsed list of check-in aliases.
type Matchers []string

// ParseMatchers splits a comma-separated alias list. Blank entries are
// dropped and duplicates (ignoring case) are kept once, in first-seen order.
func ParseMatchers(s string) Matchers {
	var out Matchers
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key := strings.ToLower(part)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, part)
	}
	return out
}

// Match reports whether any alias occurs in author, ignoring case.
func (m Matchers) Match(author string) bool {
	author = strings.ToLower(author)
	for _, alias := range m {
		if strings.Contains(author, strings.ToLower(alias)) {
			return true
		}
	}
	return false
}
