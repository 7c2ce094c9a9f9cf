// Package strutil holds small helpers for identifier lists.
package strutil

import "strings"

// Dedupe trims each value and drops blanks and repeats, keeping first-seen
// order. A nil or empty input is returned unchanged.
func Dedupe(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
