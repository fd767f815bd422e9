// Package strings normalizes free text entered in forms.
package strings

import (
	"strings"
)

// Keywords trims each keyword, collapses inner runs of whitespace and drops
// blanks and case-insensitive repeats. The first spelling wins.
func Keywords(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		k := strings.Join(strings.Fields(v), " ")
		if k == "" {
			continue
		}
		folded := strings.ToLower(k)
		if seen[folded] {
			continue
		}
		seen[folded] = true
		out = append(out, k)
	}
	return out
}
