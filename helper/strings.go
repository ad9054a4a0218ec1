package helper

import "strings"

// UniqueStrings returns a new slice with duplicates removed, preserving the first-seen order.
func UniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Truncate shortens s for log lines, keeping the first max runes.
func Truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// NormalizeText collapses whitespace in user input.
func NormalizeText(text string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}
