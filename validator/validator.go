// Package validator decides whether a candidate SQL statement is safe to
// execute. It is defense-in-depth on top of mandatory parameter binding in
// the executor: both layers must independently prevent unsafe execution.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"evodata/config"
	"evodata/helper"
)

// Verdict is the outcome of validating one statement. Rejection never
// raises; Reason names the rule that fired so callers can message the user.
type Verdict struct {
	Allowed bool
	Reason  string
}

func reject(format string, args ...any) Verdict {
	return Verdict{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// Validator holds the keyword policy. Keyword matching is lexical and
// deliberately over-broad: a deny-listed word is rejected even inside
// comments or string literals, so case tricks, inline comments and quoted
// fragments cannot smuggle one through.
type Validator struct {
	denyKeywords   map[string]struct{}
	allowedLeading map[string]struct{}
	maxQueryLength int
}

// New builds a Validator from explicit keyword lists.
func New(denyKeywords, allowedLeading []string, maxQueryLength int) *Validator {
	return &Validator{
		denyKeywords:   upperSet(denyKeywords),
		allowedLeading: upperSet(allowedLeading),
		maxQueryLength: maxQueryLength,
	}
}

// NewFromConfig builds a Validator from the security section of AppConfig.
func NewFromConfig() *Validator {
	sec := config.AppConfig.Security
	return New(sec.DenyKeywords, sec.AllowedLeading, sec.MaxQueryLength)
}

func upperSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// Validate checks one statement and its named parameters against the policy.
func (v *Validator) Validate(sqlText string, params map[string]any) Verdict {
	trimmed := strings.TrimSpace(sqlText)
	if trimmed == "" {
		return reject("empty statement")
	}
	if v.maxQueryLength > 0 && len(trimmed) > v.maxQueryLength {
		return reject("statement too long (%d chars, max %d)", len(trimmed), v.maxQueryLength)
	}

	if kw := v.findDenyKeyword(trimmed); kw != "" {
		return reject("disallowed keyword: %s", kw)
	}

	scan := scanStatement(trimmed)

	leading := strings.ToUpper(scan.leadingWord)
	if leading == "" {
		return reject("no executable statement found")
	}
	if _, ok := v.allowedLeading[leading]; !ok {
		return reject("statement type %s not permitted, only read queries are allowed", leading)
	}

	if scan.extraStatements {
		return reject("multiple statements are not permitted")
	}

	if reason := matchPlaceholders(scan.placeholders, params); reason != "" {
		return reject("%s", reason)
	}

	return Verdict{Allowed: true}
}

// findDenyKeyword scans the raw text word by word. Words are maximal runs of
// identifier characters, so UPDATE matches but updated_at does not.
func (v *Validator) findDenyKeyword(text string) string {
	upper := strings.ToUpper(text)
	start := -1
	for i := 0; i <= len(upper); i++ {
		var isWord bool
		if i < len(upper) {
			c := upper[i]
			isWord = c == '_' || c == '$' ||
				(c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		}
		if isWord {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if _, deny := v.denyKeywords[upper[start:i]]; deny {
				return upper[start:i]
			}
			start = -1
		}
	}
	return ""
}

// matchPlaceholders requires the :name placeholders and the parameter keys
// to be the same set, in both directions.
func matchPlaceholders(placeholders []string, params map[string]any) string {
	unique := helper.UniqueStrings(placeholders)

	var missing []string
	for _, name := range unique {
		if _, ok := params[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Sprintf("missing parameters: %s", strings.Join(missing, ", "))
	}

	seen := make(map[string]struct{}, len(unique))
	for _, name := range unique {
		seen[name] = struct{}{}
	}
	var unexpected []string
	for name := range params {
		if _, ok := seen[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return fmt.Sprintf("parameters without placeholder: %s", strings.Join(unexpected, ", "))
	}

	return ""
}
