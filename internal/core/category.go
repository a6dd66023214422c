package core

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CategoryMatch is the result of checking a category against the known
// list. An unknown category is accepted, not rejected; Suggestions carry
// the closest known names so callers can surface an advisory.
type CategoryMatch struct {
	Category    string
	Known       bool
	Suggestions []string
}

// NormalizeCategory collapses whitespace and title-cases the result.
// Returns ErrEmptyCategory when nothing remains.
func NormalizeCategory(s string) (string, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", ErrEmptyCategory
	}
	caser := cases.Title(language.Und)
	return caser.String(strings.Join(fields, " ")), nil
}

// CheckCategory matches a normalized category against the known list:
// case-insensitive exact match first (returning the canonical name), then
// substring match in either direction for suggestions. A linear scan is
// enough here; the known list is tiny.
func CheckCategory(category string, known []string) CategoryMatch {
	lower := strings.ToLower(category)
	for _, k := range known {
		if strings.ToLower(k) == lower {
			return CategoryMatch{Category: k, Known: true}
		}
	}

	var suggestions []string
	for _, k := range known {
		kl := strings.ToLower(k)
		if strings.Contains(kl, lower) || strings.Contains(lower, kl) {
			suggestions = append(suggestions, k)
		}
	}
	return CategoryMatch{Category: category, Suggestions: suggestions}
}
