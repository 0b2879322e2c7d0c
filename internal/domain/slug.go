package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	separatorRun    = regexp.MustCompile(`[\s_\-]+`)
	notWorkoutChars = regexp.MustCompile(`[^a-z0-9\s]`)
	notGoalChars    = regexp.MustCompile(`[^a-z0-9_]`)
	notSlugChars    = regexp.MustCompile(`[^a-z0-9\s_\-]`)
)

// UnderscoreName lowercases s and replaces every single space with '_'.
// Used for categories and exercises.
func UnderscoreName(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}

// EquipmentName lowercases s and collapses whitespace runs into '_'.
func EquipmentName(s string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(s), "_")
}

// WorkoutName keeps only lowercase letters, digits and spaces, then joins words with '_'.
func WorkoutName(s string) string {
	s = notWorkoutChars.ReplaceAllString(strings.ToLower(s), "")
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), "_")
}

// GoalName lowercases s, turns spaces into '_' and drops everything outside [a-z0-9_].
func GoalName(s string) string {
	return notGoalChars.ReplaceAllString(UnderscoreName(s), "")
}

// Slug produces an ASCII slug joined by '_': accents are folded, separators
// collapse, other punctuation is dropped. Used for focus areas.
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ReplaceAll(strings.ToLower(folded), "@", " at ")
	folded = notSlugChars.ReplaceAllString(folded, "")
	folded = separatorRun.ReplaceAllString(folded, "_")
	return strings.Trim(folded, "_")
}
