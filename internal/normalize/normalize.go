// Package normalize validates and repairs engine output before it reaches
// callers. Invalid entries are dropped silently; missing confidences get
// conservative defaults.
package normalize

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"taskmind/pkg/types"
)

const (
	// DefaultConfidence is assigned when the engine omits a confidence
	// or reports one outside [0,1].
	DefaultConfidence = 0.7

	// DefaultDeadlineReason is assigned when a deadline has no reason.
	DefaultDeadlineReason = "AI suggested deadline"

	// MaxSuggestions caps deadline and category lists.
	MaxSuggestions = 5

	// MaxCategoryNameLen is the longest accepted category name.
	MaxCategoryNameLen = 50

	// MaxTitleLen is the longest accepted task title.
	MaxTitleLen = 60

	// DateLayout is the only accepted date format.
	DateLayout = "2006-01-02"
)

// ParseDate parses a strict YYYY-MM-DD date.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ClampConfidence forces f into [0,1]. Values outside the range fall back
// to DefaultConfidence rather than being pinned, since an out-of-range
// confidence signals the engine did not understand the scale.
func ClampConfidence(f float64) float64 {
	if f < 0 || f > 1 {
		return DefaultConfidence
	}
	return f
}

// ClampScore forces a factor score into [0,100].
func ClampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// fillerPrefixes are vague title openers the prompt forbids. Engine output
// is not trusted to honor the prompt, so they are stripped here too.
var fillerPrefixes = []string{"we need to", "complete", "work on"}

// Title trims, collapses internal whitespace, strips vague filler openers,
// and truncates to MaxTitleLen runes. A title that is nothing but filler
// normalizes to the empty string.
func Title(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	stripped := false
	for again := true; again; {
		again = false
		lower := strings.ToLower(s)
		for _, prefix := range fillerPrefixes {
			if lower == prefix {
				return ""
			}
			if strings.HasPrefix(lower, prefix+" ") {
				s = s[len(prefix)+1:]
				stripped = true
				again = true
				break
			}
		}
	}
	if s == "" {
		return ""
	}

	runes := []rune(s)
	if stripped {
		runes[0] = unicode.ToUpper(runes[0])
	}
	if len(runes) > MaxTitleLen {
		return strings.TrimSpace(string(runes[:MaxTitleLen]))
	}
	return string(runes)
}

// Deadline validates one candidate against today. The second return is
// false when the candidate must be discarded: unparseable date or a date
// before today.
func Deadline(raw types.DeadlineCandidate, today time.Time) (types.DeadlineCandidate, bool) {
	date, ok := ParseDate(raw.Date)
	if !ok {
		return types.DeadlineCandidate{}, false
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(day) {
		return types.DeadlineCandidate{}, false
	}

	out := types.DeadlineCandidate{
		Date:       date.Format(DateLayout),
		Confidence: raw.Confidence,
		Reason:     strings.TrimSpace(raw.Reason),
	}
	if out.Confidence == 0 || out.Confidence < 0 || out.Confidence > 1 {
		out.Confidence = DefaultConfidence
	}
	if out.Reason == "" {
		out.Reason = DefaultDeadlineReason
	}
	return out, true
}

// Deadlines normalizes a list: discards invalid entries, sorts by
// confidence descending, and caps the result at MaxSuggestions.
func Deadlines(raw []types.DeadlineCandidate, today time.Time) []types.DeadlineCandidate {
	out := make([]types.DeadlineCandidate, 0, len(raw))
	for _, c := range raw {
		if normalized, ok := Deadline(c, today); ok {
			out = append(out, normalized)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// Category validates one candidate. Discarded when the name is empty after
// trimming or longer than MaxCategoryNameLen.
func Category(raw types.CategoryCandidate) (types.CategoryCandidate, bool) {
	name := strings.TrimSpace(raw.Name)
	if name == "" || utf8.RuneCountInString(name) > MaxCategoryNameLen {
		return types.CategoryCandidate{}, false
	}
	out := types.CategoryCandidate{
		Name:       name,
		Confidence: raw.Confidence,
		Reason:     strings.TrimSpace(raw.Reason),
	}
	if out.Confidence == 0 || out.Confidence < 0 || out.Confidence > 1 {
		out.Confidence = DefaultConfidence
	}
	return out, true
}

// Categories normalizes a list with the same discard, sort and cap
// discipline as Deadlines.
func Categories(raw []types.CategoryCandidate) []types.CategoryCandidate {
	out := make([]types.CategoryCandidate, 0, len(raw))
	for _, c := range raw {
		if normalized, ok := Category(c); ok {
			out = append(out, normalized)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}
