package matching

import (
	"strings"
	"unicode"

	"github.com/quillreads/quill-go/internal/models"
)

// NormalizeName lowercases a name and strips punctuation and extra
// whitespace, so "Chapter 12 — The Return!" and "chapter 12 the return"
// compare equal.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastSpace := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			// Punctuation collapses into a separator.
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// TitlesMatch reports whether two book titles refer to the same work.
// Exact case-insensitive equality matches first; otherwise one title
// containing the other counts, which catches suffixed variants like
// "My Novel (Official)".
func TitlesMatch(a, b string) bool {
	na := NormalizeName(a)
	nb := NormalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// MatchChapter finds the chapter in candidates that corresponds to the
// given chapter, trying three tiers in order:
//  1. exact normalized-name equality
//  2. chapter number equality (only when both sides have a number)
//  3. fuzzy containment of one normalized name in the other
//
// Returns the index into candidates, or -1 when nothing matches.
func MatchChapter(ch models.Chapter, candidates []models.ChapterResult) int {
	name := NormalizeName(ch.Name)

	if name != "" {
		for i, cand := range candidates {
			if NormalizeName(cand.Name) == name {
				return i
			}
		}
	}

	if ch.Number > 0 {
		for i, cand := range candidates {
			if cand.Number > 0 && cand.Number == ch.Number {
				return i
			}
		}
	}

	if name != "" {
		for i, cand := range candidates {
			candName := NormalizeName(cand.Name)
			if candName == "" {
				continue
			}
			if strings.Contains(candName, name) || strings.Contains(name, candName) {
				return i
			}
		}
	}

	return -1
}
