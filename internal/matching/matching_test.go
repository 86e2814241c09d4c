package matching

import (
	"testing"

	"github.com/quillreads/quill-go/internal/models"
)

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"Chapter 12", "chapter 12"},
		{"Chapter 12: The Return!", "chapter 12 the return"},
		{"  CHAPTER   12  ", "chapter 12"},
		{"Ch.12 - Rebirth", "ch 12 rebirth"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tc := range testCases {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTitlesMatch(t *testing.T) {
	testCases := []struct {
		a, b string
		want bool
	}{
		{"My Novel", "my novel", true},
		{"My Novel", "My Novel (Official)", true},
		{"My Novel: Special Edition", "My Novel", true},
		{"My Novel", "Another Story", false},
		{"", "My Novel", false},
		{"My Novel", "", false},
	}
	for _, tc := range testCases {
		if got := TitlesMatch(tc.a, tc.b); got != tc.want {
			t.Errorf("TitlesMatch(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestMatchChapter(t *testing.T) {
	candidates := []models.ChapterResult{
		{Key: "/c/1", Name: "Chapter 1: Beginnings", Number: 1},
		{Key: "/c/2", Name: "Chapter 2", Number: 2},
		{Key: "/c/3", Name: "Extra Story", Number: 0},
	}

	t.Run("exact normalized name", func(t *testing.T) {
		ch := models.Chapter{Name: "chapter 2", Number: 0}
		if got := MatchChapter(ch, candidates); got != 1 {
			t.Errorf("got index %d, want 1", got)
		}
	})

	t.Run("number fallback", func(t *testing.T) {
		ch := models.Chapter{Name: "Ch. One (retranslated)", Number: 1}
		if got := MatchChapter(ch, candidates); got != 0 {
			t.Errorf("got index %d, want 0", got)
		}
	})

	t.Run("fuzzy containment", func(t *testing.T) {
		ch := models.Chapter{Name: "Extra Story (side)", Number: 0}
		if got := MatchChapter(ch, candidates); got != 2 {
			t.Errorf("got index %d, want 2", got)
		}
	})

	t.Run("no match", func(t *testing.T) {
		ch := models.Chapter{Name: "Epilogue", Number: 99}
		if got := MatchChapter(ch, candidates); got != -1 {
			t.Errorf("got index %d, want -1", got)
		}
	})

	t.Run("name beats number", func(t *testing.T) {
		// A chapter whose name matches one candidate but whose number
		// matches another resolves by name.
		ch := models.Chapter{Name: "Chapter 2", Number: 1}
		if got := MatchChapter(ch, candidates); got != 1 {
			t.Errorf("got index %d, want 1", got)
		}
	})
}
