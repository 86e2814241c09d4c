package repair

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Break reasons recorded in chapter_health.
const (
	ReasonEmpty     = "empty"
	ReasonErrorPage = "error-page"
)

// errorPhrases are fragments that mark a short chapter body as a site
// error page rather than real content.
var errorPhrases = []string{
	"404",
	"not found",
	"page not found",
	"access denied",
	"forbidden",
	"chapter does not exist",
}

// CheckContent decides whether stored chapter content is usable.
// Returns false and a reason code when the content is broken. HTML is
// stripped first so a chapter that renders to nothing counts as empty.
func CheckContent(content string) (bool, string) {
	text := strings.TrimSpace(content)
	if text == "" {
		return false, ReasonEmpty
	}

	// Strip markup if the content carries any.
	if strings.Contains(text, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			text = strings.TrimSpace(doc.Text())
		}
	}
	if text == "" {
		return false, ReasonEmpty
	}

	if len(text) < 500 {
		lower := strings.ToLower(text)
		for _, phrase := range errorPhrases {
			if strings.Contains(lower, phrase) {
				return false, ReasonErrorPage
			}
		}
	}

	return true, ""
}
