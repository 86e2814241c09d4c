package plugins

import (
	"regexp"
	"strings"

	"github.com/quillreads/quill-go/internal/models"
)

// Metadata fields are declared as plain key/value fragments somewhere in
// the plugin source. Extraction is a best-effort regex scan rather than
// script parsing: a missing field yields a zero value, never an error.
var (
	idPattern      = regexp.MustCompile(`\bid\s*[:=]\s*["']([^"']+)["']`)
	namePattern    = regexp.MustCompile(`\b(?:sourceName|name)\s*[:=]\s*["']([^"']+)["']`)
	sitePattern    = regexp.MustCompile(`\b(?:sourceSite|site)\s*[:=]\s*["']([^"']+)["']`)
	versionPattern = regexp.MustCompile(`\bversion\s*[:=]\s*["']([^"']+)["']`)
	langPattern    = regexp.MustCompile(`\b(?:language|lang)\s*[:=]\s*["']([^"']+)["']`)
)

// ExtractMetadata scans plugin code for its declared identity fields.
func ExtractMetadata(code string) models.SourceInfo {
	info := models.SourceInfo{
		ID:       firstMatch(idPattern, code),
		Name:     firstMatch(namePattern, code),
		Site:     firstMatch(sitePattern, code),
		Version:  firstMatch(versionPattern, code),
		Language: NormalizeLanguage(firstMatch(langPattern, code)),
	}
	return info
}

func firstMatch(re *regexp.Regexp, code string) string {
	if m := re.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	return ""
}

// languageCodes maps full language names (lowercased) to their
// ISO-639-1-like 2-letter codes.
var languageCodes = map[string]string{
	"arabic":     "ar",
	"chinese":    "zh",
	"czech":      "cs",
	"dutch":      "nl",
	"english":    "en",
	"filipino":   "fil",
	"french":     "fr",
	"german":     "de",
	"hindi":      "hi",
	"indonesian": "id",
	"italian":    "it",
	"japanese":   "ja",
	"korean":     "ko",
	"polish":     "pl",
	"portuguese": "pt",
	"russian":    "ru",
	"spanish":    "es",
	"thai":       "th",
	"turkish":    "tr",
	"ukrainian":  "uk",
	"vietnamese": "vi",
}

// NormalizeLanguage accepts either a 2-letter code (returned lowercased
// as-is) or a known full language name mapped to its 2-letter code.
// Unknown or blank input defaults to "en".
func NormalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "en"
	}
	if len(lang) == 2 {
		return strings.ToLower(lang)
	}
	if code, ok := languageCodes[strings.ToLower(lang)]; ok {
		return code
	}
	return "en"
}
