package plugins

import "strings"

// scriptMarkers are the structure keywords at least one of which must
// appear in plugin code before it is trusted as a script.
var scriptMarkers = []string{
	"function",
	"const ",
	"let ",
	"var ",
	"class ",
	"module.exports",
	"exports.",
	"=>",
}

// ValidateScript applies the trust policy to raw plugin code before it
// is installed or executed. A fetched error page must never be written
// over a working plugin, so anything that does not look like a script
// is rejected with a reason code.
func ValidateScript(code string) error {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return &ValidationError{Reason: "empty"}
	}

	// A leading HTML document marker typically means we fetched an error
	// page instead of the script itself.
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		return &ValidationError{Reason: "html-error-page"}
	}

	// Short responses carrying both "404" and "Not Found" are almost
	// certainly a missing-file response from the host.
	if len(trimmed) < 1000 && strings.Contains(trimmed, "404") && strings.Contains(trimmed, "Not Found") {
		return &ValidationError{Reason: "404-response"}
	}

	for _, marker := range scriptMarkers {
		if strings.Contains(code, marker) {
			return nil
		}
	}
	return &ValidationError{Reason: "not-valid-script"}
}
