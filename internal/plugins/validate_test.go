package plugins

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateScript(t *testing.T) {
	testCases := []struct {
		name       string
		code       string
		wantReason string
	}{
		{"empty string", "", "empty"},
		{"whitespace only", "   \n\t  ", "empty"},
		{"html doctype page", "<!DOCTYPE html><html><body>error</body></html>", "html-error-page"},
		{"html tag page", "<html><head></head></html>", "html-error-page"},
		{"404 response", "404: Not Found", "404-response"},
		{"plain text", "this is just some text without any code in it", "not-valid-script"},
		{"function script", "function search(q) { return []; }", ""},
		{"const script", "const x = 1;", ""},
		{"arrow function script", "exports.search = (q) => [];", ""},
		{"module exports script", "module.exports = {};", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateScript(tc.code)
			if tc.wantReason == "" {
				if err != nil {
					t.Fatalf("expected valid script, got %v", err)
				}
				return
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Reason != tc.wantReason {
				t.Errorf("reason = %q, want %q", vErr.Reason, tc.wantReason)
			}
		})
	}
}

func TestValidateScriptLong404NotRejected(t *testing.T) {
	// A long script that happens to mention 404 and Not Found is real code.
	code := "function handle(status) { if (status === 404) throw new Error('Not Found'); }\n" +
		strings.Repeat("// padding line to push the script over the size cutoff\n", 20)
	if err := ValidateScript(code); err != nil {
		t.Fatalf("expected valid script, got %v", err)
	}
}
