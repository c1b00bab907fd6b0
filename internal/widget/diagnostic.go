package widget

import (
	"net/url"
	"strings"
)

// DetectDiagnostic reports whether the page URL asks for test mode: a
// debug or mysellkit_test query flag on any host, or a /demo/ path on a
// mysellkit.com page. Merchant pages that happen to have a demo path
// stay in normal mode.
func DetectDiagnostic(pageURL string) bool {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return false
	}

	query := parsed.Query()
	if query.Get("debug") == "true" || query.Get("mysellkit_test") == "true" {
		return true
	}

	return strings.Contains(parsed.Hostname(), "mysellkit.com") &&
		strings.Contains(parsed.Path, "/demo/")
}
