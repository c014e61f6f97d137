package audit

import (
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a URL string for identity comparison.
// It lowercases the host and strips exactly one trailing slash from the
// path; a root path stays "/". The normalized form is used only for
// deduplication and processed-key membership, never for outbound
// requests. Unparseable input is returned unchanged.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Host = strings.ToLower(u.Host)

	switch {
	case u.Path == "":
		u.Path = "/"
	case u.Path != "/" && strings.HasSuffix(u.Path, "/"):
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String()
}
