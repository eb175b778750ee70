package qsd

import (
	"strconv"
	"strings"
)

// NormalizeURL converts a request path or user-entered URL into the stored
// record key: surrounding whitespace and slashes are trimmed, a ".html"
// suffix is removed and repeated slashes are collapsed.
//
//	NormalizeURL("/learn/foo.html") == "learn/foo"
func NormalizeURL(raw string) string {
	u := strings.Trim(strings.TrimSpace(raw), "/")
	u = strings.TrimSuffix(u, ".html")

	parts := strings.Split(u, "/")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

// PageURL returns the request path at which the record stored under url is served.
func PageURL(url string) string {
	return "/" + NormalizeURL(url) + ".html"
}

// reservedSegments are first URL segments routed to the admin site and the
// JSON API instead of pages.
var reservedSegments = []string{"admin", "api"}

func validateRecord(r *Record) error {
	if r.URL == "" {
		return &ValidationError{Field: "url", Message: "is required"}
	}
	if strings.ContainsAny(r.URL, " \t\r\n?#\\") {
		return &ValidationError{Field: "url", Message: "must not contain whitespace, '?', '#' or '\\'"}
	}
	for _, part := range strings.Split(r.URL, "/") {
		if part == "." || part == ".." {
			return &ValidationError{Field: "url", Message: "must not contain relative segments"}
		}
	}
	first, _, _ := strings.Cut(r.URL, "/")
	for _, reserved := range reservedSegments {
		if first == reserved {
			return &ValidationError{Field: "url", Message: "must not start with reserved segment " + strconv.Quote(reserved)}
		}
	}
	if strings.TrimSpace(r.Title) == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	return nil
}
