// Package urlutil normalizes and resolves URLs collected during a crawl.
package urlutil

import (
	"net/url"
	"sort"
	"strings"
)

// Canonical normalizes a URL so the same page always maps to the same key:
// - lowercases scheme and host
// - removes fragment
// - removes default ports (80 for http, 443 for https)
// - sorts query parameters
// - removes trailing slash (except root)
// Unparseable input is returned unchanged.
func Canonical(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	host := u.Hostname()
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = host
	}

	if u.RawQuery != "" {
		params := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sorted []string
		for _, k := range keys {
			vals := params[k]
			sort.Strings(vals)
			for _, v := range vals {
				sorted = append(sorted, url.QueryEscape(k)+"="+url.QueryEscape(v))
			}
		}
		u.RawQuery = strings.Join(sorted, "&")
	}

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
	}
	if u.Path == "" && u.Host != "" {
		u.Path = "/"
	}

	return u.String()
}

// Absolutize resolves a possibly-relative reference against a base page URL.
// Scheme-relative references ("//cdn.example.com/x.png") inherit the base
// scheme. Returns "" for empty input, unparseable input, or any result that
// is not http(s); javascript:, mailto:, and data: references all come back
// empty.
func Absolutize(baseURL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(u)
	if !IsHTTP(resolved.String()) {
		return ""
	}
	return resolved.String()
}

// IsHTTP reports whether a URL string is an absolute http or https URL.
func IsHTTP(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}

// Host returns the lowercased hostname of a URL, or "" if unparseable.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
