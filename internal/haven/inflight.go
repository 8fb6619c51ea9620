package haven

import (
	"net/url"
	"strings"
)

// RequestKey builds the in-flight dedup key for a request: the method
// uppercased, a single space, and the normalized target. Two writes with the
// same key collapse into one execution.
func RequestKey(method, target string) string {
	return strings.ToUpper(strings.TrimSpace(method)) + " " + normalizeTarget(target)
}

func normalizeTarget(target string) string {
	if u, err := url.Parse(target); err == nil && u.IsAbs() {
		normalized := u.Scheme + "://" + u.Host + normalizePath(u.Path)
		if u.RawQuery != "" {
			normalized += "?" + u.RawQuery
		}
		return normalized
	}
	path, query, hasQuery := strings.Cut(target, "?")
	normalized := normalizePath(path)
	if hasQuery && query != "" {
		normalized += "?" + query
	}
	return normalized
}

// normalizePath collapses duplicate slashes and strips a trailing slash.
// The root path stays "/" and relative paths gain a leading slash.
func normalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}
