package utils

import (
	"strings"
)

// NormalizePath converts a file path to forward slashes for
// cross-platform-stable cache keys and URL construction.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// URLPath converts a path relative to the site root into a request path
// ("index.html" -> "/index.html"). Already-rooted paths pass through.
func URLPath(rel string) string {
	rel = NormalizePath(rel)
	if strings.HasPrefix(rel, "/") {
		return rel
	}
	return "/" + rel
}
