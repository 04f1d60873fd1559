package frontier

import (
	"path"
	"strings"
)

// allowed checks a URL path against the ignore and follow patterns.
//
// Logic:
//  1. If the path matches any ignore pattern, it is rejected.
//  2. If follow patterns are set and the path matches none, it is rejected.
//  3. Otherwise it is allowed.
func allowed(p string, ignore, follow []string) bool {
	for _, pattern := range ignore {
		if matchPattern(pattern, p) {
			return false
		}
	}

	if len(follow) == 0 {
		return true
	}
	for _, pattern := range follow {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//   - a trailing /* to match everything below a directory
//   - a leading *. to match a file extension anywhere
//
// Examples:
//   - "/admin/*" matches "/admin", "/admin/users/42"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, p string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") && !strings.ContainsAny(ext, "*?[/") {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}

	if matched, err := path.Match(pattern, p); err == nil && matched {
		return true
	}

	// Bare file patterns like "report-??.html" match the last segment.
	if !strings.Contains(pattern, "/") {
		if matched, err := path.Match(pattern, path.Base(p)); err == nil && matched {
			return true
		}
	}

	return false
}
