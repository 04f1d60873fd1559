package frontier

import "testing"

// TestMatchPattern tests glob matching of URL paths.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{name: "directory pattern matches child", pattern: "/admin/*", path: "/admin/users", want: true},
		{name: "directory pattern matches nested child", pattern: "/admin/*", path: "/admin/users/42", want: true},
		{name: "directory pattern matches directory", pattern: "/admin/*", path: "/admin", want: true},
		{name: "directory pattern rejects sibling", pattern: "/admin/*", path: "/administrator", want: false},
		{name: "extension pattern", pattern: "*.pdf", path: "/docs/file.pdf", want: true},
		{name: "extension pattern rejects other", pattern: "*.pdf", path: "/docs/file.html", want: false},
		{name: "single character", pattern: "/api/v?", path: "/api/v2", want: true},
		{name: "prefix glob", pattern: "/logout*", path: "/logout-now", want: true},
		{name: "bare file pattern", pattern: "report-??.html", path: "/reports/report-01.html", want: true},
		{name: "exact path", pattern: "/about", path: "/about", want: true},
		{name: "no match", pattern: "/about", path: "/contact", want: false},
		{name: "malformed pattern", pattern: "/[", path: "/[", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

// TestAllowed tests ignore and follow pattern precedence.
func TestAllowed(t *testing.T) {
	t.Parallel()

	ignore := []string{"/docs/drafts/*"}
	follow := []string{"/docs/*"}

	if !allowed("/anything", nil, nil) {
		t.Error("expected every path to be allowed without patterns")
	}
	if !allowed("/docs/intro", ignore, follow) {
		t.Error("expected followed path to be allowed")
	}
	if allowed("/docs/drafts/next", ignore, follow) {
		t.Error("expected ignore to win over follow")
	}
	if allowed("/blog", ignore, follow) {
		t.Error("expected path outside follow patterns to be rejected")
	}
}
