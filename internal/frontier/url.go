package frontier

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// defaultPorts maps schemes to the port that is implied when none is given.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// Normalize returns the identity form of an absolute http(s) URL.
//
// The fragment and the query string are removed, scheme and host are
// lower-cased, default ports are dropped, percent-encoding is made canonical
// and an empty path becomes "/".
// Two URLs with the same identity are never fetched twice.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if err := normalizeURL(u); err != nil {
		return "", err
	}
	return u.String(), nil
}

// normalizeURL rewrites u in place into its identity form.
func normalizeURL(u *url.URL) error {
	u.Scheme = strings.ToLower(u.Scheme)
	if _, ok := defaultPorts[u.Scheme]; !ok {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	u.Host = authority(u)
	u.Fragment = ""
	u.RawFragment = ""
	u.RawQuery = ""
	u.ForceQuery = false
	u.User = nil

	// An escaped slash is the only encoding that changes the path's meaning.
	if !strings.Contains(strings.ToUpper(u.RawPath), "%2F") {
		u.RawPath = ""
	}
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	return nil
}

// authority returns the lower-cased host[:port] of u with the scheme's
// default port folded away.
func authority(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" || port == defaultPorts[strings.ToLower(u.Scheme)] {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, port)
}

// pathOf returns the path used for pattern matching.
func pathOf(u *url.URL) string {
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
