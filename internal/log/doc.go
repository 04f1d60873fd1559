// Package log builds the crawler's slog logger.
//
// Site configurations can carry cookies and authorization headers, and
// seed URLs can embed credentials. The SecureHandler masks such values
// before a record is written:
//   - attributes named like credentials (cookie, authorization, token, ...)
//   - values that look like bearer, basic or JWT tokens
//   - URL passwords and token-like query parameters
//   - sensitive entries of map[string]string header attributes
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("request", "url", u, "headers", headers)
package log
