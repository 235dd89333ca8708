// Package log provides secure logging built on the standard slog package.
//
// SecureHandler masks secrets before they reach the output:
//   - attributes named like credentials (cookie, authorization, token, ...)
//   - values that look like credentials (JWTs, bearer tokens, PEM keys)
//   - passwords and sensitive query parameters inside URL values
//
// Cookies and headers from the .ecoaudit file are logged at debug level
// while gathering, so even verbose output stays safe to share.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("fetching", "url", "https://example.com/?token=abc")
//	// url=https://example.com/?token=%2A%2A%2AREDACTED%2A%2A%2A
package log
