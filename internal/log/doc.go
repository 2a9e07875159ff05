// Package log provides slog loggers that never print API credentials.
//
// The SecureHandler wraps any slog.Handler and masks:
//   - attributes whose key names a credential (authorization, api_key, *token*, ...)
//   - values shaped like credentials (bearer/basic header values, JWTs, prefixed API keys)
//   - sensitive query parameters of URL values, such as signed result links
//
// Usage:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("request sent", "url", u, "authorization", "Bearer ...")
//	slog.SetDefault(logger)
package log
