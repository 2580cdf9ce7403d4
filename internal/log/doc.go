// Package log builds the slog loggers used by poketl.
//
// Every logger is wrapped in a RedactingHandler so that header values such
// as a session cookie configured for the crawl never reach the log output,
// including values nested in groups:
//
//	logger := log.NewLogger(os.Stderr, verbose, false)
//	logger.Debug("request", slog.Group("headers", "Cookie", "session=abc"))
//	// headers.Cookie=***REDACTED***
package log
