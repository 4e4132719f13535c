// Package log builds the application's slog.Logger.
//
// Three output formats are available: slog text (default), slog JSON for log
// aggregation, and a colored terminal format. Whatever the format, records
// pass through SecureHandler, which masks credentials:
//   - attributes and headers named like a credential (Authorization,
//     Cookie, X-Api-Key, session or token fields)
//   - authorization values and JWTs under any key
//   - the password and token query parameters of URLs, including URLs
//     quoted inside error messages
//
// Per-site cookies and headers from the configuration file therefore never
// reach the log, even in debug mode.
//
// # Usage
//
//	logger, err := log.NewLogger(os.Stderr, verbosity, log.FormatText)
//	if err != nil {
//		return err
//	}
//	logger.Info("crawl started", "seed", "http://example.com/")
package log
