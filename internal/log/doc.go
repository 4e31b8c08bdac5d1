// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// Audit runs carry credentials for up to three AI providers plus whatever
// secrets the audited sites echo back in headers. The SecureHandler masks
// all of it before a record reaches the underlying handler:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Provider credentials (GigaChat authorization keys, OpenAI API keys,
//     Yandex IAM tokens) detected by key name or value pattern
//   - Session identifiers and authentication tokens
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("token exchange complete",
//	    "access_token", token,            // masked
//	    "url", "https://example.ru",      // passed through
//	)
//
//	slog.SetDefault(logger)
package log
