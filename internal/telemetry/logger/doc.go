// Package logger provides structured logging for mixrelay.
//
// It wraps log/slog:
//
//   - logger.go: handler construction, levels, the process-wide default
//   - context.go: request ID propagation through context.Context
//   - redact.go: masking of secrets before they reach the output
//
// Components take a Logger so tests can pass one writing to a buffer.
// Libraries that only speak *slog.Logger (badger, net/http ErrorLog) get
// one through Slog.
package logger
