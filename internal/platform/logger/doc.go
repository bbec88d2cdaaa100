// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels, and carries request- or session-scoped loggers through
// context.Context so that trace and session identifiers follow every log line.
package logger
