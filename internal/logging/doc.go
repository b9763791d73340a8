// Package logging constructs the slog loggers used across easel.
//
// Loggers write either console (text) or JSON output, optionally mirrored to
// easel.log in the configured log directory. Construction is the only
// concern here; packages receive a *slog.Logger and never reach for package
// level logging state.
package logging
