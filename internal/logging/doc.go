// Package logging assembles the slog loggers used across plexmaint.
//
// Console output goes through a charmbracelet/log handler with styled levels
// so warnings and errors stand out next to the interactive menu, while the
// optional log file receives JSON lines with a stable key shape. Both sinks
// sit behind a tee handler so callers only ever hold a *slog.Logger.
//
// NewNop gives tests and wiring code a logger that cannot fail.
package logging
