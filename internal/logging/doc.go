// Package logging builds the slog loggers used across ytqueue.
//
// Two formats are supported: a single-line console format for terminals and
// JSON for machine consumption. Loggers can additionally tee into a file under
// the configured log directory.
package logging
