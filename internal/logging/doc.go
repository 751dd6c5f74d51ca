// Package logging provides slog-based structured logging for signbridge.
//
// It exposes a console handler for interactive use, a JSON handler for
// machine consumption, attribute helpers with standardized field names, and
// context integration so run, stage, and correlation identifiers stamped by
// internal/services flow into every log line automatically.
package logging
