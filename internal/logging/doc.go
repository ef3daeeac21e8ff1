// Package logging provides slog logger construction and shared structured
// logging helpers.
//
// Loggers are built from config-driven options (level, format, output paths)
// and support two output formats: a human-oriented console format and JSON
// for machine consumption. Components obtain child loggers through
// NewComponentLogger so every line carries a component attribute.
package logging
