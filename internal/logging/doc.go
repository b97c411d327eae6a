// Package logging assembles the slog loggers used by gaincalc.
//
// It owns the console and JSON handlers, maps configured levels and outputs
// onto them, and exposes context helpers so solver and cache code tag their
// lines with the stage, cache key and correlation id in flight. NewNop gives
// tests and optional wiring a logger that discards everything.
package logging
