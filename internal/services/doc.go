// Package services defines shared utilities consumed by the solver-facing
// packages and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp stage names, cache keys, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into consistent exit codes.
//
// Use these helpers when wiring new solver logic so error handling and
// observability stay uniform across the pipeline.
package services
