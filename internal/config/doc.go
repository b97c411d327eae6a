// Package config loads, normalizes, and validates gaincalc configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GAINCALC_CACHE_DIR and GAINCALC_SFAC. The Config type centralizes the
// cache, solver, population and worker settings so the CLI resolves them in
// one pass.
package config
