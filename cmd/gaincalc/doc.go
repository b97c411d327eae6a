// Package main hosts the gaincalc CLI entrypoint and command graph.
//
// Commands generate and inspect structure cache entries, solve level
// populations for single conditions or whole study grids, manage stored
// datasets and compute gain coefficients from them. Configuration loading,
// logging and solver construction are centralized in commandContext so the
// subcommands only deal with flags and output.
package main
