// Package results stores finished datasets in a SQLite database under the
// data directory. Each row carries a summary for listing and the dataset
// itself as a JSON payload.
package results
