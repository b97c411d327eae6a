package tables

import (
	"errors"

	"gaincalc/internal/services"
)

var (
	// ErrParse reports a solver table with no usable records.
	ErrParse = errors.New("solver table parse failed")
	// ErrLevelNotFound reports a level absent from the level table.
	ErrLevelNotFound = errors.New("level not found")
	// ErrTransitionNotFound reports a level pair absent from a transition or
	// collision-strength table.
	ErrTransitionNotFound = errors.New("transition not found")
)

func parseFailure(table, message string) error {
	return services.Wrap(services.ErrExternalTool, "tables", "parse "+table, message, ErrParse)
}

func notFound(sentinel error, operation, message string) error {
	return services.Wrap(services.ErrNotFound, "tables", operation, message, sentinel)
}
