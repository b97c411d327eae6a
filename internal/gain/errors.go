package gain

import (
	"errors"
	"fmt"

	"gaincalc/internal/services"
)

var (
	// ErrShapeMismatch reports grid inputs whose lengths cannot be broadcast.
	ErrShapeMismatch = errors.New("input shape mismatch")
	// ErrNotRecalculated reports collisional rates read before Recalculate.
	ErrNotRecalculated = errors.New("collisional rates not calculated")
	// ErrPointNotFound reports a (temperature, density) pair absent from a dataset.
	ErrPointNotFound = errors.New("grid point not found")
)

func invalid(operation, format string, args ...any) error {
	return services.Wrap(services.ErrValidation, "gain", operation, fmt.Sprintf(format, args...), nil)
}
