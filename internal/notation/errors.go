package notation

import (
	"errors"
	"fmt"

	"gaincalc/internal/services"
)

// ErrInvalidNotation reports a shell, level, configuration or atom string that
// does not follow the relativistic notation rules.
var ErrInvalidNotation = errors.New("invalid notation")

func invalid(operation, format string, args ...any) error {
	return services.Wrap(services.ErrValidation, "notation", operation, fmt.Sprintf(format, args...), ErrInvalidNotation)
}
