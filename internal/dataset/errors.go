package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDataUnavailable is returned when the tabular source cannot be read at all.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrNoDataForDate is returned when the source is readable but holds no usable rows for the date.
	ErrNoDataForDate = errors.New("no data for date")

	// ErrSchemaMismatch is returned when required columns are absent. See SchemaError.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrInvalidVariable is returned for a variable key that is not in the registry.
	ErrInvalidVariable = errors.New("invalid variable")
)

// SchemaError lists the required columns missing from a source.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing columns %s", ErrSchemaMismatch, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaMismatch
}

// Kind returns a stable label for the error kind, used for metrics and API error codes.
// Unknown errors map to "unknown".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidVariable):
		return "invalid_variable"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, ErrNoDataForDate):
		return "no_data_for_date"
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	default:
		return "unknown"
	}
}
