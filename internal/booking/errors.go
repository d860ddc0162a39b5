package booking

import (
	"errors"
	"fmt"
)

// ErrInvertedWindow is returned when a quote is requested for a window
// whose end does not come strictly after its start. The validator rejects
// such windows before pricing; this guard keeps a direct caller from ever
// getting a negative duration or cost.
var ErrInvertedWindow = errors.New("booking window end must be after start")

type ValidationCode string

const (
	CodeEndBeforeStart   ValidationCode = "end_before_start"
	CodeDurationTooShort ValidationCode = "duration_too_short"
	CodeDurationTooLong  ValidationCode = "duration_too_long"
	CodeMissingField     ValidationCode = "missing_field"
)

// ValidationError reports the first failing submission rule. Field names
// use the wire spelling (start_time, license_plate, ...) so callers can
// point the user at the offending input.
type ValidationError struct {
	Code    ValidationCode
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}
