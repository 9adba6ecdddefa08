package reservation

import (
	"errors"
	"fmt"
)

// ErrUnknownRaid reports a raid key outside the fixed set.
var ErrUnknownRaid = errors.New("unknown raid")

// ErrCodeNotSet reports that no access code is on record for (raid, day).
var ErrCodeNotSet = errors.New("no access code set for today")

// ValidationError reports a rejected submission field. Handlers redirect
// back to the originating form with the reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
