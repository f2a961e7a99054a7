package expiry

import (
	"errors"
	"fmt"
)

var errEmptyDate = errors.New("empty date")

// InvalidDateError reports an expiry date that is missing or does not parse
// as DateLayout.
type InvalidDateError struct {
	// Input is the rejected text, as given.
	Input string

	// Err is the underlying parse error, if any.
	Err error
}

func (e *InvalidDateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid date %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("invalid date %q", e.Input)
}

func (e *InvalidDateError) Unwrap() error {
	return e.Err
}

// IsInvalidDate returns true if err is or wraps an InvalidDateError.
func IsInvalidDate(err error) bool {
	var ide *InvalidDateError
	return errors.As(err, &ide)
}
