package availability

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRange marks a raw record whose date range cannot become a
	// reservation.  The record is skipped; aggregation carries on.
	ErrMalformedRange = errors.New("malformed date range")

	// ErrUnparseableDate marks a date string in neither supported format.
	// Inside the normalizer it is always wrapped by ErrMalformedRange.
	ErrUnparseableDate = errors.New("unparseable date")

	// ErrRangeTooLong marks a valid range longer than the engine's cap.
	ErrRangeTooLong = errors.New("date range too long")
)

type dateError struct {
	input string
	cause error
}

func (e *dateError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s %q: %v", ErrUnparseableDate, e.input, e.cause)
	}
	return fmt.Sprintf("%s %q", ErrUnparseableDate, e.input)
}

func (e *dateError) Unwrap() error { return ErrUnparseableDate }

// NormalizationError reports why one raw record was rejected.  It matches
// ErrMalformedRange with errors.Is, and ErrUnparseableDate or
// ErrRangeTooLong as well when one of those was the cause.
type NormalizationError struct {
	SourceID  string
	DateRange string
	Reason    string
	Err       error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("record %s: %s: %s", e.SourceID, ErrMalformedRange, e.Reason)
}

func (e *NormalizationError) Is(target error) bool { return target == ErrMalformedRange }

func (e *NormalizationError) Unwrap() error { return e.Err }
