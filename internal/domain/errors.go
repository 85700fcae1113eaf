package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrShowNotFound       = errors.New("show not found")
	ErrSeatNotFound       = errors.New("seat not found in show layout")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrAlreadyCancelled   = errors.New("booking is already cancelled")
	ErrDuplicateBooking   = errors.New("booking already exists")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// InvalidRequestError is a deterministic client error. No state was touched.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// SeatsUnavailableError carries the subset of requested seats that were not
// FREE at the moment of the reservation attempt. Expected under contention,
// not a system fault.
type SeatsUnavailableError struct {
	Seats []string
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seat(s) already booked: %s", strings.Join(e.Seats, ", "))
}

// CompensationError indicates a reserved-but-unrecorded or
// cancelled-but-unreleased state that needs manual reconciliation. It must
// never be swallowed.
type CompensationError struct {
	BookingID string
	ShowID    string
	Seats     []string
	Cause     error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf(
		"compensation failed for show %s, seats [%s]: %v",
		e.ShowID,
		strings.Join(e.Seats, ", "),
		e.Cause,
	)
}

func (e *CompensationError) Unwrap() error {
	return e.Cause
}
