// Package booking implements the seat-booking transaction: deciding
// atomically whether a request can be satisfied against current seat
// inventory and, if so, persisting the booking, its passengers and the
// updated seat count as one indivisible unit.  These sentinel values let
// the HTTP layer distinguish failure scenarios without parsing messages.
package booking

import "errors"

// ErrScheduleNotFound is returned when the referenced schedule does not
// exist or has been cancelled.  Handlers should translate this into an
// HTTP 404 response.  Not retryable.
var ErrScheduleNotFound = errors.New("schedule not found")

// ErrInvalidRequest is returned when the request fails structural
// validation: seat/passenger count mismatch, too many seats, duplicate
// or empty seat labels, bad passenger fields, or a negative amount.
// Handlers should translate this into an HTTP 400 response.
var ErrInvalidRequest = errors.New("invalid booking request")

// ErrInsufficientSeats is returned when the schedule has fewer seats
// available than requested at commit time.  Not retried automatically;
// the caller may re-search and resubmit.
var ErrInsufficientSeats = errors.New("insufficient seats")

// ErrSeatTaken is returned when one or more requested seat labels are
// already claimed by an active booking on the same schedule.
var ErrSeatTaken = errors.New("seat already taken")

// ErrTimeout is returned when the transaction could not complete within
// its bound.  The manager guarantees no partial commit, so retrying the
// identical request after this error is always safe.
var ErrTimeout = errors.New("booking transaction timed out")

// ErrStorageUnavailable is returned when the storage layer fails for a
// reason other than the business checks above.  Like ErrTimeout it is
// safe to retry.
var ErrStorageUnavailable = errors.New("storage unavailable")
