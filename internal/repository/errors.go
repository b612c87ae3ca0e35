// Package repository defines error values reused across multiple
// repositories.  These sentinels let handlers distinguish failure
// scenarios: ErrForbidden means the caller does not own the resource,
// ErrConflict means the operation cannot proceed due to current state
// (e.g. cancelling a booking whose bus has already departed).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as cancelling an already-cancelled booking or
// one whose departure has passed.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registration hits the unique email key.
var ErrEmailExists = errors.New("email already exists")
