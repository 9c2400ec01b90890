// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to act on a resource owned by someone else, while
// ErrInvalidTransition signals that the reservation state machine
// refused a status change.
package repository

import "errors"

// ErrNotFound is returned when a requested document does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as deleting a space
// that still has active reservations. Handlers should translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint, such as a second feedback for the same (program, user)
// pair or a duplicate email at registration.
var ErrDuplicate = errors.New("duplicate")

// ErrInvalidTransition is returned when a status update is attempted
// from a state the reservation state machine does not permit, which
// includes every transition out of a terminal state.
var ErrInvalidTransition = errors.New("invalid status transition")
