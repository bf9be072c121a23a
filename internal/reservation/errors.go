// Package reservation implements the seat reservation state machine:
// booking, releasing, adjacency-gated pair booking and the lazy expiry
// sweep.  It owns the only mutation path to seat rows, so the conflict
// check and the subsequent write are always atomic with respect to other
// callers.
package reservation

import "errors"

// ErrBadRequest is returned when required input is missing or malformed,
// such as a pair booking without both seat numbers or a companion name.
// Handlers should translate this into an HTTP 400 response.
var ErrBadRequest = errors.New("bad request")

// ErrSeatNotFound is returned when the referenced seat number does not
// exist in the hall.  Handlers should translate this into an HTTP 404.
var ErrSeatNotFound = errors.New("seat not found")

// ErrSeatTaken is returned when the seat is currently held by someone
// (post-sweep).  Handlers should translate this into an HTTP 409.
var ErrSeatTaken = errors.New("seat already booked")

// ErrSeatFree is returned when a release targets a seat that is not
// booked at all.  Handlers should translate this into an HTTP 409.
var ErrSeatFree = errors.New("seat is not booked")

// ErrNotAdjacent is returned when a pair booking names two seats that are
// not neighbours in the hall layout.  Handlers should translate this into
// an HTTP 409, the same class as a booking conflict.
var ErrNotAdjacent = errors.New("seats are not adjacent")

// ErrNotHolder is returned when a release is attempted by a principal
// other than the seat's current holder.  Handlers should translate this
// into an HTTP 403.
var ErrNotHolder = errors.New("not your booking")
