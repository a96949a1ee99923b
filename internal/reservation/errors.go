// Sentinel rejection values shared by all storage engines.  These are
// ordinary return values, not operational faults: handlers translate
// them into specific HTTP responses so a client can tell "someone else
// took it" apart from "your hold lapsed", since the corrective action
// differs.
package reservation

import "errors"

// ErrSeatUnavailable is returned by TryHold when the seat is not
// AVAILABLE at the instant of the check-and-set: held by someone else,
// already booked, or concurrently claimed.  The guest should pick
// another seat.
var ErrSeatUnavailable = errors.New("seat unavailable")

// ErrHoldNotFound is returned when a token is unknown or its booking
// transaction is already terminal.  The caller should refresh state.
var ErrHoldNotFound = errors.New("hold not found")

// ErrHoldExpired is returned by Confirm when the hold deadline has
// passed.  The caller should release or refresh and try a new hold.
var ErrHoldExpired = errors.New("hold expired")

// ErrSeatNotFound is returned when the seat label does not exist in the
// show.
var ErrSeatNotFound = errors.New("seat not found")

// ErrShowNotFound is returned when the show does not exist.
var ErrShowNotFound = errors.New("show not found")
