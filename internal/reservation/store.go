// Package reservation defines the seat-reservation state machine: the
// Store interface every storage engine implements, the rejection
// taxonomy, and the in-memory engine.  All mutating operations are
// atomic conditional transitions: a caller either wins the transition
// or observes a rejection with no side effects.
package reservation

import (
	"context"
	"time"

	"github.com/iliyamo/show-seat-booking/internal/model"
)

// Hold is the client-visible result of a successful TryHold.  The three
// values are sufficient for a client to resume or release the hold after
// reconnecting.
type Hold struct {
	Token     string    // booking transaction token
	SeatLabel string    // label of the held seat, e.g. "A7"
	ExpiresAt time.Time // when the hold lapses
}

// Store is the authoritative record of every seat's status and every
// booking transaction's lifecycle.  Implementations must make each
// operation an atomic unit: the status check and the status write of a
// transition may never be separated, and a seat mutation and its paired
// booking mutation are committed together or not at all.
//
// Operations taking a now parameter judge hold expiry by wall-clock
// comparison at call time (now >= HoldExpiresAt means expired); the
// periodic reclaimer uses the same comparison.
type Store interface {
	// CreateShow provisions a show with the given number of seats, all
	// AVAILABLE, labelled A1..A10, B1..B10 and so on.
	CreateShow(ctx context.Context, name string, seatCount int) (*model.Show, error)

	// GetShow returns the show record.
	GetShow(ctx context.Context, showID uint64) (*model.Show, error)

	// ListSeats returns a consistent snapshot of the show's seats in
	// natural label order (A2 before A10).
	ListSeats(ctx context.Context, showID uint64) ([]model.Seat, error)

	// TryHold transitions the seat AVAILABLE -> HELD and creates the
	// paired booking transaction.  Exactly one of any set of concurrent
	// callers succeeds; the rest receive ErrSeatUnavailable.
	TryHold(ctx context.Context, showID uint64, seatLabel, guestName string, now time.Time) (*Hold, error)

	// Confirm transitions HELD -> BOOKED.  Fails with ErrHoldExpired
	// when the deadline has passed (no mutation; the reclaimer or a
	// release frees the seat) and ErrHoldNotFound when the token is
	// unknown or the transaction already terminal.
	Confirm(ctx context.Context, token string, now time.Time) error

	// Release voluntarily cancels a live hold, returning the seat to
	// AVAILABLE.  Calling it on an already-terminal transaction yields
	// ErrHoldNotFound, which callers treat as "nothing to do".
	Release(ctx context.Context, token string) error

	// GetBooking returns the booking transaction for a token.  Used by
	// reconnecting clients to reconcile local hold state against the
	// store.
	GetBooking(ctx context.Context, token string) (*model.BookingTransaction, error)

	// ReclaimExpired cancels every hold whose deadline is at or before
	// now, using the same transition as Release, and reports how many
	// seats it freed.  Safe to run concurrently with Confirm/Release
	// racing the same deadline: whichever reaches the transition first
	// wins and the loser takes no further action.
	ReclaimExpired(ctx context.Context, now time.Time) (int, error)
}

// Expired reports whether a hold deadline has passed.  Every expiry
// check in the system (confirm, reclaim, client countdown) must use
// this comparison so the lazy check and the sweep agree.
func Expired(now, deadline time.Time) bool {
	return !now.Before(deadline)
}
