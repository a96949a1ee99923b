package model

import "time"

// Seat statuses.  A seat is always in exactly one of these three states;
// the hold fields are set iff the seat is HELD and the booking fields are
// set iff the seat is BOOKED.
const (
	SeatAvailable = "AVAILABLE"
	SeatHeld      = "HELD"
	SeatBooked    = "BOOKED"
)

// Seat is one reservable seat of a show.  Seats are uniquely identified
// by their show and label (row letter plus number, e.g. "A7").  The
// status together with the nullable hold/booking fields forms the seat
// state machine:
//
//  AVAILABLE – no hold or booking fields set.
//  HELD      – HoldToken and HoldExpiresAt set, booking fields unset.
//  BOOKED    – BookedBy and BookedAt set, hold fields unset.
//
// Fields:
//  ID            – primary key identifier (zero for the memory engine).
//  ShowID        – show to which this seat belongs.
//  RowLabel      – letter or string designating the row.
//  SeatNumber    – number of the seat within the row (1-based).
//  Status        – one of SeatAvailable, SeatHeld, SeatBooked.
//  HoldToken     – token correlating the hold with its booking transaction.
//  HoldExpiresAt – when the current hold lapses.
//  BookedBy      – display name of the guest who booked the seat.
//  BookedAt      – when the booking was confirmed.
type Seat struct {
	ID            uint64     // seats.id
	ShowID        uint64     // seats.show_id
	RowLabel      string     // seats.row_label
	SeatNumber    uint32     // seats.seat_number
	Status        string     // seats.status
	HoldToken     *string    // seats.hold_token (nullable)
	HoldExpiresAt *time.Time // seats.hold_expires_at (nullable)
	BookedBy      *string    // seats.booked_by (nullable)
	BookedAt      *time.Time // seats.booked_at (nullable)
}

// Label returns the client-facing seat label, e.g. row "A" seat 7 -> "A7".
func (s *Seat) Label() string {
	return FormatSeatLabel(s.RowLabel, s.SeatNumber)
}
