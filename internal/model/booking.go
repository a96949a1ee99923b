package model

import "time"

// Booking transaction statuses.  HELD is the only live state; CONFIRMED
// and CANCELLED are terminal and a transaction is never mutated after
// reaching one of them.
const (
	BookingHeld      = "HELD"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

// BookingTransaction records the lifecycle of one hold on one seat.  Its
// identity is the opaque token that is also stored on the seat as
// HoldToken while the hold is live.  The transaction status and the seat
// status always agree: HELD ⇔ seat HELD under the same token, CONFIRMED ⇔
// seat BOOKED, CANCELLED ⇔ seat returned to AVAILABLE.
//
// Fields:
//  Token         – opaque identifier, primary key.
//  ShowID        – show of the referenced seat.
//  RowLabel      – row of the referenced seat.
//  SeatNumber    – number of the referenced seat within its row.
//  GuestName     – display name of the requesting party.
//  Status        – one of BookingHeld, BookingConfirmed, BookingCancelled.
//  HoldExpiresAt – deadline after which the hold may be reclaimed.
//  ConfirmedAt   – when the booking was confirmed (nil unless CONFIRMED).
//  CreatedAt     – when the hold was taken.
type BookingTransaction struct {
	Token         string     // bookings.token
	ShowID        uint64     // bookings.show_id
	RowLabel      string     // bookings.row_label
	SeatNumber    uint32     // bookings.seat_number
	GuestName     string     // bookings.guest_name
	Status        string     // bookings.status
	HoldExpiresAt time.Time  // bookings.hold_expires_at
	ConfirmedAt   *time.Time // bookings.confirmed_at (nullable)
	CreatedAt     time.Time  // bookings.created_at
}

// SeatLabel returns the label of the referenced seat.
func (b *BookingTransaction) SeatLabel() string {
	return FormatSeatLabel(b.RowLabel, b.SeatNumber)
}
