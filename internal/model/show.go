package model

import "time"

// Show is a named collection of seats.  Seats are provisioned once when
// the show is created (fixed count, all AVAILABLE) and never deleted
// while the show exists.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the show or event.
//  SeatCount – number of seats provisioned for this show.
//  CreatedAt – creation timestamp.
type Show struct {
	ID        uint64    // shows.id
	Name      string    // shows.name
	SeatCount int       // shows.seat_count
	CreatedAt time.Time // shows.created_at
}
