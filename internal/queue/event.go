// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a hold is successfully
// confirmed.  It carries enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary
// database.
type BookingConfirmedEvent struct {
	Token       string `json:"token"`
	ShowID      uint64 `json:"show_id"`
	ShowName    string `json:"show_name"`
	SeatLabel   string `json:"seat"`
	GuestName   string `json:"guest_name"`
	ConfirmedAt string `json:"confirmed_at"`
}
