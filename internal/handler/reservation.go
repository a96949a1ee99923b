package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/show-seat-booking/internal/middleware"
	"github.com/iliyamo/show-seat-booking/internal/queue"
	"github.com/iliyamo/show-seat-booking/internal/reservation"
)

// ReservationHandler exposes the seat-reservation operations over HTTP.
// The store performs every transition atomically; this layer only
// parses requests, resolves the guest identity and maps the store's
// rejection taxonomy onto distinct HTTP statuses:
//
//  seat_unavailable -> 409 (someone else took it, pick another seat)
//  hold_not_found   -> 404 (token unknown or already terminal, refresh)
//  hold_expired     -> 410 (your hold lapsed, take a new one)
//
// Publish, when non-nil, is invoked after a successful confirm; it is
// best-effort and never fails the request.
type ReservationHandler struct {
	Store   reservation.Store
	Publish func(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// NewReservationHandler constructs a ReservationHandler.  The store
// must be non-nil; publish may be nil to disable event publishing.
func NewReservationHandler(store reservation.Store, publish func(ctx context.Context, ev queue.BookingConfirmedEvent) error) *ReservationHandler {
	if store == nil {
		panic("nil store passed to NewReservationHandler")
	}
	return &ReservationHandler{Store: store, Publish: publish}
}

// HoldSeat handles POST /v1/shows/:id/seats/:label/hold.  It attempts
// the AVAILABLE -> HELD transition for the named seat on behalf of the
// resolved guest.  On success it returns 201 with the three values a
// client needs to resume or release the hold later: seat label, token
// and expiry.
func (h *ReservationHandler) HoldSeat(c echo.Context) error {
	guest := middleware.GuestName(c)
	if guest == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "guest identity required"})
	}
	showID, err := parseShowID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	label := c.Param("label")
	hold, err := h.Store.TryHold(c.Request().Context(), showID, label, guest, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, reservation.ErrSeatUnavailable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat_unavailable"})
		case errors.Is(err, reservation.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, reservation.ErrShowNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to hold seat"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"token":      hold.Token,
		"seat":       hold.SeatLabel,
		"expires_at": hold.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// ConfirmHold handles POST /v1/holds/:token/confirm.  It finalises a
// live hold into a booking.  Payment is an opaque trigger upstream of
// this call; by the time it arrives the only questions are whether the
// hold still exists and whether its deadline has passed.
func (h *ReservationHandler) ConfirmHold(c echo.Context) error {
	token := c.Param("token")
	now := time.Now().UTC()
	if err := h.Store.Confirm(c.Request().Context(), token, now); err != nil {
		switch {
		case errors.Is(err, reservation.ErrHoldNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hold_not_found"})
		case errors.Is(err, reservation.ErrHoldExpired):
			return c.JSON(http.StatusGone, echo.Map{"error": "hold_expired"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm hold"})
	}
	h.publishConfirmed(token, now)
	return c.JSON(http.StatusOK, echo.Map{"status": "CONFIRMED"})
}

// ReleaseHold handles DELETE /v1/holds/:token.  It voluntarily cancels
// a live hold.  Releasing an already-terminal hold reports 404, which
// clients treat as "nothing to do" rather than a failure.
func (h *ReservationHandler) ReleaseHold(c echo.Context) error {
	token := c.Param("token")
	if err := h.Store.Release(c.Request().Context(), token); err != nil {
		if errors.Is(err, reservation.ErrHoldNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hold_not_found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release hold"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "CANCELLED"})
}

// GetHold handles GET /v1/holds/:token.  Reconnecting clients call it
// to reconcile local hold state against the store: whatever status the
// store reports wins over any cached assumption.
func (h *ReservationHandler) GetHold(c echo.Context) error {
	token := c.Param("token")
	b, err := h.Store.GetBooking(c.Request().Context(), token)
	if err != nil {
		if errors.Is(err, reservation.ErrHoldNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hold_not_found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load hold"})
	}
	resp := echo.Map{
		"token":           b.Token,
		"show_id":         b.ShowID,
		"seat":            b.SeatLabel(),
		"guest_name":      b.GuestName,
		"status":          b.Status,
		"hold_expires_at": b.HoldExpiresAt.UTC().Format(time.RFC3339),
	}
	if b.ConfirmedAt != nil {
		resp["confirmed_at"] = b.ConfirmedAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, resp)
}

// publishConfirmed emits the booking.confirmed event in the background.
// The store already committed; a broker outage only costs the event.
func (h *ReservationHandler) publishConfirmed(token string, confirmedAt time.Time) {
	if h.Publish == nil {
		return
	}
	b, err := h.Store.GetBooking(context.Background(), token)
	if err != nil {
		log.Printf("confirm: load booking for event failed: %v", err)
		return
	}
	showName := ""
	if show, err := h.Store.GetShow(context.Background(), b.ShowID); err == nil {
		showName = show.Name
	}
	ev := queue.BookingConfirmedEvent{
		Token:       b.Token,
		ShowID:      b.ShowID,
		ShowName:    showName,
		SeatLabel:   b.SeatLabel(),
		GuestName:   b.GuestName,
		ConfirmedAt: confirmedAt.UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Publish(ctx, ev) // errors are logged by the publisher
	}()
}
