package handler // HTTP handlers for show provisioning and browsing

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/show-seat-booking/internal/model"
	"github.com/iliyamo/show-seat-booking/internal/reservation"
)

// seatView is the wire representation of one seat in a listing.  The
// nullable fields appear only in the state that defines them, mirroring
// the seat state machine.
type seatView struct {
	Label         string  `json:"label"`
	Status        string  `json:"status"`
	HoldExpiresAt *string `json:"hold_expires_at,omitempty"`
	BookedBy      *string `json:"booked_by,omitempty"`
	BookedAt      *string `json:"booked_at,omitempty"`
}

// CreateShow handles POST /v1/shows.  It provisions a show with the
// requested number of seats, all AVAILABLE.  The body must carry a name
// and a seat_count between 1 and the per-show maximum.
func (h *ReservationHandler) CreateShow(c echo.Context) error {
	var body struct {
		Name      string `json:"name"`
		SeatCount int    `json:"seat_count"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if body.SeatCount < 1 || body.SeatCount > model.MaxSeatsPerShow {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_count must be between 1 and " + strconv.Itoa(model.MaxSeatsPerShow)})
	}
	show, err := h.Store.CreateShow(c.Request().Context(), name, body.SeatCount)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create show"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"show_id":    show.ID,
		"name":       show.Name,
		"seat_count": show.SeatCount,
	})
}

// ListSeats handles GET /v1/shows/:id/seats.  It returns a snapshot of
// every seat of the show in natural label order (A2 before A10), each
// with its current status.  The snapshot is read-committed: it never
// shows a seat with contradictory fields but may trail an in-flight
// hold by a moment.
func (h *ReservationHandler) ListSeats(c echo.Context) error {
	showID, err := parseShowID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	seats, err := h.Store.ListSeats(c.Request().Context(), showID)
	if err != nil {
		if errors.Is(err, reservation.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	items := make([]seatView, 0, len(seats))
	for i := range seats {
		items = append(items, newSeatView(&seats[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func newSeatView(s *model.Seat) seatView {
	v := seatView{Label: s.Label(), Status: s.Status}
	if s.HoldExpiresAt != nil {
		t := s.HoldExpiresAt.UTC().Format(time.RFC3339)
		v.HoldExpiresAt = &t
	}
	v.BookedBy = s.BookedBy
	if s.BookedAt != nil {
		t := s.BookedAt.UTC().Format(time.RFC3339)
		v.BookedAt = &t
	}
	return v
}

func parseShowID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid show id")
	}
	return id, nil
}
