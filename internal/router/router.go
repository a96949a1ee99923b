package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/show-seat-booking/internal/handler"
)

// RegisterRoutes wires the reservation API onto the provided Echo
// instance.  identity resolves the guest's display name for every /v1
// route; holdLimiter is applied only to the hold endpoint, the one a
// seat-grab script would hammer.  Either middleware may be a
// pass-through.
func RegisterRoutes(e *echo.Echo, h *handler.ReservationHandler, identity, holdLimiter echo.MiddlewareFunc) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	if identity != nil {
		v1.Use(identity)
	}

	// Show provisioning and seat browsing.
	v1.POST("/shows", h.CreateShow)
	v1.GET("/shows/:id/seats", h.ListSeats)

	// Hold lifecycle.  The hold route carries the rate limiter; the
	// confirm/release/resume routes are keyed by an unguessable token
	// and stay unthrottled so a guest can always complete or abandon a
	// hold they already won.
	if holdLimiter != nil {
		v1.POST("/shows/:id/seats/:label/hold", h.HoldSeat, holdLimiter)
	} else {
		v1.POST("/shows/:id/seats/:label/hold", h.HoldSeat)
	}
	v1.POST("/holds/:token/confirm", h.ConfirmHold)
	v1.DELETE("/holds/:token", h.ReleaseHold)
	v1.GET("/holds/:token", h.GetHold)
}
