package middleware // reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// guestNameKey is the context key under which the requester's display
// name is stored for handlers.
const guestNameKey = "guest_name"

// GuestIdentity returns an Echo middleware that resolves the requesting
// party's display name.  Identity verification itself is external to
// this service; the name is an opaque string used only to label
// bookings.  Two sources are accepted, in order:
//
//  1. a Bearer JWT signed with secret, whose "name" (or "sub") claim
//     carries the display name, for deployments fronted by an auth
//     gateway;
//  2. the X-Guest-Name header, for deployments where the presentation
//     layer passes the name through directly.
//
// When secret is empty the JWT path is disabled and only the header is
// consulted.  A malformed or badly signed token is rejected outright
// rather than silently downgraded to the header.
func GuestIdentity(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if secret != "" && strings.HasPrefix(auth, "Bearer ") {
				raw := strings.TrimPrefix(auth, "Bearer ")
				tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, echo.ErrUnauthorized
					}
					return []byte(secret), nil
				})
				if err != nil || !tok.Valid {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				if claims, ok := tok.Claims.(jwt.MapClaims); ok {
					if name, ok := claims["name"].(string); ok && name != "" {
						c.Set(guestNameKey, name)
					} else if sub, ok := claims["sub"].(string); ok && sub != "" {
						c.Set(guestNameKey, sub)
					}
				}
			}
			if c.Get(guestNameKey) == nil {
				if name := strings.TrimSpace(c.Request().Header.Get("X-Guest-Name")); name != "" {
					c.Set(guestNameKey, name)
				}
			}
			return next(c)
		}
	}
}

// GuestName extracts the resolved display name from the context.  It
// returns an empty string when no identity was supplied; handlers that
// require one respond with 401.
func GuestName(c echo.Context) string {
	if v, ok := c.Get(guestNameKey).(string); ok {
		return v
	}
	return ""
}
