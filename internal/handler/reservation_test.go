package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/show-seat-booking/internal/handler"
	"github.com/iliyamo/show-seat-booking/internal/middleware"
	"github.com/iliyamo/show-seat-booking/internal/reservation"
	"github.com/iliyamo/show-seat-booking/internal/router"
)

// newTestAPI wires real routes against the memory engine, identity via
// the X-Guest-Name header and no rate limiter.
func newTestAPI(holdTTL time.Duration) *echo.Echo {
	e := echo.New()
	h := handler.NewReservationHandler(reservation.NewMemoryStore(holdTTL), nil)
	router.RegisterRoutes(e, h, middleware.GuestIdentity(""), nil)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, guest, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd *strings.Reader
	if body != "" {
		rd = strings.NewReader(body)
	} else {
		rd = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if guest != "" {
		req.Header.Set("X-Guest-Name", guest)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func createShow(t *testing.T, e *echo.Echo, seatCount int) string {
	t.Helper()
	rec, body := doJSON(t, e, http.MethodPost, "/v1/shows", "Admin", `{"name":"Hamlet","seat_count":`+jsonInt(seatCount)+`}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id, ok := body["show_id"].(float64)
	require.True(t, ok, "show_id missing in %v", body)
	return jsonInt(int(id))
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestCreateShowAndListSeats(t *testing.T) {
	e := newTestAPI(5 * time.Minute)
	showID := createShow(t, e, 12)

	rec, body := doJSON(t, e, http.MethodGet, "/v1/shows/"+showID+"/seats", "Alice", "")
	require.Equal(t, http.StatusOK, rec.Code)

	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 12)

	labels := make([]string, 0, len(items))
	for _, it := range items {
		seat := it.(map[string]any)
		labels = append(labels, seat["label"].(string))
		assert.Equal(t, "AVAILABLE", seat["status"])
	}
	assert.Equal(t, []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "A10", "B1", "B2"}, labels)
}

func TestCreateShowValidation(t *testing.T) {
	e := newTestAPI(5 * time.Minute)

	rec, _ := doJSON(t, e, http.MethodPost, "/v1/shows", "Admin", `{"name":"","seat_count":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, e, http.MethodPost, "/v1/shows", "Admin", `{"name":"Hamlet","seat_count":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHoldConfirmAndDoubleHold(t *testing.T) {
	e := newTestAPI(5 * time.Minute)
	showID := createShow(t, e, 3)

	rec, body := doJSON(t, e, http.MethodPost, "/v1/shows/"+showID+"/seats/A1/hold", "Alice", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	token := body["token"].(string)
	assert.Equal(t, "A1", body["seat"])
	assert.NotEmpty(t, body["expires_at"])

	// Someone else racing for the same seat is told it is taken, not
	// that a hold lapsed.
	rec, body = doJSON(t, e, http.MethodPost, "/v1/shows/"+showID+"/seats/A1/hold", "Bob", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "seat_unavailable", body["error"])

	rec, body = doJSON(t, e, http.MethodPost, "/v1/holds/"+token+"/confirm", "Alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CONFIRMED", body["status"])

	rec, body = doJSON(t, e, http.MethodGet, "/v1/shows/"+showID+"/seats", "Alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	seat := body["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "A1", seat["label"])
	assert.Equal(t, "BOOKED", seat["status"])
	assert.Equal(t, "Alice", seat["booked_by"])

	rec, body = doJSON(t, e, http.MethodPost, "/v1/shows/"+showID+"/seats/A1/hold", "Bob", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "seat_unavailable", body["error"])
}

func TestReleaseThenRehold(t *testing.T) {
	e := newTestAPI(5 * time.Minute)
	showID := createShow(t, e, 3)

	rec, body := doJSON(t, e, http.MethodPost, "/v1/shows/"+showID+"/seats/A2/hold", "Carl", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	token := body["token"].(string)

	rec, body = doJSON(t, e, http.MethodDelete, "/v1/holds/"+token, "Carl", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", body["status"])

	// Releasing again is a normal "nothing to do" outcome.
	rec, body = doJSON(t, e, http.MethodDelete, "/v1/holds/"+token, "Carl", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "hold_not_found", body["error"])

	rec, body = doJSON(t, e, http.MethodPost, "/v1/shows/"+showID+"/seats/A2/hold", "Dana", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEqual(t, token, body["token"])
}

func TestConfirmExpiredHold(t *testing.T) {
	// A negative TTL puts the deadline in the past the moment the hold
	// is taken.
	e := newTestAPI(-time.Second)
	showID := createShow(t, e, 1)

	rec, body := doJSON(t, e, http.MethodPost, "/v1/shows/"+showID+"/seats/A1/hold", "Eve", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	token := body["token"].(string)

	rec, body = doJSON(t, e, http.MethodPost, "/v1/holds/"+token+"/confirm", "Eve", "")
	require.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "hold_expired", body["error"])
}

func TestHoldRequiresGuestIdentity(t *testing.T) {
	e := newTestAPI(5 * time.Minute)
	showID := createShow(t, e, 1)

	rec, _ := doJSON(t, e, http.MethodPost, "/v1/shows/"+showID+"/seats/A1/hold", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotFoundResponses(t *testing.T) {
	e := newTestAPI(5 * time.Minute)
	showID := createShow(t, e, 1)

	rec, body := doJSON(t, e, http.MethodPost, "/v1/shows/"+showID+"/seats/Z9/hold", "Alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "seat not found", body["error"])

	rec, body = doJSON(t, e, http.MethodPost, "/v1/shows/999/seats/A1/hold", "Alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "show not found", body["error"])

	rec, body = doJSON(t, e, http.MethodGet, "/v1/holds/no-such-token", "Alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "hold_not_found", body["error"])

	rec, _ = doJSON(t, e, http.MethodGet, "/v1/shows/999/seats", "Alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetHoldReportsTransactionState(t *testing.T) {
	e := newTestAPI(5 * time.Minute)
	showID := createShow(t, e, 2)

	rec, body := doJSON(t, e, http.MethodPost, "/v1/shows/"+showID+"/seats/A2/hold", "Fay", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	token := body["token"].(string)

	rec, body = doJSON(t, e, http.MethodGet, "/v1/holds/"+token, "Fay", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HELD", body["status"])
	assert.Equal(t, "A2", body["seat"])
	assert.Equal(t, "Fay", body["guest_name"])
	assert.NotEmpty(t, body["hold_expires_at"])

	rec, _ = doJSON(t, e, http.MethodPost, "/v1/holds/"+token+"/confirm", "Fay", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = doJSON(t, e, http.MethodGet, "/v1/holds/"+token, "Fay", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CONFIRMED", body["status"])
	assert.NotEmpty(t, body["confirmed_at"])
}
