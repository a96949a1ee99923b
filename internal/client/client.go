// Package client implements the consumer side of the hold lifecycle: a
// guest-facing session that takes a seat hold over the HTTP API, counts
// down to its expiry, and reconciles itself against the store after a
// reconnect.  The store is always the final arbiter; the local
// countdown exists for responsiveness, never for correctness.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/iliyamo/show-seat-booking/internal/model"
	"github.com/iliyamo/show-seat-booking/internal/reservation"
)

// ErrNoActiveHold is returned by Confirm/Release when the session holds
// nothing: either no hold was taken or the countdown already lapsed.
var ErrNoActiveHold = errors.New("no active hold")

// ErrActiveHold is returned by HoldSeat when the session already holds
// a seat.  A guest session carries at most one hold at a time; release
// or confirm the current one first.
var ErrActiveHold = errors.New("hold already active")

// HoldState is the session's local view of its hold: the three values
// the server hands out on a successful hold, plus the show they belong
// to.  Token, seat label and expiry are sufficient to resume or release
// the hold from a fresh session.
type HoldState struct {
	Token     string
	ShowID    uint64
	SeatLabel string
	ExpiresAt time.Time
}

// BookingStatus is the authoritative transaction state fetched during
// reconciliation.
type BookingStatus struct {
	Token         string
	ShowID        uint64
	SeatLabel     string
	GuestName     string
	Status        string
	HoldExpiresAt time.Time
	ConfirmedAt   *time.Time
}

// Client is a single guest's reservation session.  All methods are safe
// for concurrent use; the expiry timer and API calls race over the same
// state and resolve under one mutex.
type Client struct {
	baseURL   string
	guestName string
	httpc     *http.Client

	mu       sync.Mutex
	hold     *HoldState
	timer    *time.Timer
	onExpire func(HoldState)
}

// New builds a session for the given guest against the API at baseURL.
// onExpire, when non-nil, is invoked once if the local countdown lapses
// before a confirm or release completes; the UI layer uses it to stop
// offering those actions.
func New(baseURL, guestName string, onExpire func(HoldState)) *Client {
	return &Client{
		baseURL:   baseURL,
		guestName: guestName,
		httpc:     &http.Client{Timeout: 10 * time.Second},
		onExpire:  onExpire,
	}
}

// HoldSeat attempts to hold one seat.  On success the session starts a
// countdown to the server's expiry deadline.
func (c *Client) HoldSeat(ctx context.Context, showID uint64, seatLabel string) (*HoldState, error) {
	c.mu.Lock()
	if c.hold != nil {
		c.mu.Unlock()
		return nil, ErrActiveHold
	}
	c.mu.Unlock()

	var resp struct {
		Token     string `json:"token"`
		Seat      string `json:"seat"`
		ExpiresAt string `json:"expires_at"`
	}
	path := fmt.Sprintf("/v1/shows/%d/seats/%s/hold", showID, seatLabel)
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	expiresAt, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	hold := &HoldState{Token: resp.Token, ShowID: showID, SeatLabel: resp.Seat, ExpiresAt: expiresAt}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hold != nil {
		// A concurrent HoldSeat won; give this one back.
		go c.releaseToken(hold.Token)
		return nil, ErrActiveHold
	}
	c.setHoldLocked(hold)
	out := *hold
	return &out, nil
}

// Confirm finalises the session's hold into a booking.  The server
// re-checks the deadline; if it reports the hold expired or gone, the
// local state is discarded to match.
func (c *Client) Confirm(ctx context.Context) error {
	hold := c.Active()
	if hold == nil {
		return ErrNoActiveHold
	}
	err := c.do(ctx, http.MethodPost, "/v1/holds/"+hold.Token+"/confirm", nil, nil)
	switch {
	case err == nil, errors.Is(err, reservation.ErrHoldExpired), errors.Is(err, reservation.ErrHoldNotFound):
		c.clearHold(hold.Token)
	}
	return err
}

// Release voluntarily gives the seat back.  A "hold not found" answer
// means the store beat us to it (expiry, reclaim, or a confirm from
// another tab); local state is discarded either way and no error is
// reported for that case.
func (c *Client) Release(ctx context.Context) error {
	hold := c.Active()
	if hold == nil {
		return ErrNoActiveHold
	}
	err := c.do(ctx, http.MethodDelete, "/v1/holds/"+hold.Token, nil, nil)
	if err != nil && !errors.Is(err, reservation.ErrHoldNotFound) {
		return err
	}
	c.clearHold(hold.Token)
	return nil
}

// Resume re-establishes a session from a persisted token after a
// reconnect.  It fetches the authoritative transaction state and trusts
// it over anything cached: a hold still live resumes its countdown from
// the server's deadline; anything else (confirmed, cancelled, expired)
// leaves the session empty and the caller inspects the returned status.
func (c *Client) Resume(ctx context.Context, token string) (*BookingStatus, error) {
	var resp struct {
		Token         string  `json:"token"`
		ShowID        uint64  `json:"show_id"`
		Seat          string  `json:"seat"`
		GuestName     string  `json:"guest_name"`
		Status        string  `json:"status"`
		HoldExpiresAt string  `json:"hold_expires_at"`
		ConfirmedAt   *string `json:"confirmed_at"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/holds/"+token, nil, &resp); err != nil {
		if errors.Is(err, reservation.ErrHoldNotFound) {
			c.clearHold(token)
		}
		return nil, err
	}
	expiresAt, err := time.Parse(time.RFC3339, resp.HoldExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse hold_expires_at: %w", err)
	}
	status := &BookingStatus{
		Token:         resp.Token,
		ShowID:        resp.ShowID,
		SeatLabel:     resp.Seat,
		GuestName:     resp.GuestName,
		Status:        resp.Status,
		HoldExpiresAt: expiresAt,
	}
	if resp.ConfirmedAt != nil {
		if t, err := time.Parse(time.RFC3339, *resp.ConfirmedAt); err == nil {
			status.ConfirmedAt = &t
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if status.Status == model.BookingHeld && !reservation.Expired(time.Now().UTC(), expiresAt) {
		c.setHoldLocked(&HoldState{Token: status.Token, ShowID: status.ShowID, SeatLabel: status.SeatLabel, ExpiresAt: expiresAt})
	} else if c.hold != nil && c.hold.Token == token {
		c.dropHoldLocked()
	}
	return status, nil
}

// Active returns a copy of the current hold, or nil when the session
// holds nothing.
func (c *Client) Active() *HoldState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hold == nil {
		return nil
	}
	out := *c.hold
	return &out
}

// Remaining reports how long the current hold has left, zero when it
// has lapsed or no hold is active.
func (c *Client) Remaining(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hold == nil || reservation.Expired(now, c.hold.ExpiresAt) {
		return 0
	}
	return c.hold.ExpiresAt.Sub(now)
}

// setHoldLocked installs a hold and arms the countdown.  Caller holds
// c.mu.
func (c *Client) setHoldLocked(hold *HoldState) {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.hold = hold
	token := hold.Token
	c.timer = time.AfterFunc(time.Until(hold.ExpiresAt), func() { c.expireLocally(token) })
}

// dropHoldLocked clears the hold and disarms the countdown.  Caller
// holds c.mu.
func (c *Client) dropHoldLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.hold = nil
}

// clearHold drops the hold if it still carries the given token.
func (c *Client) clearHold(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hold != nil && c.hold.Token == token {
		c.dropHoldLocked()
	}
}

// expireLocally runs when the countdown lapses.  The token guard makes
// a stale timer firing after a resume of a different hold harmless.
func (c *Client) expireLocally(token string) {
	c.mu.Lock()
	if c.hold == nil || c.hold.Token != token {
		c.mu.Unlock()
		return
	}
	expired := *c.hold
	c.dropHoldLocked()
	cb := c.onExpire
	c.mu.Unlock()
	if cb != nil {
		cb(expired)
	}
}

// releaseToken best-effort releases a hold this session decided not to
// keep.
func (c *Client) releaseToken(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/v1/holds/"+token, nil)
	if err != nil {
		return
	}
	req.Header.Set("X-Guest-Name", c.guestName)
	if resp, err := c.httpc.Do(req); err == nil {
		resp.Body.Close()
	}
}

// do issues one API request and decodes the JSON response into out (when
// non-nil).  Rejection statuses are translated back into the store's
// sentinel errors so callers branch on the same taxonomy everywhere.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("X-Guest-Name", c.guestName)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	var apiErr struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)
	switch resp.StatusCode {
	case http.StatusConflict:
		return reservation.ErrSeatUnavailable
	case http.StatusGone:
		return reservation.ErrHoldExpired
	case http.StatusNotFound:
		switch apiErr.Error {
		case "seat not found":
			return reservation.ErrSeatNotFound
		case "show not found":
			return reservation.ErrShowNotFound
		}
		return reservation.ErrHoldNotFound
	}
	if apiErr.Error != "" {
		return fmt.Errorf("api %s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
	}
	return fmt.Errorf("api %s %s: unexpected status %d", method, path, resp.StatusCode)
}
