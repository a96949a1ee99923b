package reservation

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/show-seat-booking/internal/model"
)

const testHoldTTL = 20 * time.Second

func newTestStore(t *testing.T, seatCount int) (*MemoryStore, uint64) {
	t.Helper()
	store := NewMemoryStore(testHoldTTL)
	show, err := store.CreateShow(context.Background(), "The Tempest", seatCount)
	require.NoError(t, err)
	return store, show.ID
}

func seatByLabel(t *testing.T, store Store, showID uint64, label string) *model.Seat {
	t.Helper()
	seats, err := store.ListSeats(context.Background(), showID)
	require.NoError(t, err)
	for i := range seats {
		if seats[i].Label() == label {
			return &seats[i]
		}
	}
	t.Fatalf("seat %s not found", label)
	return nil
}

// requireSeatShape asserts the seat is in exactly one of the three
// legal state shapes.
func requireSeatShape(t *testing.T, s *model.Seat) {
	t.Helper()
	switch s.Status {
	case model.SeatAvailable:
		assert.Nil(t, s.HoldToken, "AVAILABLE seat with hold token")
		assert.Nil(t, s.HoldExpiresAt, "AVAILABLE seat with hold expiry")
		assert.Nil(t, s.BookedBy, "AVAILABLE seat with booked_by")
		assert.Nil(t, s.BookedAt, "AVAILABLE seat with booked_at")
	case model.SeatHeld:
		assert.NotNil(t, s.HoldToken, "HELD seat missing hold token")
		assert.NotNil(t, s.HoldExpiresAt, "HELD seat missing hold expiry")
		assert.Nil(t, s.BookedBy, "HELD seat with booked_by")
		assert.Nil(t, s.BookedAt, "HELD seat with booked_at")
	case model.SeatBooked:
		assert.Nil(t, s.HoldToken, "BOOKED seat with hold token")
		assert.Nil(t, s.HoldExpiresAt, "BOOKED seat with hold expiry")
		assert.NotNil(t, s.BookedBy, "BOOKED seat missing booked_by")
		assert.NotNil(t, s.BookedAt, "BOOKED seat missing booked_at")
	default:
		t.Fatalf("unknown seat status %q", s.Status)
	}
}

func TestHoldConfirmFlow(t *testing.T) {
	ctx := context.Background()
	store, showID := newTestStore(t, 3)
	now := time.Now().UTC()

	hold, err := store.TryHold(ctx, showID, "A1", "Alice", now)
	require.NoError(t, err)
	assert.Equal(t, "A1", hold.SeatLabel)
	assert.NotEmpty(t, hold.Token)
	assert.Equal(t, now.Add(testHoldTTL), hold.ExpiresAt)

	seat := seatByLabel(t, store, showID, "A1")
	assert.Equal(t, model.SeatHeld, seat.Status)
	require.NotNil(t, seat.HoldToken)
	assert.Equal(t, hold.Token, *seat.HoldToken)

	require.NoError(t, store.Confirm(ctx, hold.Token, now.Add(time.Second)))

	seat = seatByLabel(t, store, showID, "A1")
	assert.Equal(t, model.SeatBooked, seat.Status)
	require.NotNil(t, seat.BookedBy)
	assert.Equal(t, "Alice", *seat.BookedBy)
	requireSeatShape(t, seat)

	_, err = store.TryHold(ctx, showID, "A1", "Bob", now.Add(2*time.Second))
	assert.ErrorIs(t, err, ErrSeatUnavailable)

	b, err := store.GetBooking(ctx, hold.Token)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, b.Status)
	require.NotNil(t, b.ConfirmedAt)
}

func TestReleaseAndRehold(t *testing.T) {
	ctx := context.Background()
	store, showID := newTestStore(t, 3)
	now := time.Now().UTC()

	hold, err := store.TryHold(ctx, showID, "A2", "Carl", now)
	require.NoError(t, err)

	require.NoError(t, store.Release(ctx, hold.Token))
	seat := seatByLabel(t, store, showID, "A2")
	assert.Equal(t, model.SeatAvailable, seat.Status)
	requireSeatShape(t, seat)

	b, err := store.GetBooking(ctx, hold.Token)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, b.Status)

	rehold, err := store.TryHold(ctx, showID, "A2", "Dana", now.Add(time.Second))
	require.NoError(t, err)
	assert.NotEqual(t, hold.Token, rehold.Token)
}

func TestReleaseIdempotence(t *testing.T) {
	ctx := context.Background()
	store, showID := newTestStore(t, 1)

	hold, err := store.TryHold(ctx, showID, "A1", "Eve", time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, store.Release(ctx, hold.Token))
	assert.ErrorIs(t, store.Release(ctx, hold.Token), ErrHoldNotFound)
}

func TestConfirmAfterExpiry(t *testing.T) {
	ctx := context.Background()
	store, showID := newTestStore(t, 1)
	now := time.Now().UTC()

	hold, err := store.TryHold(ctx, showID, "A1", "Fay", now)
	require.NoError(t, err)

	// One second past the 20s deadline: the lazy check rejects even
	// though no sweep has run yet.
	late := now.Add(testHoldTTL + time.Second)
	assert.ErrorIs(t, store.Confirm(ctx, hold.Token, late), ErrHoldExpired)

	// No mutation happened; the sweep then frees the seat.
	seat := seatByLabel(t, store, showID, "A1")
	assert.Equal(t, model.SeatHeld, seat.Status)

	n, err := store.ReclaimExpired(ctx, late)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	seat = seatByLabel(t, store, showID, "A1")
	assert.Equal(t, model.SeatAvailable, seat.Status)
	requireSeatShape(t, seat)

	b, err := store.GetBooking(ctx, hold.Token)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, b.Status)

	// The transaction is terminal now; a confirm finds nothing.
	assert.ErrorIs(t, store.Confirm(ctx, hold.Token, late), ErrHoldNotFound)
}

func TestExpiryBoundaryIsInclusive(t *testing.T) {
	ctx := context.Background()
	store, showID := newTestStore(t, 1)
	now := time.Now().UTC()

	hold, err := store.TryHold(ctx, showID, "A1", "Gil", now)
	require.NoError(t, err)

	// now == deadline means expired for both the lazy check and the sweep.
	assert.ErrorIs(t, store.Confirm(ctx, hold.Token, hold.ExpiresAt), ErrHoldExpired)
	n, err := store.ReclaimExpired(ctx, hold.ExpiresAt)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReclaimSkipsLiveAndTerminalHolds(t *testing.T) {
	ctx := context.Background()
	store, showID := newTestStore(t, 3)
	now := time.Now().UTC()

	live, err := store.TryHold(ctx, showID, "A1", "Hana", now)
	require.NoError(t, err)
	confirmed, err := store.TryHold(ctx, showID, "A2", "Ivan", now)
	require.NoError(t, err)
	require.NoError(t, store.Confirm(ctx, confirmed.Token, now))

	n, err := store.ReclaimExpired(ctx, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.Equal(t, model.SeatHeld, seatByLabel(t, store, showID, "A1").Status)
	assert.Equal(t, model.SeatBooked, seatByLabel(t, store, showID, "A2").Status)

	b, err := store.GetBooking(ctx, live.Token)
	require.NoError(t, err)
	assert.Equal(t, model.BookingHeld, b.Status)
}

func TestConcurrentHoldSingleWinner(t *testing.T) {
	ctx := context.Background()
	store, showID := newTestStore(t, 1)
	now := time.Now().UTC()

	const callers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, losses := 0, 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.TryHold(ctx, showID, "A1", "racer", now)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case assert.ErrorIs(t, err, ErrSeatUnavailable):
				losses++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one caller must win the seat")
	assert.Equal(t, callers-1, losses)
}

func TestSeatShapesUnderRandomInterleaving(t *testing.T) {
	ctx := context.Background()
	store, showID := newTestStore(t, 5)
	rng := rand.New(rand.NewSource(1))
	labels := []string{"A1", "A2", "A3", "A4", "A5"}
	var tokens []string
	now := time.Now().UTC()

	for i := 0; i < 500; i++ {
		now = now.Add(time.Duration(rng.Intn(5)) * time.Second)
		switch rng.Intn(4) {
		case 0:
			if hold, err := store.TryHold(ctx, showID, labels[rng.Intn(len(labels))], "guest", now); err == nil {
				tokens = append(tokens, hold.Token)
			}
		case 1:
			if len(tokens) > 0 {
				_ = store.Confirm(ctx, tokens[rng.Intn(len(tokens))], now)
			}
		case 2:
			if len(tokens) > 0 {
				_ = store.Release(ctx, tokens[rng.Intn(len(tokens))])
			}
		case 3:
			_, err := store.ReclaimExpired(ctx, now)
			require.NoError(t, err)
		}

		seats, err := store.ListSeats(ctx, showID)
		require.NoError(t, err)
		for j := range seats {
			requireSeatShape(t, &seats[j])
		}
	}
}

// A seat's hold token must correlate with exactly one live booking
// transaction carrying the same token and expiry.
func TestHeldSeatMatchesBooking(t *testing.T) {
	ctx := context.Background()
	store, showID := newTestStore(t, 2)
	now := time.Now().UTC()

	hold, err := store.TryHold(ctx, showID, "A2", "June", now)
	require.NoError(t, err)

	seat := seatByLabel(t, store, showID, "A2")
	require.NotNil(t, seat.HoldToken)
	require.NotNil(t, seat.HoldExpiresAt)

	b, err := store.GetBooking(ctx, *seat.HoldToken)
	require.NoError(t, err)
	assert.Equal(t, model.BookingHeld, b.Status)
	assert.Equal(t, hold.Token, b.Token)
	assert.Equal(t, "A2", b.SeatLabel())
	assert.True(t, b.HoldExpiresAt.Equal(*seat.HoldExpiresAt))
}

func TestListSeatsNaturalOrder(t *testing.T) {
	ctx := context.Background()
	store, showID := newTestStore(t, 12)

	seats, err := store.ListSeats(ctx, showID)
	require.NoError(t, err)
	require.Len(t, seats, 12)

	want := []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "A10", "B1", "B2"}
	got := make([]string, 0, len(seats))
	for i := range seats {
		got = append(got, seats[i].Label())
	}
	// A2 must precede A10: numeric order, not lexical string order.
	assert.Equal(t, want, got)
}

func TestLookupRejections(t *testing.T) {
	ctx := context.Background()
	store, showID := newTestStore(t, 1)
	now := time.Now().UTC()

	_, err := store.TryHold(ctx, showID, "Z9", "Kim", now)
	assert.ErrorIs(t, err, ErrSeatNotFound)

	_, err = store.TryHold(ctx, showID+99, "A1", "Kim", now)
	assert.ErrorIs(t, err, ErrShowNotFound)

	_, err = store.ListSeats(ctx, showID+99)
	assert.ErrorIs(t, err, ErrShowNotFound)

	_, err = store.GetBooking(ctx, "no-such-token")
	assert.ErrorIs(t, err, ErrHoldNotFound)

	assert.ErrorIs(t, store.Confirm(ctx, "no-such-token", now), ErrHoldNotFound)
	assert.ErrorIs(t, store.Release(ctx, "no-such-token"), ErrHoldNotFound)
}

func TestCreateShowValidatesSeatCount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testHoldTTL)

	_, err := store.CreateShow(ctx, "Empty", 0)
	assert.Error(t, err)
	_, err = store.CreateShow(ctx, "Too big", model.MaxSeatsPerShow+1)
	assert.Error(t, err)
}
