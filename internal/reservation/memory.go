package reservation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/show-seat-booking/internal/model"
)

// MemoryStore is the in-process storage engine.  A single mutex
// serializes all mutations, which makes every transition trivially
// atomic: the status check and the status write happen under the same
// critical section, and the seat and its paired booking transaction are
// always updated together.  It backs unit tests and serves as the
// engine when STORE_DRIVER=memory.
type MemoryStore struct {
	mu         sync.RWMutex
	holdTTL    time.Duration
	nextShowID uint64
	shows      map[uint64]*memShow
	bookings   map[string]*model.BookingTransaction
}

// memShow groups a show with its seats, indexed by label for O(1)
// lookup during TryHold.
type memShow struct {
	show    model.Show
	seats   []*model.Seat
	byLabel map[string]*model.Seat
}

// NewMemoryStore constructs an empty MemoryStore whose holds last for
// holdTTL after TryHold.
func NewMemoryStore(holdTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		holdTTL:  holdTTL,
		shows:    make(map[uint64]*memShow),
		bookings: make(map[string]*model.BookingTransaction),
	}
}

// CreateShow provisions seatCount seats, all AVAILABLE.
func (s *MemoryStore) CreateShow(ctx context.Context, name string, seatCount int) (*model.Show, error) {
	seats, err := model.GenerateSeatPositions(seatCount)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextShowID++
	ms := &memShow{
		show: model.Show{
			ID:        s.nextShowID,
			Name:      name,
			SeatCount: seatCount,
			CreatedAt: time.Now().UTC(),
		},
		seats:   make([]*model.Seat, 0, len(seats)),
		byLabel: make(map[string]*model.Seat, len(seats)),
	}
	for i := range seats {
		seat := seats[i]
		seat.ShowID = ms.show.ID
		ms.seats = append(ms.seats, &seat)
		ms.byLabel[seat.Label()] = &seat
	}
	s.shows[ms.show.ID] = ms
	out := ms.show
	return &out, nil
}

// GetShow returns a copy of the show record.
func (s *MemoryStore) GetShow(ctx context.Context, showID uint64) (*model.Show, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms, ok := s.shows[showID]
	if !ok {
		return nil, ErrShowNotFound
	}
	out := ms.show
	return &out, nil
}

// ListSeats returns copies of the show's seats in natural label order.
func (s *MemoryStore) ListSeats(ctx context.Context, showID uint64) ([]model.Seat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms, ok := s.shows[showID]
	if !ok {
		return nil, ErrShowNotFound
	}
	out := make([]model.Seat, 0, len(ms.seats))
	for _, seat := range ms.seats {
		out = append(out, *seat)
	}
	sort.Slice(out, func(i, j int) bool { return model.LessSeat(&out[i], &out[j]) })
	return out, nil
}

// TryHold performs the AVAILABLE -> HELD check-and-set and creates the
// paired booking transaction under the same lock.
func (s *MemoryStore) TryHold(ctx context.Context, showID uint64, seatLabel, guestName string, now time.Time) (*Hold, error) {
	row, number, err := model.ParseSeatLabel(seatLabel)
	if err != nil {
		return nil, ErrSeatNotFound
	}
	token, err := NewHoldToken()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.shows[showID]
	if !ok {
		return nil, ErrShowNotFound
	}
	seat, ok := ms.byLabel[model.FormatSeatLabel(row, number)]
	if !ok {
		return nil, ErrSeatNotFound
	}
	if seat.Status != model.SeatAvailable {
		return nil, ErrSeatUnavailable
	}
	expiresAt := now.Add(s.holdTTL)
	seat.Status = model.SeatHeld
	seat.HoldToken = &token
	seat.HoldExpiresAt = &expiresAt
	s.bookings[token] = &model.BookingTransaction{
		Token:         token,
		ShowID:        showID,
		RowLabel:      seat.RowLabel,
		SeatNumber:    seat.SeatNumber,
		GuestName:     guestName,
		Status:        model.BookingHeld,
		HoldExpiresAt: expiresAt,
		CreatedAt:     now,
	}
	return &Hold{Token: token, SeatLabel: seat.Label(), ExpiresAt: expiresAt}, nil
}

// Confirm transitions HELD -> BOOKED unless the deadline has passed.
// An expired hold is left untouched for the reclaimer or a release.
func (s *MemoryStore) Confirm(ctx context.Context, token string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[token]
	if !ok || b.Status != model.BookingHeld {
		return ErrHoldNotFound
	}
	if Expired(now, b.HoldExpiresAt) {
		return ErrHoldExpired
	}
	seat := s.seatOf(b)
	if seat == nil || seat.HoldToken == nil || *seat.HoldToken != token {
		// Booking and seat disagree; treat the hold as gone.
		return ErrHoldNotFound
	}
	confirmedAt := now
	seat.Status = model.SeatBooked
	seat.HoldToken = nil
	seat.HoldExpiresAt = nil
	seat.BookedBy = &b.GuestName
	seat.BookedAt = &confirmedAt
	b.Status = model.BookingConfirmed
	b.ConfirmedAt = &confirmedAt
	return nil
}

// Release cancels a live hold, returning the seat to AVAILABLE.
func (s *MemoryStore) Release(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked(token)
}

// GetBooking returns a copy of the booking transaction for the token.
func (s *MemoryStore) GetBooking(ctx context.Context, token string) (*model.BookingTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[token]
	if !ok {
		return nil, ErrHoldNotFound
	}
	out := *b
	return &out, nil
}

// ReclaimExpired cancels every hold whose deadline is at or before now.
func (s *MemoryStore) ReclaimExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reclaimed := 0
	for token, b := range s.bookings {
		if b.Status != model.BookingHeld || !Expired(now, b.HoldExpiresAt) {
			continue
		}
		if err := s.releaseLocked(token); err == nil {
			reclaimed++
		}
	}
	return reclaimed, nil
}

// releaseLocked applies the HELD -> CANCELLED transition for both the
// booking and its seat.  Caller must hold s.mu.
func (s *MemoryStore) releaseLocked(token string) error {
	b, ok := s.bookings[token]
	if !ok || b.Status != model.BookingHeld {
		return ErrHoldNotFound
	}
	if seat := s.seatOf(b); seat != nil && seat.HoldToken != nil && *seat.HoldToken == token {
		seat.Status = model.SeatAvailable
		seat.HoldToken = nil
		seat.HoldExpiresAt = nil
	}
	b.Status = model.BookingCancelled
	return nil
}

// seatOf resolves the seat referenced by a booking.  Caller must hold
// s.mu (read or write).
func (s *MemoryStore) seatOf(b *model.BookingTransaction) *model.Seat {
	ms, ok := s.shows[b.ShowID]
	if !ok {
		return nil
	}
	return ms.byLabel[model.FormatSeatLabel(b.RowLabel, b.SeatNumber)]
}
