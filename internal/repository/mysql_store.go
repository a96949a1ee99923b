// Package repository implements the reservation.Store interface on
// MySQL.  Every mutating operation runs inside a single transaction so
// the seat row and its paired booking row can never disagree, and every
// state transition is expressed as a conditional UPDATE whose WHERE
// clause carries the expected prior status: the database applies the
// check and the write as one atomic step, so concurrent callers racing
// for the same seat resolve to exactly one winner.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/show-seat-booking/internal/model"
	"github.com/iliyamo/show-seat-booking/internal/reservation"
)

// MySQLStore is the production storage engine.  All timestamps are
// stored and compared in UTC; the expiry deadline passed to Confirm and
// ReclaimExpired is supplied by the caller so the lazy check and the
// sweep share identical comparison semantics.
type MySQLStore struct {
	db      *sql.DB
	holdTTL time.Duration
}

// NewMySQLStore binds a store to the given database handle.  Holds last
// for holdTTL after TryHold.
func NewMySQLStore(db *sql.DB, holdTTL time.Duration) *MySQLStore {
	return &MySQLStore{db: db, holdTTL: holdTTL}
}

// CreateShow inserts the show and bulk-inserts its seats in one
// transaction.
func (s *MySQLStore) CreateShow(ctx context.Context, name string, seatCount int) (*model.Show, error) {
	seats, err := model.GenerateSeatPositions(seatCount)
	if err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO shows (name, seat_count) VALUES (?, ?)`, name, seatCount)
	if err != nil {
		return nil, fmt.Errorf("insert show: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	showID := uint64(id)
	// Multi-values insert, one statement for the whole seat map.
	query := `INSERT INTO seats (show_id, row_label, seat_number) VALUES `
	args := make([]interface{}, 0, len(seats)*3)
	for i, seat := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, showID, seat.RowLabel, seat.SeatNumber)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert seats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return &model.Show{ID: showID, Name: name, SeatCount: seatCount, CreatedAt: time.Now().UTC()}, nil
}

// GetShow fetches the show record.
func (s *MySQLStore) GetShow(ctx context.Context, showID uint64) (*model.Show, error) {
	const q = `SELECT id, name, seat_count, created_at FROM shows WHERE id = ?`
	show := &model.Show{}
	err := s.db.QueryRowContext(ctx, q, showID).Scan(&show.ID, &show.Name, &show.SeatCount, &show.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reservation.ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	return show, nil
}

// ListSeats returns the show's seats in natural label order.  LENGTH
// before the label itself keeps row "Z" ahead of a hypothetical "AA",
// and seat_number is numeric, so A2 sorts before A10.
func (s *MySQLStore) ListSeats(ctx context.Context, showID uint64) ([]model.Seat, error) {
	if err := s.showExists(ctx, showID); err != nil {
		return nil, err
	}
	const q = `SELECT id, show_id, row_label, seat_number, status,
                      hold_token, hold_expires_at, booked_by, booked_at
               FROM seats
               WHERE show_id = ?
               ORDER BY LENGTH(row_label), row_label, seat_number`
	rows, err := s.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, *seat)
	}
	return seats, rows.Err()
}

// TryHold claims the seat with a conditional UPDATE keyed on
// status='AVAILABLE' and creates the booking row in the same
// transaction.  Zero affected rows means somebody else owns the seat
// (or the label is unknown, distinguished by a follow-up lookup).
func (s *MySQLStore) TryHold(ctx context.Context, showID uint64, seatLabel, guestName string, now time.Time) (*reservation.Hold, error) {
	row, number, err := model.ParseSeatLabel(seatLabel)
	if err != nil {
		return nil, reservation.ErrSeatNotFound
	}
	token, err := reservation.NewHoldToken()
	if err != nil {
		return nil, err
	}
	expiresAt := now.UTC().Add(s.holdTTL)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		`UPDATE seats
         SET status = ?, hold_token = ?, hold_expires_at = ?
         WHERE show_id = ? AND row_label = ? AND seat_number = ? AND status = ?`,
		model.SeatHeld, token, expiresAt, showID, row, number, model.SeatAvailable)
	if err != nil {
		return nil, fmt.Errorf("claim seat: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Lost the race, seat taken, or no such seat/show.
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM seats WHERE show_id = ? AND row_label = ? AND seat_number = ?`,
			showID, row, number).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			if err := s.showExists(ctx, showID); err != nil {
				return nil, err
			}
			return nil, reservation.ErrSeatNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, reservation.ErrSeatUnavailable
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (token, show_id, row_label, seat_number, guest_name, status, hold_expires_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		token, showID, row, number, guestName, model.BookingHeld, expiresAt); err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return &reservation.Hold{Token: token, SeatLabel: model.FormatSeatLabel(row, number), ExpiresAt: expiresAt}, nil
}

// Confirm pins the booking row with FOR UPDATE, re-checks the deadline,
// then transitions both rows.  An expired hold is rolled back untouched.
func (s *MySQLStore) Confirm(ctx context.Context, token string, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	b, err := lockBooking(ctx, tx, token)
	if err != nil {
		return err
	}
	if b.Status != model.BookingHeld {
		return reservation.ErrHoldNotFound
	}
	if reservation.Expired(now.UTC(), b.HoldExpiresAt) {
		return reservation.ErrHoldExpired
	}
	confirmedAt := now.UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE seats
         SET status = ?, hold_token = NULL, hold_expires_at = NULL, booked_by = ?, booked_at = ?
         WHERE show_id = ? AND row_label = ? AND seat_number = ? AND hold_token = ? AND status = ?`,
		model.SeatBooked, b.GuestName, confirmedAt,
		b.ShowID, b.RowLabel, b.SeatNumber, token, model.SeatHeld)
	if err != nil {
		return fmt.Errorf("book seat: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		// The seat no longer carries this hold; treat the hold as gone.
		return reservation.ErrHoldNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, confirmed_at = ? WHERE token = ?`,
		model.BookingConfirmed, confirmedAt, token); err != nil {
		return fmt.Errorf("confirm booking: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// Release cancels a live hold.  The conditional UPDATE on the booking
// row is the atomic HELD -> CANCELLED transition; a second release of
// the same token affects zero rows and reports ErrHoldNotFound.
func (s *MySQLStore) Release(ctx context.Context, token string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := releaseTx(ctx, tx, token); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// GetBooking fetches the booking transaction for a token.
func (s *MySQLStore) GetBooking(ctx context.Context, token string) (*model.BookingTransaction, error) {
	const q = `SELECT token, show_id, row_label, seat_number, guest_name, status,
                      hold_expires_at, confirmed_at, created_at
               FROM bookings WHERE token = ?`
	b := &model.BookingTransaction{}
	var confirmedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, q, token).Scan(
		&b.Token, &b.ShowID, &b.RowLabel, &b.SeatNumber, &b.GuestName,
		&b.Status, &b.HoldExpiresAt, &confirmedAt, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reservation.ErrHoldNotFound
	}
	if err != nil {
		return nil, err
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		b.ConfirmedAt = &t
	}
	return b, nil
}

// ReclaimExpired releases every hold whose deadline is at or before
// now.  Expired tokens are pinned with FOR UPDATE first so a Confirm
// racing the sweep either beats the lock (the sweep then skips the row,
// no longer HELD) or waits and loses (zero affected rows).
func (s *MySQLStore) ReclaimExpired(ctx context.Context, now time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	rows, err := tx.QueryContext(ctx,
		`SELECT token FROM bookings
         WHERE status = ? AND hold_expires_at <= ?
         FOR UPDATE`,
		model.BookingHeld, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("select expired: %w", err)
	}
	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			rows.Close()
			return 0, err
		}
		tokens = append(tokens, t)
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	reclaimed := 0
	for _, token := range tokens {
		err := releaseTx(ctx, tx, token)
		if errors.Is(err, reservation.ErrHoldNotFound) {
			continue // lost the race to a confirm/release
		}
		if err != nil {
			return 0, err
		}
		reclaimed++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return reclaimed, nil
}

// releaseTx applies the HELD -> CANCELLED transition for a booking and
// frees its seat inside the caller's transaction.
func releaseTx(ctx context.Context, tx *sql.Tx, token string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE token = ? AND status = ?`,
		model.BookingCancelled, token, model.BookingHeld)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return reservation.ErrHoldNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE seats
         SET status = ?, hold_token = NULL, hold_expires_at = NULL
         WHERE hold_token = ? AND status = ?`,
		model.SeatAvailable, token, model.SeatHeld); err != nil {
		return fmt.Errorf("free seat: %w", err)
	}
	return nil
}

// lockBooking reads a booking row under FOR UPDATE so the caller can
// transition it without another transaction interleaving.
func lockBooking(ctx context.Context, tx *sql.Tx, token string) (*model.BookingTransaction, error) {
	const q = `SELECT token, show_id, row_label, seat_number, guest_name, status,
                      hold_expires_at, confirmed_at, created_at
               FROM bookings WHERE token = ? FOR UPDATE`
	b := &model.BookingTransaction{}
	var confirmedAt sql.NullTime
	err := tx.QueryRowContext(ctx, q, token).Scan(
		&b.Token, &b.ShowID, &b.RowLabel, &b.SeatNumber, &b.GuestName,
		&b.Status, &b.HoldExpiresAt, &confirmedAt, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reservation.ErrHoldNotFound
	}
	if err != nil {
		return nil, err
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		b.ConfirmedAt = &t
	}
	return b, nil
}

// scanSeat reads one seats row, mapping nullable columns to pointers.
func scanSeat(rows *sql.Rows) (*model.Seat, error) {
	seat := &model.Seat{}
	var holdToken sql.NullString
	var holdExpires, bookedAt sql.NullTime
	var bookedBy sql.NullString
	if err := rows.Scan(&seat.ID, &seat.ShowID, &seat.RowLabel, &seat.SeatNumber,
		&seat.Status, &holdToken, &holdExpires, &bookedBy, &bookedAt); err != nil {
		return nil, err
	}
	if holdToken.Valid {
		seat.HoldToken = &holdToken.String
	}
	if holdExpires.Valid {
		t := holdExpires.Time
		seat.HoldExpiresAt = &t
	}
	if bookedBy.Valid {
		seat.BookedBy = &bookedBy.String
	}
	if bookedAt.Valid {
		t := bookedAt.Time
		seat.BookedAt = &t
	}
	return seat, nil
}

// showExists translates a missing show into the sentinel rejection.
func (s *MySQLStore) showExists(ctx context.Context, showID uint64) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM shows WHERE id = ?`, showID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return reservation.ErrShowNotFound
	}
	return err
}
