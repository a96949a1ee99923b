package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SeatsPerRow is the number of seats provisioned per row letter.  A show
// with 23 seats gets A1..A10, B1..B10, C1..C3.
const SeatsPerRow = 10

// MaxSeatsPerShow bounds provisioning to single-letter rows A..Z.
const MaxSeatsPerShow = 26 * SeatsPerRow

// ErrBadSeatLabel is returned when a seat label cannot be parsed.
var ErrBadSeatLabel = errors.New("invalid seat label")

// FormatSeatLabel joins a row label and seat number into the form shown
// to clients, e.g. ("A", 7) -> "A7".
func FormatSeatLabel(row string, number uint32) string {
	return fmt.Sprintf("%s%d", row, number)
}

// ParseSeatLabel splits a label such as "A7" or "B12" into its row label
// and seat number.  The row is one or more letters, the number one or
// more digits; anything else is rejected.
func ParseSeatLabel(label string) (string, uint32, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	i := 0
	for i < len(label) && label[i] >= 'A' && label[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(label) {
		return "", 0, ErrBadSeatLabel
	}
	n, err := strconv.ParseUint(label[i:], 10, 32)
	if err != nil || n == 0 {
		return "", 0, ErrBadSeatLabel
	}
	return label[:i], uint32(n), nil
}

// GenerateSeatPositions produces the row/number pairs for a newly
// provisioned show in natural order: A1..A10, then B1..B10, and so on.
// seatCount must be between 1 and MaxSeatsPerShow.
func GenerateSeatPositions(seatCount int) ([]Seat, error) {
	if seatCount < 1 || seatCount > MaxSeatsPerShow {
		return nil, fmt.Errorf("seat count must be between 1 and %d, got %d", MaxSeatsPerShow, seatCount)
	}
	seats := make([]Seat, 0, seatCount)
	for i := 0; i < seatCount; i++ {
		seats = append(seats, Seat{
			RowLabel:   string(rune('A' + i/SeatsPerRow)),
			SeatNumber: uint32(i%SeatsPerRow) + 1,
			Status:     SeatAvailable,
		})
	}
	return seats, nil
}

// LessSeat orders seats naturally: by row label (shorter rows first so
// that "Z" sorts before "AA"), then by seat number.  This yields A2
// before A10, unlike plain string comparison of labels.
func LessSeat(a, b *Seat) bool {
	if len(a.RowLabel) != len(b.RowLabel) {
		return len(a.RowLabel) < len(b.RowLabel)
	}
	if a.RowLabel != b.RowLabel {
		return a.RowLabel < b.RowLabel
	}
	return a.SeatNumber < b.SeatNumber
}
