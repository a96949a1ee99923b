package queue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLine(t *testing.T) {
	line := formatLine(BookingConfirmedEvent{
		Token:       "abc123",
		ShowID:      7,
		ShowName:    "Hamlet",
		SeatLabel:   "B4",
		GuestName:   "Alice",
		ConfirmedAt: "2026-08-24T18:00:00Z",
	})
	assert.Equal(t, "[2026-08-24T18:00:00Z] Booking confirmed | show_id=7 | show=\"Hamlet\" | seat=B4 | guest=\"Alice\" | token=abc123\n", line)
}

func TestHandleMessageAppendsLogLine(t *testing.T) {
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	body := []byte(`{"token":"abc","show_id":1,"show_name":"Hamlet","seat":"A1","guest_name":"Bob","confirmed_at":"2026-08-24T18:00:00Z"}`)
	require.NoError(t, handleMessage(body))
	require.NoError(t, handleMessage(body))

	data, err := os.ReadFile(filepath.Join("logs", "booking.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "seat=A1")
	assert.Contains(t, string(data), `guest="Bob"`)

	assert.Error(t, handleMessage([]byte("not json")))
}
