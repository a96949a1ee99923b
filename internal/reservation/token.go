package reservation

import (
	"crypto/rand"
	"encoding/hex"
)

// NewHoldToken generates the opaque token correlating a seat's hold with
// its booking transaction.  The underlying call to crypto/rand ensures
// cryptographically secure random bytes; 32 bytes yield a 64 character
// hex string.
func NewHoldToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
