package beak

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// newTransactionID generates the per-request x-client-transaction-id value.
func newTransactionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "00000000000000000000000000000000"
	}
	return hex.EncodeToString(b)
}

// newClientUUID generates the per-session client/device identifier.
func newClientUUID() string {
	return uuid.NewString()
}
