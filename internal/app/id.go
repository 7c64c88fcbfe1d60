package app

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// generateID produces a random hex identifier for entity records.
// Isolated here so the ID strategy can evolve independently.
func generateID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	const hex = "0123456789abcdef"
	out := make([]byte, 32)
	for i, v := range b {
		out[i*2] = hex[v>>4]
		out[i*2+1] = hex[v&0x0f]
	}
	return string(out), nil
}

// newProviderRef produces the unique provider transaction reference for a
// payment attempt. UUIDs keep the reference opaque to the provider while
// staying unique across merchants.
func newProviderRef() string {
	return uuid.NewString()
}
