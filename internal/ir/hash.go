package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainEvent separates event ids from any other hash in the journal.
// Bump the version suffix if the hashed shape changes.
const DomainEvent = "stepfield/event/v1"

// hashWithDomain returns hex(SHA-256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID returns the content-addressed id of a handled event. Identical
// inputs give identical ids across runs, so replaying a scenario into the
// same journal is idempotent.
func EventID(session, kind string, payload Object, seq int64) (string, error) {
	canonical, err := MarshalCanonical(Object{
		"session": String(session),
		"kind":    String(kind),
		"payload": payload,
		"seq":     Int(seq),
	})
	if err != nil {
		return "", fmt.Errorf("event id: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}
