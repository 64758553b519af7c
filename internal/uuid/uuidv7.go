// Package uuid generates and validates the time-ordered identifiers used as
// primary keys.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a new UUIDv7 string. UUIDv7 embeds a millisecond timestamp in
// its leading 48 bits, so keys sort by creation time.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// Entropy source failure; v4 keeps the key unique, only ordering is lost.
		return googleuuid.New().String()
	}
	return id.String()
}

// Parse validates and normalizes a UUID string.
func Parse(s string) (string, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
