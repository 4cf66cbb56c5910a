package utils

import "github.com/google/uuid"

// GenerateID returns a new opaque identifier for a history entry.
func GenerateID() string {
	return uuid.NewString()
}
