package utils

import "github.com/google/uuid"

// NewUUID returns a time-ordered (v7) UUID string.
func NewUUID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}

	panic("failed to generate UUID")
}
