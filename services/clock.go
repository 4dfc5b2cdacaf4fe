package services

import (
	"time"

	"github.com/google/uuid"
)

// IDGenerator returns a fresh globally-unique identifier.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// NewUUID is the default IDGenerator.
func NewUUID() string {
	return uuid.NewString()
}

// SystemClock is the default Clock, always in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}
