package id

import "github.com/google/uuid"

// NewRunID returns a time-ordered UUIDv7 so run ids sort by start time.
// A random v4 is used if the v7 clock source fails.
func NewRunID() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}

// Valid reports whether raw parses as a UUID.
func Valid(raw string) bool {
	return uuid.Validate(raw) == nil
}
