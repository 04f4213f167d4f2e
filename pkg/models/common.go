package models

import "github.com/google/uuid"

// NewUUID returns a fresh random ID for markets, events, and traces.
func NewUUID() string {
	return uuid.New().String()
}
