package event

import "github.com/google/uuid"

// NewID returns a fresh event ID with the "evt_" prefix.
func NewID() string {
	return "evt_" + uuid.NewString()
}
