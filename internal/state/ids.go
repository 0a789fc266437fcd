package state

import (
	"github.com/google/uuid"
)

// NewID returns a fresh identifier for an element or text item.
func NewID() string {
	return uuid.NewString()
}

// SeedFor derives the renderer jitter seed from an id so re-renders of the
// same element look identical on every peer.
func SeedFor(id string) int {
	var h int32
	for _, c := range id {
		h = (h << 5) - h + int32(c)
	}
	v := int(h)
	if v < 0 {
		v = -v
	}
	return v % 10000
}
