package random

import (
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateUUIDString generates a UUID string
func GenerateUUIDString() string {
	return uuid.New().String()
}

// GenerateUUID generates a UUID
func GenerateUUID() uuid.UUID {
	return uuid.New()
}

// JoinComponentsToID joins multiple strings into a single ID
func JoinComponentsToID(components ...string) string {
	return strings.Join(components, "-")
}

// NewRand returns a deterministic generator for seed; a zero seed picks one from the clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)) // #nosec G404 -- reproducibility, not secrecy
}
