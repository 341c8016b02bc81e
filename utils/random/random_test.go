package random

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewRandIsReproducible(t *testing.T) {
	a, b := NewRand(42), NewRand(42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Int63(), b.Int63())
	}
}

func TestGenerateUUIDString(t *testing.T) {
	_, err := uuid.Parse(GenerateUUIDString())
	assert.NoError(t, err)
	assert.Equal(t, "run-1", JoinComponentsToID("run", "1"))
}
