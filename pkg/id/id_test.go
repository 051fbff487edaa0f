package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsMonotonic(t *testing.T) {
	t.Parallel()

	prev := New()
	for i := 0; i < 1000; i++ {
		next := New()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Valid(New()))
	assert.False(t, Valid(""))
	assert.False(t, Valid("not-a-ulid"))
}
