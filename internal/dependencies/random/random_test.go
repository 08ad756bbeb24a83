package random

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntnStaysInRange(t *testing.T) {
	r := New()
	for range 200 {
		v := r.Intn(1000)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 1000)
	}
	assert.Equal(t, 0, r.Intn(0))
	assert.Equal(t, 0, r.Intn(-3))
}

func TestStringUsesAlphabet(t *testing.T) {
	const alphabet = "abc123"
	s := New().String(9, alphabet)

	assert.Len(t, s, 9)
	for _, c := range s {
		assert.True(t, strings.ContainsRune(alphabet, c), "unexpected %q", c)
	}
	assert.Empty(t, New().String(0, alphabet))
	assert.Empty(t, New().String(5, ""))
}
