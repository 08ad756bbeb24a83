package mocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockRandomReplaysQueue(t *testing.T) {
	r := NewMockRandom()
	r.QueueIntn(7, 1005, -1)
	r.QueueString("k3j9x0a2b")

	assert.Equal(t, 4, r.Pending())
	assert.Equal(t, 7, r.Intn(1000))
	assert.Equal(t, 5, r.Intn(1000))
	assert.Equal(t, 999, r.Intn(1000))
	assert.Equal(t, 0, r.Intn(1000))
	assert.Equal(t, "k3j9x0a2b", r.String(9, "abc"))
	assert.Equal(t, "", r.String(9, "abc"))
	assert.Equal(t, 0, r.Pending())
}
