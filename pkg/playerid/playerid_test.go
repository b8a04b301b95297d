package playerid

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestHostID(t *testing.T) {
	h := NewHostID()
	assert.Assert(t, h.IsHost())
	assert.Assert(t, !h.IsGuest())
	_, ok := h.GuestIndex()
	assert.Assert(t, !ok, "host should have no guest index")
}

func TestGuestID(t *testing.T) {
	g := NewGuestID(3)
	assert.Assert(t, !g.IsHost())
	assert.Assert(t, g.IsGuest())
	idx, ok := g.GuestIndex()
	assert.Assert(t, ok)
	assert.Equal(t, idx, 2)
}

func TestNewGuestIDZeroPanics(t *testing.T) {
	defer func() {
		assert.Assert(t, recover() != nil, "expected panic for guest id 0")
	}()
	NewGuestID(0)
}

func TestFromGuestIndexRoundTrip(t *testing.T) {
	for i := 0; i < 10; i++ {
		id := FromGuestIndex(i)
		idx, ok := id.GuestIndex()
		assert.Assert(t, ok)
		assert.Equal(t, idx, i)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, NewHostID().String(), "host")
	assert.Equal(t, NewGuestID(1).String(), "guest(1)")
}
