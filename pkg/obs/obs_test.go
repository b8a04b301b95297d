package obs

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/fenwick-games/lockstep/pkg/playerid"
)

func TestBasicOperations(t *testing.T) {
	p := NewFromObserved(nil)
	p.Set(playerid.FromUint8(1), 10)
	p.Set(playerid.FromUint8(2), 20)

	assert.Equal(t, p.Get(playerid.FromUint8(1)), uint32(10))
	assert.Equal(t, p.Get(playerid.FromUint8(2)), uint32(20))
	assert.Equal(t, p.Get(playerid.FromUint8(3)), uint32(0), "unseen player")
}

func TestMergeKeepsNewer(t *testing.T) {
	a := NewFromObserved(nil)
	a.Set(playerid.FromUint8(1), 10)
	a.Set(playerid.FromUint8(2), 20)

	b := NewFromObserved(nil)
	b.Set(playerid.FromUint8(1), 15)
	b.Set(playerid.FromUint8(2), 15)
	b.Set(playerid.FromUint8(3), 25)

	a.Merge(b)

	assert.Equal(t, a.Get(playerid.FromUint8(1)), uint32(15))
	assert.Equal(t, a.Get(playerid.FromUint8(2)), uint32(20), "merge must not regress")
	assert.Equal(t, a.Get(playerid.FromUint8(3)), uint32(25))
}

func TestMergeNeverRegressesEvenAfterPeerReset(t *testing.T) {
	// Simulates a guest whose observation set was wiped (e.g. by a
	// reconnect) and has started re-reporting from zero: the host's
	// own tracked value for that guest must never move backward.
	a := NewFromObserved(nil)
	a.Set(playerid.FromUint8(1), 42)

	reset := NewFromObserved(nil)
	reset.Set(playerid.FromUint8(1), 0)

	a.Merge(reset)

	assert.Equal(t, a.Get(playerid.FromUint8(1)), uint32(42), "a reset peer must not regress the host's tracked value")
}

func TestEarliestAcrossAll(t *testing.T) {
	p := New(3)
	p.Set(playerid.NewHostID(), 10)
	p.Set(playerid.FromGuestIndex(0), 5)
	p.Set(playerid.FromGuestIndex(1), 20)

	assert.Equal(t, p.EarliestAcrossAll(), uint32(5))
}

func TestEarliestAcrossAllEmpty(t *testing.T) {
	p := NewFromObserved(nil)
	assert.Equal(t, p.EarliestAcrossAll(), uint32(0))
}

func TestNewFromObservedIndexesByPlayerNumber(t *testing.T) {
	p := NewFromObserved([]uint32{7, 3, 9})
	assert.Equal(t, p.Get(playerid.NewHostID()), uint32(7))
	assert.Equal(t, p.Get(playerid.FromGuestIndex(0)), uint32(3))
	assert.Equal(t, p.Get(playerid.FromGuestIndex(1)), uint32(9))
}
