package hosttable

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/fenwick-games/lockstep/pkg/obs"
	"github.com/fenwick-games/lockstep/pkg/playerid"
)

func TestHostBroadcastStartTracksEarliestAck(t *testing.T) {
	// S3: host has 3 players (host=0, guest A=2, guest B=3 -- modeled
	// here as a 4-player table so guest ids 2 and 3 are valid). Guest 1
	// acks well ahead of A and B so that only A and B set the minimum; a
	// guest slot that never acks counts as zero.
	tbl := New(4)
	tbl.Update(playerid.FromUint8(1), obs.NewFromObserved([]uint32{10, 10, 10, 10}))

	ackA := obs.NewFromObserved([]uint32{3, 0, 5, 1})
	tbl.Update(playerid.FromUint8(2), ackA)

	ackB := obs.NewFromObserved([]uint32{7, 0, 7, 7})
	tbl.Update(playerid.FromUint8(3), ackB)

	assert.Equal(t, tbl.EarliestObservedFinalFor(playerid.NewHostID()), uint32(3))
	assert.Equal(t, tbl.EarliestObservedFinalFor(playerid.FromUint8(2)), uint32(5))
	assert.Equal(t, tbl.EarliestObservedFinalFor(playerid.FromUint8(3)), uint32(1))
}

func TestEarliestObservedFinalForNoGuests(t *testing.T) {
	tbl := New(1)
	assert.Equal(t, tbl.EarliestObservedFinalFor(playerid.NewHostID()), uint32(0))
}

func TestUpdateMergesNotOverwrites(t *testing.T) {
	tbl := New(2)
	guest := playerid.FromUint8(1)

	tbl.Update(guest, obs.NewFromObserved([]uint32{10, 0, 0}))
	tbl.Update(guest, obs.NewFromObserved([]uint32{5, 0, 0}))

	assert.Equal(t, tbl.EarliestObservedFinalFor(playerid.NewHostID()), uint32(10), "merge must not regress")
}

func TestUpdatePanicsOnHostID(t *testing.T) {
	defer func() {
		assert.Assert(t, recover() != nil, "expected panic when updating the host's own slot")
	}()
	New(2).Update(playerid.NewHostID(), obs.NewFromObserved([]uint32{0, 0}))
}
