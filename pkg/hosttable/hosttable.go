// Package hosttable implements the host-only bookkeeping structure that
// tracks, for each guest, the finalized-input counts that guest has
// acknowledged for every other peer (including the host itself). The
// host uses it to compute the safe starting point for its broadcasts.
package hosttable

import (
	"fmt"

	"github.com/fenwick-games/lockstep/pkg/obs"
	"github.com/fenwick-games/lockstep/pkg/playerid"
)

// Table is indexed densely by guest_id-1, not by a map, since guest ids
// are always the contiguous range [1, numPlayers).
type Table struct {
	numPlayers int
	perGuest   []*obs.PeerwiseFinalized
}

// New returns a table for numPlayers players (numPlayers-1 guest slots),
// each guest starting with an all-zero observation set.
func New(numPlayers int) *Table {
	numGuests := numPlayers - 1
	if numGuests < 0 {
		numGuests = 0
	}
	perGuest := make([]*obs.PeerwiseFinalized, numGuests)
	for i := range perGuest {
		perGuest[i] = obs.New(numPlayers)
	}
	return &Table{numPlayers: numPlayers, perGuest: perGuest}
}

// Update merges a newly-received observation set into the slot for
// guestID, keeping the per-player maximum. Merge, not overwrite, is the
// operation that preserves correctness under out-of-order acks; see
// obs.PeerwiseFinalized.Merge.
func (t *Table) Update(guestID playerid.ID, observation *obs.PeerwiseFinalized) {
	idx, ok := guestID.GuestIndex()
	if !ok {
		panic(fmt.Sprintf("hosttable: %s is not a guest", guestID))
	}
	t.perGuest[idx].Merge(observation)
}

// EarliestObservedFinalFor returns the minimum, across every guest, of
// that guest's observed finalized count for playerID. Since every guest
// has observed at least this many finalized inputs for playerID, a
// broadcast starting at this tick can never leave a guest with a gap.
func (t *Table) EarliestObservedFinalFor(playerID playerid.ID) uint32 {
	if len(t.perGuest) == 0 {
		return 0
	}
	var min uint32
	first := true
	for _, observation := range t.perGuest {
		tick := observation.Get(playerID)
		if first || tick < min {
			min = tick
			first = false
		}
	}
	return min
}
