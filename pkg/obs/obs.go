// Package obs holds a peerwise finalized observation: for each player in
// the session, how many of that player's inputs one viewpoint has seen
// finalized. A peer builds one from its own buffers, a guest sends its
// own as an ack, and the host keeps one per guest.
package obs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fenwick-games/lockstep/pkg/playerid"
)

// PeerwiseFinalized is a map from player to the count of that player's
// finalized inputs observed from one viewpoint. The zero value is an
// empty observation set; use New or NewFromObserved to seed one for a
// fixed player count.
type PeerwiseFinalized struct {
	seen map[playerid.ID]uint32
}

// New returns an observation set for numPlayers players, all starting
// at zero.
func New(numPlayers int) *PeerwiseFinalized {
	seen := make(map[playerid.ID]uint32, numPlayers)
	seen[playerid.NewHostID()] = 0
	for i := 0; i < numPlayers-1; i++ {
		seen[playerid.FromGuestIndex(i)] = 0
	}
	return &PeerwiseFinalized{seen: seen}
}

// NewFromObserved builds an observation set directly from a dense
// slice indexed by raw player number (observed[0] is the host).
func NewFromObserved(observed []uint32) *PeerwiseFinalized {
	seen := make(map[playerid.ID]uint32, len(observed))
	for i, tick := range observed {
		seen[playerid.FromUint8(uint8(i))] = tick
	}
	return &PeerwiseFinalized{seen: seen}
}

// Get returns the finalized-input count seen for the given player, or 0
// if the player is unknown.
func (p *PeerwiseFinalized) Get(id playerid.ID) uint32 {
	if p == nil {
		return 0
	}
	return p.seen[id]
}

// Set records the finalized-input count observed for id, overwriting
// any prior value unconditionally.
func (p *PeerwiseFinalized) Set(id playerid.ID, tick uint32) {
	if p.seen == nil {
		p.seen = make(map[playerid.ID]uint32)
	}
	p.seen[id] = tick
}

// Merge folds another observation set into this one, keeping the larger
// of the two ticks for each player. This is the strict, monotonic merge:
// it never regresses a player's observed tick. A naive unconditional
// overwrite (always taking the other set's value) can undo legitimate
// progress whenever the other side's observation set was reset, so
// Merge only ever moves a player's count forward.
func (p *PeerwiseFinalized) Merge(other *PeerwiseFinalized) {
	if other == nil {
		return
	}
	if p.seen == nil {
		p.seen = make(map[playerid.ID]uint32, len(other.seen))
	}
	for id, tick := range other.seen {
		if existing, ok := p.seen[id]; !ok || tick > existing {
			p.seen[id] = tick
		}
	}
}

// EarliestAcrossAll returns the smallest finalized-input count across
// every tracked player, i.e. the highest tick every known player has
// finalized. Returns 0 if no players are tracked.
func (p *PeerwiseFinalized) EarliestAcrossAll() uint32 {
	if p == nil || len(p.seen) == 0 {
		return 0
	}
	var min uint32
	first := true
	for _, tick := range p.seen {
		if first || tick < min {
			min = tick
			first = false
		}
	}
	return min
}

// Snapshot returns a defensive copy of the underlying id-to-tick map.
func (p *PeerwiseFinalized) Snapshot() map[playerid.ID]uint32 {
	out := make(map[playerid.ID]uint32, len(p.seen))
	for id, tick := range p.seen {
		out[id] = tick
	}
	return out
}

// Entry pairs a player with its observed finalized-input count.
type Entry struct {
	Player playerid.ID
	Tick   uint32
}

// Entries returns every (player, tick) pair in ascending player-id
// order, giving callers (notably the wire codec) a deterministic
// iteration order over what is otherwise a map.
func (p *PeerwiseFinalized) Entries() []Entry {
	entries := make([]Entry, 0, len(p.seen))
	for id, tick := range p.seen {
		entries = append(entries, Entry{Player: id, Tick: tick})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Player.Uint8() < entries[j].Player.Uint8() })
	return entries
}

// String renders the observation set in ascending player-id order,
// useful for debug logging.
func (p *PeerwiseFinalized) String() string {
	ids := make([]playerid.ID, 0, len(p.seen))
	for id := range p.seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Uint8() < ids[j].Uint8() })

	var b strings.Builder
	b.WriteString("FinalizedInputsSeen(")
	for _, id := range ids {
		fmt.Fprintf(&b, "%s=%d ", id, p.seen[id])
	}
	b.WriteString(")")
	return b.String()
}
