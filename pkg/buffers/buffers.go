// Package buffers aggregates one input buffer per player and answers the
// cross-peer queries a coordinator needs: the snapshottable tick, the
// current self-view of finalized observations, and per-player status
// and predictive reads.
package buffers

import (
	"fmt"
	"sort"

	"github.com/fenwick-games/lockstep/pkg/inputbuf"
	"github.com/fenwick-games/lockstep/pkg/obs"
	"github.com/fenwick-games/lockstep/pkg/playerid"
)

// MultiPlayerInputBuffers owns one inputbuf.Buffer per player. The set
// of player ids is fixed at construction: {0, ..., numPlayers-1}.
type MultiPlayerInputBuffers[B comparable] struct {
	maxPredict int
	players    []*inputbuf.Buffer[B]
}

// New returns a buffer set for numPlayers players, each starting empty,
// with the given last-observation-carried-forward prediction horizon.
func New[B comparable](numPlayers, maxPredict int) *MultiPlayerInputBuffers[B] {
	players := make([]*inputbuf.Buffer[B], numPlayers)
	for i := range players {
		players[i] = inputbuf.New[B]()
	}
	return &MultiPlayerInputBuffers[B]{maxPredict: maxPredict, players: players}
}

// NumPlayers returns the fixed player count.
func (m *MultiPlayerInputBuffers[B]) NumPlayers() int {
	return len(m.players)
}

func (m *MultiPlayerInputBuffers[B]) buf(id playerid.ID) *inputbuf.Buffer[B] {
	idx := id.Int()
	if idx < 0 || idx >= len(m.players) {
		panic(fmt.Sprintf("buffers: player %s out of range [0, %d)", id, len(m.players)))
	}
	return m.players[idx]
}

// Append tentatively appends input for id.
func (m *MultiPlayerInputBuffers[B]) Append(id playerid.ID, input B) {
	m.buf(id).Append(input)
}

// AppendFinalized appends and finalizes input for id. Used only by the
// host for its own player slot.
func (m *MultiPlayerInputBuffers[B]) AppendFinalized(id playerid.ID, input B) {
	m.buf(id).HostAppendFinalized(input)
}

// AppendFinalDefaultsThrough synthesizes default finalized inputs for id
// through target, inclusive.
func (m *MultiPlayerInputBuffers[B]) AppendFinalDefaultsThrough(id playerid.ID, target int) {
	m.buf(id).AppendFinalDefaultsThrough(target)
}

// ReceivePeerSlice stores tentative values for id.
func (m *MultiPlayerInputBuffers[B]) ReceivePeerSlice(id playerid.ID, start int, inputs []B) {
	m.buf(id).ReceivePeerSlice(start, inputs)
}

// ReceiveFinalizedSlice extends the finalized prefix for id.
func (m *MultiPlayerInputBuffers[B]) ReceiveFinalizedSlice(id playerid.ID, start int, inputs []B) {
	m.buf(id).ReceiveFinalizedSlice(start, inputs)
}

// SliceFrom returns a copy of id's entries from start to the end of the
// buffer; used to build an outbound slice message.
func (m *MultiPlayerInputBuffers[B]) SliceFrom(id playerid.ID, start int) []B {
	return m.buf(id).SliceFrom(start)
}

// FinalizedSliceFrom returns a copy of id's finalized entries from
// start through the end of its finalized prefix; used by the host to
// build a broadcast that never carries tentative data.
func (m *MultiPlayerInputBuffers[B]) FinalizedSliceFrom(id playerid.ID, start int) []B {
	buf := m.buf(id)
	return buf.Slice(start, buf.FinalizedCount())
}

// GetOrPredict returns id's input at tick, predicting via
// last-observation-carried-forward within the configured horizon.
func (m *MultiPlayerInputBuffers[B]) GetOrPredict(id playerid.ID, tick int) B {
	return m.buf(id).GetOrPredict(tick, m.maxPredict)
}

// FinalizedCount returns id's finalized prefix length.
func (m *MultiPlayerInputBuffers[B]) FinalizedCount(id playerid.ID) int {
	return m.buf(id).FinalizedCount()
}

// Len returns id's total stored input count, finalized or not.
func (m *MultiPlayerInputBuffers[B]) Len(id playerid.ID) int {
	return m.buf(id).Len()
}

// IsFinalized reports whether tick is within id's finalized prefix.
func (m *MultiPlayerInputBuffers[B]) IsFinalized(id playerid.ID, tick int) bool {
	return m.buf(id).IsFinalized(tick)
}

// Status classifies tick for id.
func (m *MultiPlayerInputBuffers[B]) Status(id playerid.ID, tick int) inputbuf.Status {
	return m.buf(id).Status(tick)
}

// OwnObservations builds a PeerwiseFinalized snapshot from this buffer
// set's own finalized counts, one entry per player id.
func (m *MultiPlayerInputBuffers[B]) OwnObservations() *obs.PeerwiseFinalized {
	counts := make([]uint32, len(m.players))
	for i, buf := range m.players {
		counts[i] = uint32(buf.FinalizedCount())
	}
	return obs.NewFromObserved(counts)
}

// SnapshottableTick returns the minimum finalized count across every
// player: the largest tick every peer's view can safely advance to.
func (m *MultiPlayerInputBuffers[B]) SnapshottableTick() int {
	if len(m.players) == 0 {
		return 0
	}
	min := m.players[0].FinalizedCount()
	for _, buf := range m.players[1:] {
		if c := buf.FinalizedCount(); c < min {
			min = c
		}
	}
	return min
}

// FinalInputsByTick returns, for every tick in [0, SnapshottableTick()),
// the per-player input vector in ascending player-id order.
func (m *MultiPlayerInputBuffers[B]) FinalInputsByTick() [][]B {
	snap := m.SnapshottableTick()
	out := make([][]B, snap)
	for tick := 0; tick < snap; tick++ {
		row := make([]B, len(m.players))
		for i, buf := range m.players {
			row[i] = buf.GetOrPredict(tick, m.maxPredict)
		}
		out[tick] = row
	}
	return out
}

// PlayerBufferSnapshot is the serialized form of one player's buffer,
// used for replay persistence.
type PlayerBufferSnapshot[B comparable] struct {
	Inputs         []B
	FinalizedCount int
}

// SerializePlayerBuffer exports a copy of id's buffer. When
// resetFinalization is true, the returned snapshot reports a finalized
// count of 0 (used for replay files, where playback re-finalizes from
// scratch); the live buffer is never modified by this call.
func (m *MultiPlayerInputBuffers[B]) SerializePlayerBuffer(id playerid.ID, resetFinalization bool) PlayerBufferSnapshot[B] {
	buf := m.buf(id)
	snap := PlayerBufferSnapshot[B]{
		Inputs:         buf.SliceFrom(0),
		FinalizedCount: buf.FinalizedCount(),
	}
	if resetFinalization {
		snap.FinalizedCount = 0
	}
	return snap
}

// DeserializePlayerBuffer replaces id's buffer wholesale with snap's
// contents.
func (m *MultiPlayerInputBuffers[B]) DeserializePlayerBuffer(id playerid.ID, snap PlayerBufferSnapshot[B]) {
	nb := inputbuf.New[B]()
	for i, input := range snap.Inputs {
		if i < snap.FinalizedCount {
			nb.HostAppendFinalized(input)
		} else {
			nb.Append(input)
		}
	}
	m.players[id.Int()] = nb
}

// PlayerIDs returns every player id in ascending order.
func (m *MultiPlayerInputBuffers[B]) PlayerIDs() []playerid.ID {
	ids := make([]playerid.ID, len(m.players))
	for i := range m.players {
		ids[i] = playerid.FromUint8(uint8(i))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Uint8() < ids[j].Uint8() })
	return ids
}
