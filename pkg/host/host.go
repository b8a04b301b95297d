// Package host implements the host coordinator: authoritative
// finalization, per-guest broadcast computation, catch-up synthesis for
// lagging or disconnected guests, and pong/RTT handling.
package host

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fenwick-games/lockstep/pkg/buffers"
	"github.com/fenwick-games/lockstep/pkg/clock"
	"github.com/fenwick-games/lockstep/pkg/ewma"
	"github.com/fenwick-games/lockstep/pkg/hosttable"
	"github.com/fenwick-games/lockstep/pkg/playerid"
	"github.com/fenwick-games/lockstep/pkg/wire"
)

// ErrUnknownPingID is returned by RxGuestPongPong when the pong-pong
// reply's id doesn't match any outstanding pong the host sent to that
// guest. Not fatal: the caller simply drops the RTT sample.
var ErrUnknownPingID = errors.New("host: unknown ping id")

// Config fixes the per-session parameters for a host coordinator.
type Config struct {
	NumPlayers          int
	TicksPerSec         uint32
	MaxPredict          int
	MaxGuestTicksBehind int
	Logger              *logrus.Entry
}

// Coordinator is the host's authoritative view of the session.
type Coordinator[B comparable] struct {
	buffers             *buffers.MultiPlayerInputBuffers[B]
	obsTable            *hosttable.Table
	ticksPerSec         uint32
	maxGuestTicksBehind int
	simTime             float64
	logger              *logrus.Entry

	pongSendTimes map[playerid.ID]*pongTracker
	rtts          map[playerid.ID]*ewma.EWMA
	disconnected  map[playerid.ID]bool

	catchUpBroadcasts uint64
}

// New constructs a host coordinator with an empty buffer set.
func New[B comparable](cfg Config) *Coordinator[B] {
	return &Coordinator[B]{
		buffers:             buffers.New[B](cfg.NumPlayers, cfg.MaxPredict),
		obsTable:            hosttable.New(cfg.NumPlayers),
		ticksPerSec:         cfg.TicksPerSec,
		maxGuestTicksBehind: cfg.MaxGuestTicksBehind,
		logger:              cfg.Logger,
		pongSendTimes:       make(map[playerid.ID]*pongTracker),
		rtts:                make(map[playerid.ID]*ewma.EWMA),
		disconnected:        make(map[playerid.ID]bool),
	}
}

// Buffers exposes the underlying buffer set for snapshot queries.
func (h *Coordinator[B]) Buffers() *buffers.MultiPlayerInputBuffers[B] {
	return h.buffers
}

// AddOwnInputDirect appends a finalized input to the host's own slot
// (player 0). The host is the only party whose own inputs finalize
// immediately on arrival.
func (h *Coordinator[B]) AddOwnInputDirect(input B) {
	h.buffers.AppendFinalized(playerid.NewHostID(), input)
}

// StepTimeAndNeeded advances the host's accumulated sim time by delta
// seconds and returns how many inputs the host must collect to stay
// caught up with its configured tick rate.
func (h *Coordinator[B]) StepTimeAndNeeded(delta float64) int {
	newSimTime, needed := clock.StepTimeAndNeeded(h.simTime, delta, h.ticksPerSec, h.buffers.FinalizedCount(playerid.NewHostID()))
	h.simTime = newSimTime
	return needed
}

// AddHostInputToFill calls StepTimeAndNeeded and then appends input,
// finalized, that many times.
func (h *Coordinator[B]) AddHostInputToFill(input B, delta float64) {
	needed := h.StepTimeAndNeeded(delta)
	for i := 0; i < needed; i++ {
		h.AddOwnInputDirect(input)
	}
}

// RxGuestInputSlice treats a guest-authored slice as finalized for that
// guest: once the host has seen an input, it is authoritative and can
// never be retracted. Gap rules of ReceiveFinalizedSlice apply. Any
// message other than PeerInputs is ignored.
func (h *Coordinator[B]) RxGuestInputSlice(guestID playerid.ID, msg wire.Message[B]) {
	if msg.Tag != wire.TagPeerInputs {
		h.warn("unexpected tag for guest input slice", guestID, msg.Tag)
		return
	}
	h.buffers.ReceiveFinalizedSlice(guestID, int(msg.PeerInputs.Start), msg.PeerInputs.Inputs)
}

// RxGuestAck merges a guest's reported observations into the host
// observations table.
func (h *Coordinator[B]) RxGuestAck(guestID playerid.ID, msg wire.Message[B]) {
	if msg.Tag != wire.TagGuestAckFinalization {
		h.warn("unexpected tag for guest ack", guestID, msg.Tag)
		return
	}
	h.obsTable.Update(guestID, msg.Ack)
}

// RxGuestPingAndReply records the guest's ping id with its receipt time
// and returns the HostPong reply to send back.
func (h *Coordinator[B]) RxGuestPingAndReply(guestID playerid.ID, msg wire.Message[B], now time.Time) wire.Message[B] {
	if msg.Tag != wire.TagGuestPing {
		panic("host: RxGuestPingAndReply requires a GuestPing message")
	}
	tracker, ok := h.pongSendTimes[guestID]
	if !ok {
		tracker = newPongTracker()
		h.pongSendTimes[guestID] = tracker
	}
	tracker.recordSend(msg.PingID, now)
	return wire.NewHostPong[B](msg.PingID)
}

// RxGuestPongPong matches a GuestPongPong reply against the outstanding
// pong and records the elapsed time as an RTT sample. If the id is
// unknown, ErrUnknownPingID is returned and no RTT is updated.
func (h *Coordinator[B]) RxGuestPongPong(guestID playerid.ID, msg wire.Message[B], now time.Time) (wire.Message[B], error) {
	if msg.Tag != wire.TagGuestPongPong {
		panic("host: RxGuestPongPong requires a GuestPongPong message")
	}
	tracker, ok := h.pongSendTimes[guestID]
	if !ok {
		return wire.Message[B]{}, ErrUnknownPingID
	}
	elapsed, ok := tracker.observe(msg.PingID, now)
	if !ok {
		return wire.Message[B]{}, ErrUnknownPingID
	}
	rttMS := float64(elapsed.Microseconds()) / 1000.0
	rtt, ok := h.rtts[guestID]
	if !ok {
		rtt = ewma.NewWithValue(ewma.DefaultAlpha, rttMS)
		h.rtts[guestID] = rtt
	} else {
		rtt.Observe(rttMS)
	}
	return wire.NewEmpty[B](), nil
}

// BroadcastFinalizedSliceMsg builds the HostFinalizedSlice message for
// playerID: the slice starts at the earliest tick every guest has
// acknowledged seeing for that player (so it can never leave a gap) and
// ends at that player's current finalized count. The message is tagged
// with the host's own finalized count as host_tick.
func (h *Coordinator[B]) BroadcastFinalizedSliceMsg(playerID playerid.ID) wire.Message[B] {
	start := h.obsTable.EarliestObservedFinalFor(playerID)
	inputs := h.buffers.FinalizedSliceFrom(playerID, int(start))
	hostTick := int32(h.buffers.FinalizedCount(playerid.NewHostID()))
	return wire.NewHostFinalizedSlice(playerID, hostTick, start, inputs)
}

// CatchUpMsg checks whether guestID has fallen behind the host's
// catch-up threshold (or is disconnected, in which case the threshold
// is the host's full horizon). If so, it synthesizes default finalized
// inputs up to the target and returns a broadcast for that guest;
// otherwise it returns Empty.
func (h *Coordinator[B]) CatchUpMsg(guestID playerid.ID) wire.Message[B] {
	hostOwnLen := h.buffers.FinalizedCount(playerid.NewHostID())

	var target int
	if h.disconnected[guestID] {
		target = hostOwnLen
	} else {
		target = hostOwnLen - h.maxGuestTicksBehind
		if target < 0 {
			target = 0
		}
	}

	if h.buffers.FinalizedCount(guestID) >= target {
		return wire.NewEmpty[B]()
	}
	if target > 0 {
		h.buffers.AppendFinalDefaultsThrough(guestID, target-1)
	}
	h.catchUpBroadcasts++
	return h.BroadcastFinalizedSliceMsg(guestID)
}

// PlayerDisconnected marks id as disconnected. From then on its
// catch-up target is the host's full horizon: its inputs are synthesized
// entirely from the default input value.
func (h *Coordinator[B]) PlayerDisconnected(id playerid.ID) {
	h.disconnected[id] = true
}

func (h *Coordinator[B]) warn(reason string, from playerid.ID, tag wire.Tag) {
	if h.logger == nil {
		return
	}
	h.logger.WithFields(logrus.Fields{"tag": tag, "from": from}).Warn(reason)
}

// pongTracker records per-guest pong send times, keyed by ping id.
type pongTracker struct {
	sent map[uint32]time.Time
}

func newPongTracker() *pongTracker {
	return &pongTracker{sent: make(map[uint32]time.Time)}
}

func (p *pongTracker) recordSend(id uint32, now time.Time) {
	p.sent[id] = now
}

func (p *pongTracker) observe(id uint32, now time.Time) (time.Duration, bool) {
	sentAt, ok := p.sent[id]
	if !ok {
		return 0, false
	}
	delete(p.sent, id)
	return now.Sub(sentAt), true
}
