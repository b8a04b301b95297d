// Package guest implements the guest-side coordinator: the guest's own
// input collection, RTT measurement to the host, ping/pong bookkeeping,
// and the read/acknowledge half of the finalization protocol.
package guest

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/fenwick-games/lockstep/pkg/buffers"
	"github.com/fenwick-games/lockstep/pkg/clock"
	"github.com/fenwick-games/lockstep/pkg/ewma"
	"github.com/fenwick-games/lockstep/pkg/playerid"
	"github.com/fenwick-games/lockstep/pkg/wire"
)

// Config fixes the per-session parameters for a guest coordinator.
type Config struct {
	NumPlayers  int
	OwnID       playerid.ID
	TicksPerSec uint32
	// MaxPredict bounds how far get_or_predict will extrapolate past the
	// end of a buffer via last-observation-carried-forward.
	MaxPredict int
	// MaxCatchupInputs bounds num_inputs_needed; defaults to
	// clock.DefaultMaxCatchupInputs when zero.
	MaxCatchupInputs int
	// PingInterval is how often the caller should call PingMsg. The
	// coordinator never schedules timers itself; this is advisory data
	// for the caller's own loop.
	PingInterval time.Duration
	// Logger receives Warn-level entries for discarded/malformed
	// messages. A nil Logger means "don't log" — the core never
	// defaults to a concrete logger itself.
	Logger *logrus.Entry
}

// Coordinator is the guest's view of the session.
type Coordinator[B comparable] struct {
	buffers          *buffers.MultiPlayerInputBuffers[B]
	ownID            playerid.ID
	ticksPerSec      uint32
	maxCatchupInputs int
	pingInterval     time.Duration
	logger           *logrus.Entry

	// hostTick starts at math.MinInt32, the "unknown / pre-contact"
	// sentinel; PreSimSync and HostFinalizedSlice move it forward.
	hostTick int32

	rtt     *ewma.EWMA
	haveRTT bool

	pings *pingTracker
}

// New constructs a guest coordinator with an empty buffer set.
func New[B comparable](cfg Config) *Coordinator[B] {
	maxCatchup := cfg.MaxCatchupInputs
	if maxCatchup == 0 {
		maxCatchup = clock.DefaultMaxCatchupInputs
	}
	return &Coordinator[B]{
		buffers:          buffers.New[B](cfg.NumPlayers, cfg.MaxPredict),
		ownID:            cfg.OwnID,
		ticksPerSec:      cfg.TicksPerSec,
		maxCatchupInputs: maxCatchup,
		pingInterval:     cfg.PingInterval,
		logger:           cfg.Logger,
		hostTick:         math.MinInt32,
		rtt:              ewma.Default(),
		pings:            newPingTracker(),
	}
}

// Buffers exposes the underlying buffer set for snapshot queries.
func (c *Coordinator[B]) Buffers() *buffers.MultiPlayerInputBuffers[B] {
	return c.buffers
}

// HostTick returns the guest's last-known host tick. It is negative
// during the pre-simulation countdown and math.MinInt32 before any
// contact from the host.
func (c *Coordinator[B]) HostTick() int32 {
	return c.hostTick
}

// AddOwnInput tentatively appends input to the guest's own buffer.
func (c *Coordinator[B]) AddOwnInput(input B) {
	c.buffers.Append(c.ownID, input)
}

// OwnInputSliceMsg builds the PeerInputs message the guest sends to the
// host: every input from the host's last-acked finalized count to the
// end of the guest's own buffer.
func (c *Coordinator[B]) OwnInputSliceMsg() wire.Message[B] {
	start := c.buffers.FinalizedCount(c.ownID)
	return wire.NewPeerInputs(uint32(start), c.buffers.SliceFrom(c.ownID, start))
}

// RxPeerInputSlice stores a peer's tentative inputs, received directly
// from that peer. Anything other than a PeerInputs message is ignored.
func (c *Coordinator[B]) RxPeerInputSlice(from playerid.ID, msg wire.Message[B]) {
	if msg.Tag != wire.TagPeerInputs {
		c.warn("unexpected tag for peer input slice", from, msg.Tag)
		return
	}
	c.buffers.ReceivePeerSlice(from, int(msg.PeerInputs.Start), msg.PeerInputs.Inputs)
}

// RxHostFinalizedSlice applies a host-broadcast finalized slice: the
// host tick is advanced (never regressed), and the named player's
// finalized prefix is extended.
func (c *Coordinator[B]) RxHostFinalizedSlice(msg wire.Message[B]) {
	if msg.Tag != wire.TagHostFinalizedSlice {
		c.warn("unexpected tag for finalized slice", playerid.ID{}, msg.Tag)
		return
	}
	body := msg.HostFinalized
	if body.HostTick > c.hostTick {
		c.hostTick = body.HostTick
	}
	c.buffers.ReceiveFinalizedSlice(body.Player, int(body.Slice.Start), body.Slice.Inputs)
}

// RxPreSimSync sets host_tick to the negative countdown carried by the
// message, which then counts up toward 0 as the pre-simulation phase
// elapses.
func (c *Coordinator[B]) RxPreSimSync(msg wire.Message[B]) {
	if msg.Tag != wire.TagPreSimSync {
		c.warn("unexpected tag for pre-sim sync", playerid.ID{}, msg.Tag)
		return
	}
	c.hostTick = -int32(msg.PreSimSync.HostTickCountdown)
}

// RxHostPongAndReply matches a HostPong against the outstanding ping,
// records the elapsed time as an RTT sample, and returns the
// GuestPongPong reply the caller should send back to the host.
func (c *Coordinator[B]) RxHostPongAndReply(msg wire.Message[B], now time.Time) wire.Message[B] {
	if msg.Tag != wire.TagHostPong {
		panic("guest: RxHostPongAndReply requires a HostPong message")
	}
	elapsed, ok := c.pings.observe(msg.PingID, now)
	if !ok {
		panic("guest: no outstanding ping with this id")
	}
	c.observeRTT(float64(elapsed.Microseconds()) / 1000.0)
	return wire.NewGuestPongPong[B](msg.PingID)
}

func (c *Coordinator[B]) observeRTT(rttMS float64) {
	if !c.haveRTT {
		c.rtt.Set(rttMS)
		c.haveRTT = true
		return
	}
	c.rtt.Observe(rttMS)
}

// AckMsg builds the GuestAckFinalization message carrying the guest's
// own view of every player's finalized count.
func (c *Coordinator[B]) AckMsg() wire.Message[B] {
	return wire.NewGuestAckFinalization[B](c.buffers.OwnObservations())
}

// PingInterval returns the configured interval at which the caller's
// own loop should invoke PingMsg.
func (c *Coordinator[B]) PingInterval() time.Duration {
	return c.pingInterval
}

// PingMsg allocates the next ping id, records its send time, and
// returns the GuestPing message to transmit.
func (c *Coordinator[B]) PingMsg(now time.Time) wire.Message[B] {
	return wire.NewGuestPing[B](c.pings.sendNext(now))
}

// NumInputsNeeded is the guest-side pacing heuristic: how many local
// inputs to collect this step given the current RTT estimate and host
// tick.
func (c *Coordinator[B]) NumInputsNeeded() int {
	return clock.NumInputsNeeded(c.haveRTT, c.rtt.Value(), c.hostTick, c.ticksPerSec, c.buffers.Len(c.ownID), c.maxCatchupInputs)
}

func (c *Coordinator[B]) warn(reason string, from playerid.ID, tag wire.Tag) {
	if c.logger == nil {
		return
	}
	c.logger.WithFields(logrus.Fields{"tag": tag, "from": from}).Warn(reason)
}

// pingTracker allocates ping ids and tracks their send times. The id
// space is a simple local monotonic counter, but it is seeded from a
// freshly generated xid so that two coordinators do not both start at
// id 0. Only the counter is kept; the xid itself is discarded.
type pingTracker struct {
	nextID uint32
	sent   map[uint32]time.Time
}

func newPingTracker() *pingTracker {
	seed := xid.New()
	b := seed.Bytes()
	return &pingTracker{
		nextID: binary.BigEndian.Uint32(b[8:12]),
		sent:   make(map[uint32]time.Time),
	}
}

func (p *pingTracker) sendNext(now time.Time) uint32 {
	id := p.nextID
	p.nextID++
	p.sent[id] = now
	return id
}

func (p *pingTracker) observe(id uint32, now time.Time) (time.Duration, bool) {
	sentAt, ok := p.sent[id]
	if !ok {
		return 0, false
	}
	delete(p.sent, id)
	return now.Sub(sentAt), true
}
