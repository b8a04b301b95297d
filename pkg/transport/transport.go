// Package transport implements the abstract delivery collaborator the
// core consumes (send-to-host, send-to-guest, broadcast, poll), plus an
// instrumentation decorator and an in-memory stand-in transport used by
// tests and the demo CLI.
package transport

import (
	"sync"
	"time"

	"github.com/fenwick-games/lockstep/pkg/playerid"
)

// Received pairs an inbound payload with the peer that sent it.
type Received struct {
	From  playerid.ID
	Bytes []byte
}

// Transport is the collaborator the core consumes: an unreliable,
// unordered, possibly-duplicating channel addressed host->guest,
// guest->host, or host->all.
type Transport interface {
	SendToHost(payload []byte) error
	SendToGuest(id playerid.ID, payload []byte) error
	BroadcastToAllGuests(payload []byte) error
	Poll() []Received
}

// PeerStats tracks byte and message counts for one peer, in both
// directions, plus the last time any activity was observed.
type PeerStats struct {
	BytesSent, BytesReceived       int64
	MessagesSent, MessagesReceived int64
	LastActivity                   time.Time
}

// ReportFn is called after every send or receive that touches a given
// peer's stats, mirroring the teacher's ReportStatsFn callback on its
// Conn wrapper.
type ReportFn func(peer playerid.ID, stats PeerStats)

// Instrumented decorates a Transport, counting bytes and messages per
// peer and reporting through an optional callback. It adds no behavior
// of its own: every call is forwarded to the wrapped Transport.
type Instrumented struct {
	inner  Transport
	report ReportFn

	mu         sync.Mutex
	perPeer    map[playerid.ID]*PeerStats
	broadcasts PeerStats
}

// Instrument wraps inner, reporting stats updates through report (which
// may be nil to disable reporting).
func Instrument(inner Transport, report ReportFn) *Instrumented {
	return &Instrumented{
		inner:   inner,
		report:  report,
		perPeer: make(map[playerid.ID]*PeerStats),
	}
}

func (t *Instrumented) SendToHost(payload []byte) error {
	err := t.inner.SendToHost(payload)
	t.recordSend(playerid.NewHostID(), len(payload))
	return err
}

func (t *Instrumented) SendToGuest(id playerid.ID, payload []byte) error {
	err := t.inner.SendToGuest(id, payload)
	t.recordSend(id, len(payload))
	return err
}

func (t *Instrumented) BroadcastToAllGuests(payload []byte) error {
	err := t.inner.BroadcastToAllGuests(payload)
	t.mu.Lock()
	t.broadcasts.MessagesSent++
	t.broadcasts.BytesSent += int64(len(payload))
	t.broadcasts.LastActivity = time.Now()
	t.mu.Unlock()
	return err
}

func (t *Instrumented) Poll() []Received {
	received := t.inner.Poll()
	for _, r := range received {
		t.recordReceive(r.From, len(r.Bytes))
	}
	return received
}

func (t *Instrumented) recordSend(id playerid.ID, n int) {
	t.mu.Lock()
	s := t.statsForLocked(id)
	s.BytesSent += int64(n)
	s.MessagesSent++
	s.LastActivity = time.Now()
	snapshot := *s
	t.mu.Unlock()
	if t.report != nil {
		t.report(id, snapshot)
	}
}

func (t *Instrumented) recordReceive(id playerid.ID, n int) {
	t.mu.Lock()
	s := t.statsForLocked(id)
	s.BytesReceived += int64(n)
	s.MessagesReceived++
	s.LastActivity = time.Now()
	snapshot := *s
	t.mu.Unlock()
	if t.report != nil {
		t.report(id, snapshot)
	}
}

func (t *Instrumented) statsForLocked(id playerid.ID) *PeerStats {
	s, ok := t.perPeer[id]
	if !ok {
		s = &PeerStats{}
		t.perPeer[id] = s
	}
	return s
}

// Snapshot returns a defensive copy of every tracked peer's stats, plus
// the aggregate broadcast counters.
func (t *Instrumented) Snapshot() (perPeer map[playerid.ID]PeerStats, broadcasts PeerStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	perPeer = make(map[playerid.ID]PeerStats, len(t.perPeer))
	for id, s := range t.perPeer {
		perPeer[id] = *s
	}
	return perPeer, t.broadcasts
}
