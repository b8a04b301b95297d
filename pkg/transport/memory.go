package transport

import (
	"math/rand"
	"sync"

	"github.com/fenwick-games/lockstep/pkg/playerid"
)

// Config tunes a Network's loss behavior.
type Config struct {
	// LossProbability is the chance, in [0, 1), that any single send is
	// dropped silently. Zero means perfectly reliable delivery.
	LossProbability float64
}

// Network is a shared in-memory hub joined by one MemoryTransport per
// participant. It exists only for demos and tests; a real deployment
// sits its own Transport on top of UDP or a relay.
type Network struct {
	mu       sync.Mutex
	rng      *rand.Rand
	cfg      Config
	guestIDs []playerid.ID
	queues   map[playerid.ID][]Received
}

// NewNetwork builds a Network for a fixed guest roster of numGuests
// guests (ids 1..numGuests) plus the host (id 0).
func NewNetwork(numGuests int, cfg Config) *Network {
	guestIDs := make([]playerid.ID, numGuests)
	for i := range guestIDs {
		guestIDs[i] = playerid.FromGuestIndex(i)
	}
	n := &Network{
		rng:      rand.New(rand.NewSource(rand.Int63())),
		cfg:      cfg,
		guestIDs: guestIDs,
		queues:   make(map[playerid.ID][]Received),
	}
	n.queues[playerid.NewHostID()] = nil
	for _, id := range guestIDs {
		n.queues[id] = nil
	}
	return n
}

// Join returns a Transport through which self can talk to the rest of
// the network. self must already be a member of the roster passed to
// NewNetwork (the host, or one of its guests).
func (n *Network) Join(self playerid.ID) *MemoryTransport {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.queues[self]; !ok {
		panic("transport: " + self.String() + " is not a member of this network")
	}
	return &MemoryTransport{net: n, self: self}
}

func (n *Network) deliver(from, to playerid.ID, payload []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cfg.LossProbability > 0 && n.rng.Float64() < n.cfg.LossProbability {
		return nil
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	n.queues[to] = append(n.queues[to], Received{From: from, Bytes: cp})
	return nil
}

func (n *Network) drain(self playerid.ID) []Received {
	n.mu.Lock()
	defer n.mu.Unlock()
	queued := n.queues[self]
	n.queues[self] = nil
	return queued
}

// MemoryTransport is a Transport backed by a shared Network. It never
// returns an error: the only failure mode it models is silent loss.
type MemoryTransport struct {
	net  *Network
	self playerid.ID
}

func (m *MemoryTransport) SendToHost(payload []byte) error {
	return m.net.deliver(m.self, playerid.NewHostID(), payload)
}

func (m *MemoryTransport) SendToGuest(id playerid.ID, payload []byte) error {
	return m.net.deliver(m.self, id, payload)
}

func (m *MemoryTransport) BroadcastToAllGuests(payload []byte) error {
	for _, id := range m.net.guestIDs {
		if err := m.net.deliver(m.self, id, payload); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryTransport) Poll() []Received {
	return m.net.drain(m.self)
}
