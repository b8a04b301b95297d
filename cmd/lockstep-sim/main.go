// Command lockstep-sim wires one host and N guests over an in-memory,
// optionally-lossy transport and drives ticks for -duration,
// logging protocol events with logrus and exposing coordinator metrics
// on /metrics, in the style of the teacher's cmd/get and
// cmd/exporter_example1/2.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/fenwick-games/lockstep/pkg/guest"
	"github.com/fenwick-games/lockstep/pkg/host"
	"github.com/fenwick-games/lockstep/pkg/metrics"
	"github.com/fenwick-games/lockstep/pkg/playerid"
	"github.com/fenwick-games/lockstep/pkg/transport"
	"github.com/fenwick-games/lockstep/pkg/wire"
)

func main() {
	numGuests := flag.Int("guests", 2, "number of guest players")
	ticksPerSec := flag.Uint("tick-rate", 20, "ticks per second")
	lossProbability := flag.Float64("loss", 0.0, "simulated packet loss probability [0,1)")
	duration := flag.Duration("duration", 5*time.Second, "how long to run the simulation")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve /metrics on")
	flag.Parse()

	logger := logrus.StandardLogger()

	registry := prometheus.NewRegistry()
	go func() {
		http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil && err != http.ErrServerClosed {
			logger.Warnf("metrics server stopped: %v", err)
		}
	}()

	net := transport.NewNetwork(*numGuests, transport.Config{LossProbability: *lossProbability})

	numPlayers := *numGuests + 1
	hostCoord := host.New[uint8](host.Config{
		NumPlayers:          numPlayers,
		TicksPerSec:         uint32(*ticksPerSec),
		MaxPredict:          int(*ticksPerSec),
		MaxGuestTicksBehind: 5,
		Logger:              logger.WithField("role", "host"),
	})
	hostTransport := transport.Instrument(net.Join(playerid.NewHostID()), nil)

	collector := metrics.NewCollector(hostCoord)
	if err := registry.Register(collector); err != nil {
		logger.Fatalf("register metrics collector: %v", err)
	}

	guests := make([]*guest.Coordinator[uint8], *numGuests)
	guestTransports := make([]*transport.Instrumented, *numGuests)
	for i := 0; i < *numGuests; i++ {
		id := playerid.FromGuestIndex(i)
		guests[i] = guest.New[uint8](guest.Config{
			NumPlayers:   numPlayers,
			OwnID:        id,
			TicksPerSec:  uint32(*ticksPerSec),
			MaxPredict:   int(*ticksPerSec),
			PingInterval: time.Second,
			Logger:       logger.WithFields(logrus.Fields{"role": "guest", "guest": id}),
		})
		guestTransports[i] = transport.Instrument(net.Join(id), nil)
		collector.AddGuest(id, guests[i])
	}

	codec := wire.ByteCodec{}
	tickInterval := time.Second / time.Duration(*ticksPerSec)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	lastPingAt := make([]time.Time, *numGuests)
	deadline := time.Now().Add(*duration)
	for now := range ticker.C {
		if now.After(deadline) {
			break
		}
		runTick(hostCoord, hostTransport, guests, guestTransports, codec, logger, tickInterval.Seconds(), lastPingAt, now)
	}

	fmt.Fprintf(os.Stderr, "simulation complete: host finalized %d ticks\n", hostCoord.Buffers().FinalizedCount(playerid.NewHostID()))
}

func runTick(
	hostCoord *host.Coordinator[uint8],
	hostTransport *transport.Instrumented,
	guests []*guest.Coordinator[uint8],
	guestTransports []*transport.Instrumented,
	codec wire.Codec[uint8],
	logger *logrus.Logger,
	deltaSeconds float64,
	lastPingAt []time.Time,
	now time.Time,
) {
	hostCoord.AddHostInputToFill(0, deltaSeconds)

	for _, r := range hostTransport.Poll() {
		msg, err := wire.Decode(codec, r.Bytes)
		if err != nil {
			logger.WithField("from", r.From).Warnf("host: decode error: %v", err)
			continue
		}
		switch msg.Tag {
		case wire.TagPeerInputs:
			hostCoord.RxGuestInputSlice(r.From, msg)
		case wire.TagGuestAckFinalization:
			hostCoord.RxGuestAck(r.From, msg)
		case wire.TagGuestPing:
			pong := hostCoord.RxGuestPingAndReply(r.From, msg, time.Now())
			_ = hostTransport.SendToGuest(r.From, wire.Encode(codec, pong))
		case wire.TagGuestPongPong:
			if _, err := hostCoord.RxGuestPongPong(r.From, msg, time.Now()); err != nil {
				logger.WithField("from", r.From).Warnf("host: %v", err)
			}
		}
	}

	for i, g := range guests {
		id := playerid.FromGuestIndex(i)
		needed := g.NumInputsNeeded()
		for n := 0; n < needed; n++ {
			g.AddOwnInput(0)
		}

		gt := guestTransports[i]
		_ = gt.SendToHost(wire.Encode(codec, g.OwnInputSliceMsg()))
		_ = gt.SendToHost(wire.Encode(codec, g.AckMsg()))

		if now.Sub(lastPingAt[i]) >= g.PingInterval() {
			lastPingAt[i] = now
			_ = gt.SendToHost(wire.Encode(codec, g.PingMsg(now)))
		}

		// Push every player's latest finalized inputs, then top up any
		// gap past the catch-up horizon.
		for _, playerID := range hostCoord.Buffers().PlayerIDs() {
			broadcast := hostCoord.BroadcastFinalizedSliceMsg(playerID)
			if len(broadcast.HostFinalized.Slice.Inputs) > 0 {
				_ = hostTransport.SendToGuest(id, wire.Encode(codec, broadcast))
			}
		}
		if catchUp := hostCoord.CatchUpMsg(id); catchUp.Tag != wire.TagEmpty {
			_ = hostTransport.SendToGuest(id, wire.Encode(codec, catchUp))
		}

		for _, r := range gt.Poll() {
			msg, err := wire.Decode(codec, r.Bytes)
			if err != nil {
				logger.WithField("guest", id).Warnf("guest: decode error: %v", err)
				continue
			}
			switch msg.Tag {
			case wire.TagHostFinalizedSlice:
				g.RxHostFinalizedSlice(msg)
			case wire.TagPreSimSync:
				g.RxPreSimSync(msg)
			case wire.TagHostPong:
				reply := g.RxHostPongAndReply(msg, time.Now())
				_ = gt.SendToHost(wire.Encode(codec, reply))
			}
		}
	}
}
