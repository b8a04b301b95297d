/**
 * Copyright (c) 2022, Xerra Earth Observation Institute.
 * Copyright (c) 2025, Simeon Miteff.
 *
 * See LICENSE.TXT in the root directory of this source tree.
 */

// Package metrics exposes host and guest coordinator state to
// Prometheus. Struct fields tagged `metric:"..."` on host.Stats and
// guest.Stats are the source of truth cmd/metricsgen reads to (re)emit
// generated_collectors.go's *prometheus.Desc vars; Collector here reads
// Stats snapshots and feeds them into those descriptors, playing the
// role the teacher's pkg/exporter.TCPInfoCollector plays for
// linux.TCPInfo (whose addMetrics method is itself generated from
// tcpi-tagged fields by cmd/prom-metrics-gen).
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fenwick-games/lockstep/pkg/guest"
	"github.com/fenwick-games/lockstep/pkg/host"
	"github.com/fenwick-games/lockstep/pkg/playerid"
)

// HostSource is whatever a host.Coordinator[B] satisfies regardless of
// its input type: a snapshot of its current Stats.
type HostSource interface {
	Stats() host.Stats
}

// GuestSource is the guest-side analogue of HostSource.
type GuestSource interface {
	Stats() guest.Stats
}

// Collector implements prometheus.Collector over one host and a set of
// tracked guests, following the Describe/Collect split the teacher's
// TCPInfoCollector uses for TCP connections.
type Collector struct {
	mu     sync.Mutex
	host   HostSource
	guests map[playerid.ID]GuestSource
}

// NewCollector returns a Collector reporting on host (which may be nil
// if this process runs no host coordinator) with no guests tracked yet.
func NewCollector(host HostSource) *Collector {
	return &Collector{
		host:   host,
		guests: make(map[playerid.ID]GuestSource),
	}
}

// AddGuest registers a guest coordinator to be scraped under the given
// id's label.
func (c *Collector) AddGuest(id playerid.ID, source GuestSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guests[id] = source
}

// RemoveGuest stops scraping the named guest, e.g. after it disconnects.
func (c *Collector) RemoveGuest(id playerid.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.guests, id)
}

func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- FinalizedCountDesc
	descs <- SnapshottableTickDesc
	descs <- ConnectedGuestsDesc
	descs <- CatchUpBroadcastsDesc
	descs <- HostTickDesc
	descs <- OwnFinalizedCountDesc
	descs <- RTTMillisDesc
}

func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.host != nil {
		s := c.host.Stats()
		metrics <- prometheus.MustNewConstMetric(FinalizedCountDesc, prometheus.GaugeValue, float64(s.FinalizedCount))
		metrics <- prometheus.MustNewConstMetric(SnapshottableTickDesc, prometheus.GaugeValue, float64(s.SnapshottableTick))
		metrics <- prometheus.MustNewConstMetric(ConnectedGuestsDesc, prometheus.GaugeValue, float64(s.ConnectedGuests))
		metrics <- prometheus.MustNewConstMetric(CatchUpBroadcastsDesc, prometheus.CounterValue, float64(s.CatchUpBroadcasts))
	}

	for id, source := range c.guests {
		s := source.Stats()
		label := id.String()
		metrics <- prometheus.MustNewConstMetric(HostTickDesc, prometheus.GaugeValue, float64(s.HostTick), label)
		metrics <- prometheus.MustNewConstMetric(OwnFinalizedCountDesc, prometheus.GaugeValue, float64(s.OwnFinalizedCount), label)
		metrics <- prometheus.MustNewConstMetric(RTTMillisDesc, prometheus.GaugeValue, s.RTTMillis, label)
	}
}
