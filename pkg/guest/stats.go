package guest

// Stats is a point-in-time snapshot of a guest coordinator, tagged for
// cmd/metricsgen the way the teacher's linux.TCPInfo tags fields for
// cmd/prom-metrics-gen.
type Stats struct {
	HostTick          int32   `metric:"name=lockstep_guest_host_tick,prom_type=gauge,prom_help=last host tick observed by this guest"`
	OwnFinalizedCount int     `metric:"name=lockstep_guest_own_finalized_count,prom_type=gauge,prom_help=number of the guest's own ticks finalized by the host"`
	RTTMillis         float64 `metric:"name=lockstep_guest_rtt_milliseconds,prom_type=gauge,prom_help=smoothed round trip time to the host in milliseconds"`
}

// Stats returns a snapshot of this coordinator's current metrics. RTT
// reads 0 until the first ping/pong round trip completes.
func (c *Coordinator[B]) Stats() Stats {
	rtt := 0.0
	if c.haveRTT {
		rtt = c.rtt.Value()
	}
	return Stats{
		HostTick:          c.hostTick,
		OwnFinalizedCount: c.buffers.FinalizedCount(c.ownID),
		RTTMillis:         rtt,
	}
}
