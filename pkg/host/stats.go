package host

import "github.com/fenwick-games/lockstep/pkg/playerid"

// Stats is a point-in-time snapshot of a host coordinator, tagged for
// cmd/metricsgen the way the teacher's linux.TCPInfo tags fields for
// cmd/prom-metrics-gen.
type Stats struct {
	FinalizedCount    int    `metric:"name=lockstep_host_finalized_count,prom_type=gauge,prom_help=number of ticks finalized in the host's own input buffer"`
	SnapshottableTick int    `metric:"name=lockstep_snapshottable_tick,prom_type=gauge,prom_help=largest tick every player's buffer has been finalized through"`
	ConnectedGuests   int    `metric:"name=lockstep_connected_guests,prom_type=gauge,prom_help=number of guests not marked disconnected"`
	CatchUpBroadcasts uint64 `metric:"name=lockstep_catchup_broadcasts_total,prom_type=counter,prom_help=catch-up broadcasts sent to lagging or disconnected guests"`
}

// Stats returns a snapshot of this coordinator's current metrics.
func (h *Coordinator[B]) Stats() Stats {
	numGuests := h.buffers.NumPlayers() - 1
	if numGuests < 0 {
		numGuests = 0
	}
	connected := numGuests - len(h.disconnected)
	return Stats{
		FinalizedCount:    h.buffers.FinalizedCount(playerid.NewHostID()),
		SnapshottableTick: h.buffers.SnapshottableTick(),
		ConnectedGuests:   connected,
		CatchUpBroadcasts: h.catchUpBroadcasts,
	}
}
