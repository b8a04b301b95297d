// Package clock houses the wall-clock-to-tick pacing arithmetic shared
// by the host and guest coordinators: how many inputs to collect this
// step, and how the host's fixed-rate ticking accumulates fractional
// time. Both coordinators call into this package instead of duplicating
// the arithmetic, the way the teacher's own exporter package factors a
// single collector out from under several example commands rather than
// re-deriving TCP_INFO collection per caller.
package clock

import "math"

// DefaultMaxCatchupInputs bounds how many inputs a lagging guest will
// collect in a single step. The host's own pacing (StepTimeAndNeeded)
// is not clamped.
const DefaultMaxCatchupInputs = 5

// StepTimeAndNeeded advances the host's accumulated simulation time by
// delta seconds and returns how many additional inputs the host must
// collect to keep its own buffer caught up with ticksPerSec.
//
// It returns the new accumulated sim time alongside the count so the
// caller can store it back (the host owns no mutable state here).
func StepTimeAndNeeded(simTime float64, delta float64, ticksPerSec uint32, currentOwnLen int) (newSimTime float64, needed int) {
	newSimTime = simTime + delta
	expected := int(math.Ceil(newSimTime * float64(ticksPerSec)))
	if expected <= currentOwnLen {
		return newSimTime, 0
	}
	return newSimTime, expected - currentOwnLen
}

// NumInputsNeeded implements the guest pacing heuristic: given the RTT
// to the host (in milliseconds; hasRTT false if no sample has been
// observed yet), the guest's last-known host_tick, the local tick rate,
// and the guest's own collected-input count, return how many inputs to
// collect this step, clamped to [0, maxCatchup].
//
// Steady state yields 1 (one input per local tick); a guest lagging the
// host's expected tick by more than one tick catches up by up to
// maxCatchup; a guest running ahead of the host by more than one tick
// stalls (returns 0) to let the host catch up.
func NumInputsNeeded(hasRTT bool, rttMS float64, hostTick int32, ticksPerSec uint32, ownLen int, maxCatchup int) int {
	if !hasRTT {
		return 1
	}
	oneWayTicks := 0.5 * (rttMS / 1000.0) * float64(ticksPerSec)
	expectedHostTick := float64(hostTick) + oneWayTicks
	ticksBehind := expectedHostTick - float64(ownLen)

	switch {
	case math.Abs(ticksBehind) < 1.0:
		return 1
	case ticksBehind <= -1.0:
		return 0
	default:
		n := int(ticksBehind)
		if n > maxCatchup {
			return maxCatchup
		}
		return n
	}
}
