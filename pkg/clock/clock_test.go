package clock

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestStepTimeAndNeededAccumulatesFractionalTime(t *testing.T) {
	simTime, needed := StepTimeAndNeeded(0, 0.4, 10, 0)
	assert.Equal(t, needed, 4)
	// A second 0.4s step brings accumulated time to 0.8s; expected = ceil(8) = 8,
	// and 4 inputs are already collected, so 4 more are needed.
	_, needed = StepTimeAndNeeded(simTime, 0.4, 10, 4)
	assert.Equal(t, needed, 4)
}

func TestStepTimeAndNeededNeverGoesNegative(t *testing.T) {
	_, needed := StepTimeAndNeeded(0, 0.01, 10, 100)
	assert.Equal(t, needed, 0)
}

func TestNumInputsNeededNoRTTYieldsOne(t *testing.T) {
	assert.Equal(t, NumInputsNeeded(false, 0, 0, 2, 0, DefaultMaxCatchupInputs), 1)
}

func TestGuestPacingConverges(t *testing.T) {
	// S5: ticks_per_sec=2, RTT=1000ms, host_tick=10, own_len=0 -> 5 (clamped).
	assert.Equal(t, NumInputsNeeded(true, 1000, 10, 2, 0, DefaultMaxCatchupInputs), 5)
	// own_len=8 -> 3
	assert.Equal(t, NumInputsNeeded(true, 1000, 10, 2, 8, DefaultMaxCatchupInputs), 3)
	// own_len=11 -> expected tick = 10+1=11, ticks_behind=0 -> 1
	assert.Equal(t, NumInputsNeeded(true, 1000, 10, 2, 11, DefaultMaxCatchupInputs), 1)
}

func TestNumInputsNeededAheadOfHostStalls(t *testing.T) {
	assert.Equal(t, NumInputsNeeded(true, 0, 10, 2, 20, DefaultMaxCatchupInputs), 0, "guest far ahead should stall")
}
