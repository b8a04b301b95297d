package inputbuf

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestBasics(t *testing.T) {
	b := New[uint8]()
	assert.Equal(t, b.Len(), 0)
	assert.Equal(t, b.FinalizedCount(), 0)
	b.Append(1)
	b.Append(2)
	assert.Equal(t, b.Len(), 2)
	assert.Equal(t, b.Status(0), StatusNonFinal)
	assert.Equal(t, b.Status(1), StatusNonFinal)
	assert.Equal(t, b.Status(2), StatusNotReceived)
}

func TestHostAppendFinalized(t *testing.T) {
	b := New[uint8]()
	b.HostAppendFinalized(10)
	b.HostAppendFinalized(20)
	assert.Equal(t, b.FinalizedCount(), 2)
	assert.Assert(t, b.IsFinalized(0))
	assert.Assert(t, b.IsFinalized(1))
	assert.Assert(t, !b.IsFinalized(2))
	assert.DeepEqual(t, b.Slice(0, 2), []uint8{10, 20})
}

func TestGetOrPredict(t *testing.T) {
	b := New[uint8]()
	b.Append(7)
	b.Append(8)

	assert.Equal(t, b.GetOrPredict(0, 3), uint8(7))
	assert.Equal(t, b.GetOrPredict(1, 3), uint8(8))
	// Past the end but within the prediction window: LOCF.
	assert.Equal(t, b.GetOrPredict(2, 3), uint8(8), "predicted")
	assert.Equal(t, b.GetOrPredict(4, 3), uint8(8), "predicted")
	// Outside the window: default.
	assert.Equal(t, b.GetOrPredict(5, 3), uint8(0), "default")
}

func TestGetOrPredictEmptyBufferAlwaysDefault(t *testing.T) {
	b := New[uint8]()
	assert.Equal(t, b.GetOrPredict(0, 10), uint8(0), "empty buffer should always predict the default")
}

func TestReceiveFinalizedSliceContiguous(t *testing.T) {
	b := New[uint8]()
	b.ReceiveFinalizedSlice(0, []uint8{1, 2, 3})
	assert.Equal(t, b.FinalizedCount(), 3)
	assert.DeepEqual(t, b.Slice(0, 3), []uint8{1, 2, 3})
}

func TestReceiveFinalizedSliceRejectsGap(t *testing.T) {
	b := New[uint8]()
	// start=5 is beyond finalizedCount=0, so the whole slice must be
	// dropped rather than leaving a hole in the finalized prefix.
	b.ReceiveFinalizedSlice(5, []uint8{9, 9, 9})
	assert.Equal(t, b.FinalizedCount(), 0, "slice should be rejected")
}

func TestReceiveFinalizedSliceOverlapIsIdempotent(t *testing.T) {
	b := New[uint8]()
	b.ReceiveFinalizedSlice(0, []uint8{1, 2})
	// Re-delivery of an overlapping slice (simulating a retransmit)
	// must not move the finalized prefix backward or corrupt history.
	b.ReceiveFinalizedSlice(0, []uint8{1, 2, 3})
	assert.Equal(t, b.FinalizedCount(), 3)
	assert.DeepEqual(t, b.Slice(0, 3), []uint8{1, 2, 3})
}

func TestReceivePeerSliceWontOverwriteFinalized(t *testing.T) {
	b := New[uint8]()
	b.HostAppendFinalized(1)
	b.HostAppendFinalized(2)
	// Tentative data that overlaps the finalized prefix must not clobber
	// it; only the tail beyond the finalized prefix should land.
	b.ReceivePeerSlice(0, []uint8{99, 99, 3, 4})
	assert.DeepEqual(t, b.Slice(0, 2), []uint8{1, 2})
	assert.DeepEqual(t, b.Slice(2, 4), []uint8{3, 4})
}

func TestRxOutOfOrderFinalSlices(t *testing.T) {
	b := New[uint8]()
	// Arrives before tick 0 has ever been seen: start(3) > finalizedCount(0),
	// must be dropped entirely.
	b.ReceiveFinalizedSlice(3, []uint8{40, 50})
	assert.Equal(t, b.FinalizedCount(), 0, "out-of-order slice should be dropped")
	// Now deliver the covering prefix slice; it should finalize through
	// tick 2, and the earlier (still-buffered by the sender) slice would
	// be re-sent and accepted on a subsequent call.
	b.ReceiveFinalizedSlice(0, []uint8{10, 20, 30})
	assert.Equal(t, b.FinalizedCount(), 3)
	b.ReceiveFinalizedSlice(3, []uint8{40, 50})
	assert.Equal(t, b.FinalizedCount(), 5, "after the retried slice lands")
}

func TestHostFinalizeDefaultThruTick(t *testing.T) {
	b := New[uint8]()
	b.AppendFinalDefaultsThrough(2)
	assert.Equal(t, b.FinalizedCount(), 3)
	assert.DeepEqual(t, b.Slice(0, 3), []uint8{0, 0, 0})
}

func TestHostFinalizeDefaultThruTickWontOverwrite(t *testing.T) {
	b := New[uint8]()
	b.HostAppendFinalized(7)
	b.AppendFinalDefaultsThrough(2)
	// existing finalized entry preserved
	assert.DeepEqual(t, b.Slice(0, 3), []uint8{7, 0, 0})
}

func TestStatusClassificationIsStrict(t *testing.T) {
	b := New[uint8]()
	b.HostAppendFinalized(1)
	b.Append(2)
	assert.Equal(t, b.Status(0), StatusFinalized)
	assert.Equal(t, b.Status(1), StatusNonFinal)
	assert.Assert(t, b.IsFinalized(0), "tick 0 should be finalized")
	assert.Assert(t, !b.IsFinalized(1), "tick 1 is only non-final, IsFinalized must be strict <")
}
