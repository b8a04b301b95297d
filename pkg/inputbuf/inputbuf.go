// Package inputbuf implements the per-player input buffer: an ordered,
// append-only sequence of inputs with a monotonically advancing
// "finalized" prefix and predictive (last-observation-carried-forward)
// reads past the end of the buffer.
//
// The buffer is generic over the concrete input payload type, which must
// only be comparable; callers decide what a "default" input looks like
// by relying on B's zero value, matching the original source's
// `SimInput::Bytes: Default + Copy + Eq`.
package inputbuf

// Status classifies a tick relative to a buffer's finalized prefix.
type Status int

const (
	// StatusFinalized means the tick is authoritative and immutable.
	StatusFinalized Status = iota
	// StatusNonFinal means the tick has been received but may still
	// change.
	StatusNonFinal
	// StatusNotReceived means nothing has been stored for the tick yet.
	StatusNotReceived
)

func (s Status) String() string {
	switch s {
	case StatusFinalized:
		return "finalized"
	case StatusNonFinal:
		return "non-final"
	case StatusNotReceived:
		return "not-received"
	default:
		return "unknown"
	}
}

// Buffer is the ordered input sequence for one player. The zero value is
// ready to use.
type Buffer[B comparable] struct {
	inputs         []B
	finalizedCount int
}

// New returns an empty buffer.
func New[B comparable]() *Buffer[B] {
	return &Buffer[B]{}
}

// Len returns the number of inputs stored, finalized or not.
func (b *Buffer[B]) Len() int {
	return len(b.inputs)
}

// FinalizedCount returns the number of leading entries that are
// authoritative.
func (b *Buffer[B]) FinalizedCount() int {
	return b.finalizedCount
}

// Append unconditionally appends a tentative input. finalizedCount is
// unchanged.
func (b *Buffer[B]) Append(input B) {
	b.inputs = append(b.inputs, input)
}

// HostAppendFinalized appends one input and advances the finalized
// prefix by one. Only the host, which finalizes in strict order, calls
// this directly; it is equivalent to finalizing the very next tick, so
// it can never leave a gap.
func (b *Buffer[B]) HostAppendFinalized(input B) {
	b.setNextFinal(b.finalizedCount, input)
}

// setNextFinal is the single place finalizedCount advances. It is a
// no-op unless index is exactly the next tick to finalize, which keeps
// the finalized prefix contiguous no matter which caller invokes it or
// in what order slices arrive.
func (b *Buffer[B]) setNextFinal(index int, input B) {
	if index != b.finalizedCount {
		return
	}
	b.finalizedCount++
	switch {
	case index == len(b.inputs):
		b.inputs = append(b.inputs, input)
	case index < len(b.inputs):
		b.inputs[index] = input
	default:
		panic("inputbuf: attempted to finalize an input that doesn't exist")
	}
}

// AppendFinalDefaultsThrough synthesizes default-valued finalized inputs
// until finalizedCount == target+1. It never overwrites an existing
// finalized entry. Used by the host to fast-forward a disconnected or
// lagging guest.
func (b *Buffer[B]) AppendFinalDefaultsThrough(target int) {
	var zero B
	for t := b.finalizedCount; t <= target; t++ {
		b.setNextFinal(t, zero)
	}
}

// ReceivePeerSlice stores tentative (non-final) values starting at
// start. Writes that would land at or before the finalized prefix are
// silently dropped; out-of-order or overlapping tentative data is
// otherwise accepted and simply overwrites earlier tentative values.
func (b *Buffer[B]) ReceivePeerSlice(start int, inputs []B) {
	for offset, input := range inputs {
		p := start + offset
		if p < b.finalizedCount {
			continue
		}
		if p < len(b.inputs) {
			b.inputs[p] = input
		} else {
			b.inputs = append(b.inputs, input)
		}
	}
}

// ReceiveFinalizedSlice extends the finalized prefix contiguously. If
// start is beyond the current finalized prefix, the whole slice is
// dropped since accepting it would leave a gap; the sender is expected
// to re-broadcast a covering slice later (the protocol is self-healing).
func (b *Buffer[B]) ReceiveFinalizedSlice(start int, inputs []B) {
	if start > b.finalizedCount {
		return
	}
	for offset, input := range inputs {
		b.setNextFinal(start+offset, input)
	}
}

// IsFinalized reports whether tick is within the finalized prefix.
func (b *Buffer[B]) IsFinalized(tick int) bool {
	return tick < b.finalizedCount
}

// Status classifies tick n relative to the buffer's contents.
func (b *Buffer[B]) Status(n int) Status {
	switch {
	case n < b.finalizedCount:
		return StatusFinalized
	case n < len(b.inputs):
		return StatusNonFinal
	default:
		return StatusNotReceived
	}
}

// Slice returns a copy of the entries in [start, end). Callers must
// ensure start <= end <= Len().
func (b *Buffer[B]) Slice(start, end int) []B {
	out := make([]B, end-start)
	copy(out, b.inputs[start:end])
	return out
}

// SliceFrom returns a copy of the entries in [start, Len()).
func (b *Buffer[B]) SliceFrom(start int) []B {
	return b.Slice(start, len(b.inputs))
}

// GetOrPredict returns the input at tick if it has been received; if the
// buffer is non-empty and tick is within maxPredict ticks past the end,
// it returns the last observed input (last-observation-carried-forward);
// otherwise it returns the zero value.
func (b *Buffer[B]) GetOrPredict(tick, maxPredict int) B {
	switch {
	case tick < len(b.inputs):
		return b.inputs[tick]
	case len(b.inputs) > 0 && tick < len(b.inputs)+maxPredict:
		return b.inputs[len(b.inputs)-1]
	default:
		var zero B
		return zero
	}
}
