package wire

import (
	"errors"
	"math"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/fenwick-games/lockstep/pkg/obs"
	"github.com/fenwick-games/lockstep/pkg/playerid"
)

func roundTrip[B any](t *testing.T, codec Codec[B], msg Message[B]) Message[B] {
	t.Helper()
	encoded := Encode(codec, msg)
	decoded, err := Decode(codec, encoded)
	assert.NilError(t, err)
	return decoded
}

func TestEmptyRoundTrip(t *testing.T) {
	got := roundTrip[uint8](t, ByteCodec{}, NewEmpty[uint8]())
	assert.Equal(t, got.Tag, TagEmpty)
}

func TestDecodeZeroBytesIsEmpty(t *testing.T) {
	msg, err := Decode[uint8](ByteCodec{}, nil)
	assert.NilError(t, err)
	assert.Equal(t, msg.Tag, TagEmpty)
}

func TestInvalidRoundTrip(t *testing.T) {
	got := roundTrip[uint8](t, ByteCodec{}, NewInvalid[uint8]())
	assert.Equal(t, got.Tag, TagInvalid)
}

func TestGuestAckFinalizationRoundTrip(t *testing.T) {
	ack := obs.NewFromObserved([]uint32{3, 7, 12})
	got := roundTrip(t, ByteCodec{}, NewGuestAckFinalization[uint8](ack))
	assert.Equal(t, got.Tag, TagGuestAckFinalization)
	for i := 0; i < 3; i++ {
		id := playerid.FromUint8(uint8(i))
		assert.Equal(t, got.Ack.Get(id), ack.Get(id))
	}
}

func TestHostFinalizedSliceRoundTrip(t *testing.T) {
	msg := NewHostFinalizedSlice[uint8](playerid.FromUint8(2), 42, 10, []uint8{1, 2, 3})
	got := roundTrip(t, ByteCodec{}, msg)
	assert.Equal(t, got.Tag, TagHostFinalizedSlice)
	assert.Equal(t, got.HostFinalized.Player, playerid.FromUint8(2))
	assert.Equal(t, got.HostFinalized.HostTick, int32(42))
	assert.Equal(t, got.HostFinalized.Slice.Start, uint32(10))
	assert.DeepEqual(t, got.HostFinalized.Slice.Inputs, []uint8{1, 2, 3})
}

func TestHostFinalizedSliceNegativeHostTickRoundTrip(t *testing.T) {
	// host_tick can be negative (signed sentinel) during pre-sim countdown.
	msg := NewHostFinalizedSlice[uint8](playerid.FromUint8(0), math.MinInt32, 0, nil)
	got := roundTrip(t, ByteCodec{}, msg)
	assert.Equal(t, got.HostFinalized.HostTick, int32(math.MinInt32))
}

func TestPeerInputsRoundTrip(t *testing.T) {
	msg := NewPeerInputs[uint8](5, []uint8{9, 8, 7})
	got := roundTrip(t, ByteCodec{}, msg)
	assert.Equal(t, got.Tag, TagPeerInputs)
	assert.Equal(t, got.PeerInputs.Start, uint32(5))
	assert.DeepEqual(t, got.PeerInputs.Inputs, []uint8{9, 8, 7})
}

func TestPreSimSyncRoundTrip(t *testing.T) {
	msg := NewPreSimSync[uint8](60, []uint32{0, 1, 2})
	got := roundTrip(t, ByteCodec{}, msg)
	assert.Equal(t, got.Tag, TagPreSimSync)
	assert.Equal(t, got.PreSimSync.HostTickCountdown, uint8(60))
	assert.DeepEqual(t, got.PreSimSync.Peers, []uint32{0, 1, 2})
}

func TestGuestPingRoundTrip(t *testing.T) {
	got := roundTrip(t, ByteCodec{}, NewGuestPing[uint8](123456))
	assert.Equal(t, got.Tag, TagGuestPing)
	assert.Equal(t, got.PingID, uint32(123456))
}

func TestHostPongRoundTrip(t *testing.T) {
	got := roundTrip(t, ByteCodec{}, NewHostPong[uint8](7))
	assert.Equal(t, got.Tag, TagHostPong)
	assert.Equal(t, got.PingID, uint32(7))
}

func TestGuestPongPongRoundTrip(t *testing.T) {
	got := roundTrip(t, ByteCodec{}, NewGuestPongPong[uint8](7))
	assert.Equal(t, got.Tag, TagGuestPongPong)
	assert.Equal(t, got.PingID, uint32(7))
}

func TestDecodeUnknownTag(t *testing.T) {
	_, err := Decode[uint8](ByteCodec{}, []byte{99})
	assert.Assert(t, err != nil, "expected a DecodeError for an unknown tag")
	var decodeErr *DecodeError
	assert.Assert(t, errors.As(err, &decodeErr))
}

func TestVarintLengthPrefixNeverOverAllocates(t *testing.T) {
	// The length prefix for an n-element slice must take the minimal
	// varint encoding of n, never more.
	inputs := make([]uint8, 300)
	msg := NewPeerInputs[uint8](0, inputs)
	encoded := Encode[uint8](ByteCodec{}, msg)
	// tag(1) + start-varint(1) + length-varint(2, since 300 needs 2 bytes) + 300 payload bytes
	want := 1 + 1 + 2 + 300
	assert.Equal(t, len(encoded), want)
}
