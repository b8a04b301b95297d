// Package wire implements the tagged, length-delimited binary encoding
// for every message exchanged between host and guest coordinators. Each
// message is one tag byte followed by a canonical, bit-stable body:
// integers are LEB128-style unsigned varints (via the standard
// library's encoding/binary Uvarint helpers) and sequences are
// length-prefixed.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/fenwick-games/lockstep/pkg/obs"
	"github.com/fenwick-games/lockstep/pkg/playerid"
)

// Tag identifies the message variant. It is always the first byte on
// the wire.
type Tag uint8

const (
	TagEmpty                Tag = 0
	TagInvalid              Tag = 1
	TagGuestAckFinalization Tag = 2
	TagHostFinalizedSlice   Tag = 3
	TagPeerInputs           Tag = 4
	TagPreSimSync           Tag = 5
	TagGuestPing            Tag = 6
	TagHostPong             Tag = 7
	TagGuestPongPong        Tag = 8
)

func (t Tag) String() string {
	switch t {
	case TagEmpty:
		return "Empty"
	case TagInvalid:
		return "Invalid"
	case TagGuestAckFinalization:
		return "GuestAckFinalization"
	case TagHostFinalizedSlice:
		return "HostFinalizedSlice"
	case TagPeerInputs:
		return "PeerInputs"
	case TagPreSimSync:
		return "PreSimSync"
	case TagGuestPing:
		return "GuestPing"
	case TagHostPong:
		return "HostPong"
	case TagGuestPongPong:
		return "GuestPongPong"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// DecodeError reports a malformed payload or an unrecognized tag. It is
// never fatal: the receiver is expected to discard the message and
// continue, per the protocol's self-healing re-advertisement model.
type DecodeError struct {
	Tag    Tag
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: decode error (tag=%s): %s", e.Tag, e.Reason)
}

// Codec converts a caller's input payload type to and from its
// fixed-size byte encoding. Implementations must always produce and
// consume exactly Size() bytes.
type Codec[B any] interface {
	Encode(v B) []byte
	Decode(b []byte) (B, error)
	Size() int
}

// InputSlice is a contiguous run of per-tick inputs starting at Start.
type InputSlice[B any] struct {
	Start  uint32
	Inputs []B
}

// HostFinalizedSliceBody is the body of a HostFinalizedSlice message.
type HostFinalizedSliceBody[B any] struct {
	Player   playerid.ID
	HostTick int32
	Slice    InputSlice[B]
}

// PreSimSyncBody is the body of a PreSimSync message.
type PreSimSyncBody struct {
	HostTickCountdown uint8
	Peers             []uint32
}

// Message is the tagged envelope. Exactly one of the payload fields is
// meaningful, selected by Tag; see the New* constructors.
type Message[B any] struct {
	Tag           Tag
	Ack           *obs.PeerwiseFinalized
	HostFinalized *HostFinalizedSliceBody[B]
	PeerInputs    *InputSlice[B]
	PreSimSync    *PreSimSyncBody
	PingID        uint32
}

func NewEmpty[B any]() Message[B] { return Message[B]{Tag: TagEmpty} }

func NewInvalid[B any]() Message[B] { return Message[B]{Tag: TagInvalid} }

func NewGuestAckFinalization[B any](ack *obs.PeerwiseFinalized) Message[B] {
	return Message[B]{Tag: TagGuestAckFinalization, Ack: ack}
}

func NewHostFinalizedSlice[B any](player playerid.ID, hostTick int32, start uint32, inputs []B) Message[B] {
	return Message[B]{
		Tag: TagHostFinalizedSlice,
		HostFinalized: &HostFinalizedSliceBody[B]{
			Player:   player,
			HostTick: hostTick,
			Slice:    InputSlice[B]{Start: start, Inputs: inputs},
		},
	}
}

func NewPeerInputs[B any](start uint32, inputs []B) Message[B] {
	return Message[B]{Tag: TagPeerInputs, PeerInputs: &InputSlice[B]{Start: start, Inputs: inputs}}
}

func NewPreSimSync[B any](countdown uint8, peers []uint32) Message[B] {
	return Message[B]{Tag: TagPreSimSync, PreSimSync: &PreSimSyncBody{HostTickCountdown: countdown, Peers: peers}}
}

func NewGuestPing[B any](pingID uint32) Message[B] {
	return Message[B]{Tag: TagGuestPing, PingID: pingID}
}

func NewHostPong[B any](pingID uint32) Message[B] {
	return Message[B]{Tag: TagHostPong, PingID: pingID}
}

func NewGuestPongPong[B any](pingID uint32) Message[B] {
	return Message[B]{Tag: TagGuestPongPong, PingID: pingID}
}

// Encode serializes msg to its canonical wire form. Decoding zero bytes
// always yields Empty, so encoding Empty intentionally produces a
// single tag byte with no body (still decodable as Empty).
func Encode[B any](codec Codec[B], msg Message[B]) []byte {
	buf := []byte{byte(msg.Tag)}
	switch msg.Tag {
	case TagEmpty, TagInvalid:
	case TagGuestAckFinalization:
		buf = appendAck(buf, msg.Ack)
	case TagHostFinalizedSlice:
		buf = binary.AppendUvarint(buf, uint64(msg.HostFinalized.Player.Uint8()))
		buf = binary.AppendUvarint(buf, zigzagEncode(msg.HostFinalized.HostTick))
		buf = appendSlice(buf, codec, msg.HostFinalized.Slice)
	case TagPeerInputs:
		buf = appendSlice(buf, codec, *msg.PeerInputs)
	case TagPreSimSync:
		buf = append(buf, msg.PreSimSync.HostTickCountdown)
		buf = binary.AppendUvarint(buf, uint64(len(msg.PreSimSync.Peers)))
		for _, p := range msg.PreSimSync.Peers {
			buf = binary.AppendUvarint(buf, uint64(p))
		}
	case TagGuestPing, TagHostPong, TagGuestPongPong:
		buf = binary.AppendUvarint(buf, uint64(msg.PingID))
	}
	return buf
}

// Decode parses data into a Message. Zero bytes decodes to Empty. An
// unrecognized tag, or a body that runs out of bytes mid-parse, yields
// a *DecodeError.
func Decode[B any](codec Codec[B], data []byte) (Message[B], error) {
	if len(data) == 0 {
		return NewEmpty[B](), nil
	}
	tag := Tag(data[0])
	rest := data[1:]
	switch tag {
	case TagEmpty:
		return NewEmpty[B](), nil
	case TagInvalid:
		return NewInvalid[B](), nil
	case TagGuestAckFinalization:
		ack, err := decodeAck(rest)
		if err != nil {
			return Message[B]{}, &DecodeError{Tag: tag, Reason: err.Error()}
		}
		return NewGuestAckFinalization[B](ack), nil
	case TagHostFinalizedSlice:
		player, rest, err := readUvarint(rest)
		if err != nil {
			return Message[B]{}, &DecodeError{Tag: tag, Reason: "player id: " + err.Error()}
		}
		hostTickRaw, rest, err := readUvarint(rest)
		if err != nil {
			return Message[B]{}, &DecodeError{Tag: tag, Reason: "host tick: " + err.Error()}
		}
		slice, err := decodeSlice(codec, rest)
		if err != nil {
			return Message[B]{}, &DecodeError{Tag: tag, Reason: err.Error()}
		}
		return Message[B]{
			Tag: tag,
			HostFinalized: &HostFinalizedSliceBody[B]{
				Player:   playerid.FromUint8(uint8(player)),
				HostTick: zigzagDecode(hostTickRaw),
				Slice:    slice,
			},
		}, nil
	case TagPeerInputs:
		slice, err := decodeSlice(codec, rest)
		if err != nil {
			return Message[B]{}, &DecodeError{Tag: tag, Reason: err.Error()}
		}
		return Message[B]{Tag: tag, PeerInputs: &slice}, nil
	case TagPreSimSync:
		if len(rest) < 1 {
			return Message[B]{}, &DecodeError{Tag: tag, Reason: "missing countdown byte"}
		}
		countdown := rest[0]
		rest = rest[1:]
		count, rest, err := readUvarint(rest)
		if err != nil {
			return Message[B]{}, &DecodeError{Tag: tag, Reason: "peer count: " + err.Error()}
		}
		peers := make([]uint32, 0, count)
		for i := uint64(0); i < count; i++ {
			var p uint64
			p, rest, err = readUvarint(rest)
			if err != nil {
				return Message[B]{}, &DecodeError{Tag: tag, Reason: "peer entry: " + err.Error()}
			}
			peers = append(peers, uint32(p))
		}
		return Message[B]{Tag: tag, PreSimSync: &PreSimSyncBody{HostTickCountdown: countdown, Peers: peers}}, nil
	case TagGuestPing, TagHostPong, TagGuestPongPong:
		id, _, err := readUvarint(rest)
		if err != nil {
			return Message[B]{}, &DecodeError{Tag: tag, Reason: "ping id: " + err.Error()}
		}
		return Message[B]{Tag: tag, PingID: uint32(id)}, nil
	default:
		return Message[B]{}, &DecodeError{Tag: tag, Reason: "unknown tag"}
	}
}

func appendSlice[B any](buf []byte, codec Codec[B], slice InputSlice[B]) []byte {
	buf = binary.AppendUvarint(buf, uint64(slice.Start))
	buf = binary.AppendUvarint(buf, uint64(len(slice.Inputs)))
	for _, input := range slice.Inputs {
		buf = append(buf, codec.Encode(input)...)
	}
	return buf
}

func decodeSlice[B any](codec Codec[B], data []byte) (InputSlice[B], error) {
	start, data, err := readUvarint(data)
	if err != nil {
		return InputSlice[B]{}, fmt.Errorf("slice start: %w", err)
	}
	count, data, err := readUvarint(data)
	if err != nil {
		return InputSlice[B]{}, fmt.Errorf("slice length: %w", err)
	}
	size := codec.Size()
	inputs := make([]B, 0, count)
	for i := uint64(0); i < count; i++ {
		if len(data) < size {
			return InputSlice[B]{}, fmt.Errorf("slice entry %d: truncated", i)
		}
		v, err := codec.Decode(data[:size])
		if err != nil {
			return InputSlice[B]{}, fmt.Errorf("slice entry %d: %w", i, err)
		}
		inputs = append(inputs, v)
		data = data[size:]
	}
	return InputSlice[B]{Start: uint32(start), Inputs: inputs}, nil
}

func appendAck(buf []byte, ack *obs.PeerwiseFinalized) []byte {
	entries := ack.Entries()
	buf = binary.AppendUvarint(buf, uint64(len(entries)))
	for _, e := range entries {
		buf = binary.AppendUvarint(buf, uint64(e.Player.Uint8()))
		buf = binary.AppendUvarint(buf, uint64(e.Tick))
	}
	return buf
}

func decodeAck(data []byte) (*obs.PeerwiseFinalized, error) {
	count, data, err := readUvarint(data)
	if err != nil {
		return nil, fmt.Errorf("ack count: %w", err)
	}
	ack := obs.NewFromObserved(nil)
	for i := uint64(0); i < count; i++ {
		var player, tick uint64
		player, data, err = readUvarint(data)
		if err != nil {
			return nil, fmt.Errorf("ack entry %d player: %w", i, err)
		}
		tick, data, err = readUvarint(data)
		if err != nil {
			return nil, fmt.Errorf("ack entry %d tick: %w", i, err)
		}
		ack.Set(playerid.FromUint8(uint8(player)), uint32(tick))
	}
	return ack, nil
}

func readUvarint(data []byte) (uint64, []byte, error) {
	v, n := binary.Uvarint(data)
	if n <= 0 {
		return 0, nil, fmt.Errorf("malformed varint")
	}
	return v, data[n:], nil
}

// zigzagEncode/zigzagDecode map a signed host_tick (which counts down
// from a negative sentinel before the simulation starts) onto the
// unsigned varint space without sign-extension blowup.
func zigzagEncode(v int32) uint64 {
	return uint64(uint32((v << 1) ^ (v >> 31)))
}

func zigzagDecode(v uint64) int32 {
	u := uint32(v)
	return int32((u >> 1) ^ -(u & 1))
}

// ByteCodec is a Codec[uint8] that encodes an input as a single raw
// byte. It's the smallest input representation that satisfies
// comparable, suitable for demos and tests that don't need a richer
// input struct.
type ByteCodec struct{}

func (ByteCodec) Encode(v uint8) []byte { return []byte{v} }

func (ByteCodec) Decode(b []byte) (uint8, error) {
	if len(b) != 1 {
		return 0, fmt.Errorf("wire: ByteCodec.Decode expects 1 byte, got %d", len(b))
	}
	return b[0], nil
}

func (ByteCodec) Size() int { return 1 }
