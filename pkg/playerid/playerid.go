// Package playerid defines the opaque player identifier used throughout
// the lockstep engine. Player 0 is always the host; all others are
// guests, and a guest's position in guest-only arrays is id-1.
package playerid

import "fmt"

// ID identifies a player in the session. The zero value is the host.
type ID struct {
	n uint8
}

// HostID is the single canonical host identifier.
var HostID = ID{n: 0}

// NewHostID returns the host's identifier.
func NewHostID() ID {
	return HostID
}

// NewGuestID returns the identifier for a guest. It panics if n is 0,
// since that identifier belongs to the host by convention.
func NewGuestID(n uint8) ID {
	if n == 0 {
		panic("playerid: guest id 0 is reserved for the host")
	}
	return ID{n: n}
}

// FromUint8 constructs an ID from a raw player number without asserting
// host/guest-ness. Used when decoding wire messages, where the tag byte
// alone doesn't tell us which role the id belongs to.
func FromUint8(n uint8) ID {
	return ID{n: n}
}

// FromGuestIndex builds the ID for the guest at the given zero-based
// index into a guest-only array (so FromGuestIndex(0) is player 1).
func FromGuestIndex(index int) ID {
	if index < 0 || index > 254 {
		panic(fmt.Sprintf("playerid: guest index %d out of range", index))
	}
	return ID{n: uint8(index + 1)}
}

// IsHost reports whether this id is the host.
func (id ID) IsHost() bool {
	return id.n == 0
}

// IsGuest reports whether this id is a guest.
func (id ID) IsGuest() bool {
	return id.n != 0
}

// Uint8 returns the raw player number.
func (id ID) Uint8() uint8 {
	return id.n
}

// Int returns the raw player number as an int, convenient for slice
// indexing.
func (id ID) Int() int {
	return int(id.n)
}

// GuestIndex returns the zero-based index into a guest-only array, and
// false if this id is the host.
func (id ID) GuestIndex() (int, bool) {
	if id.IsHost() {
		return 0, false
	}
	return int(id.n) - 1, true
}

// String implements fmt.Stringer.
func (id ID) String() string {
	if id.IsHost() {
		return "host"
	}
	return fmt.Sprintf("guest(%d)", id.n)
}
