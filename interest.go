package reactor

import (
	"strconv"
	"strings"
)

// Interest is a set of conditions an event may be watching for, or the
// condition that triggered a callback.
//
// The values match the classic libevent flags.
type Interest uint32

const (
	// Timeout indicates expiry of the event's deadline.
	Timeout Interest = 0x01
	// Read indicates the file descriptor is readable.
	Read Interest = 0x02
	// Write indicates the file descriptor is writable.
	Write Interest = 0x04
	// Signal indicates delivery of the event's signal.
	Signal Interest = 0x08
)

const ioInterest = Read | Write

// String returns the set members joined with "|", e.g. "READ|WRITE".
func (x Interest) String() string {
	if x == 0 {
		return "NONE"
	}
	var parts []string
	if x&Timeout != 0 {
		parts = append(parts, "TIMEOUT")
	}
	if x&Read != 0 {
		parts = append(parts, "READ")
	}
	if x&Write != 0 {
		parts = append(parts, "WRITE")
	}
	if x&Signal != 0 {
		parts = append(parts, "SIGNAL")
	}
	if rest := x &^ (Timeout | Read | Write | Signal); rest != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(uint64(rest), 16))
	}
	return strings.Join(parts, "|")
}
