// Package callpass derives APRS-IS passcodes from callsigns.
//
// The algorithm is the well-known APRS-IS hash: seed 0x73e2, xor the
// upper-cased callsign into the accumulator two bytes at a time, mask to
// 15 bits. The result is rendered as a decimal string of at most five
// digits. It is a pure function: the same callsign always yields the same
// passcode, which is what makes re-approval and resends safe.
package callpass

import (
	"strconv"
	"strings"
)

const seed = 0x73e2

// Generator implements the passcode derivation used by the request core.
type Generator struct{}

func (Generator) Passcode(callsign string) string {
	return Passcode(callsign)
}

// Passcode returns the APRS-IS passcode for a callsign. Any SSID suffix
// after a dash is ignored, matching APRS-IS client behaviour.
func Passcode(callsign string) string {
	call := strings.ToUpper(callsign)
	if i := strings.IndexByte(call, '-'); i >= 0 {
		call = call[:i]
	}

	hash := seed
	for i := 0; i < len(call); i += 2 {
		hash ^= int(call[i]) << 8
		if i+1 < len(call) {
			hash ^= int(call[i+1])
		}
	}
	return strconv.Itoa(hash & 0x7fff)
}
