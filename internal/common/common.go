package common

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/ccoveille/go-safecast"
)

// Alignment is the boundary every encoded value is padded to.
const Alignment = 4

// AlignInt rounds i up to the next multiple of alignment.
func AlignInt(i, alignment int) int {
	return i + (alignment-(i%alignment))%alignment
}

// PadLen returns the number of zero bytes needed after n bytes to reach
// the next Alignment boundary.
func PadLen(n int) int {
	return AlignInt(n, Alignment) - n
}

// ToUint32 converts a length to the uint32 used by length prefixes.
func ToUint32(n int) (uint32, error) {
	return safecast.ToUint32(n)
}

// AppendUTF16 appends s as little-endian UTF-16 code units to dst and
// returns the extended slice together with the number of code units written.
// Invalid UTF-8 sequences are encoded as U+FFFD.
func AppendUTF16(dst []byte, s string) ([]byte, int) {
	units := utf16.Encode([]rune(s))
	for _, u := range units {
		dst = binary.LittleEndian.AppendUint16(dst, u)
	}
	return dst, len(units)
}

// DecodeUTF16 decodes little-endian UTF-16 code units from b. len(b) must be even.
// Unpaired surrogates decode to U+FFFD.
func DecodeUTF16(b []byte) string {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return string(utf16.Decode(units))
}
