package cansig

import (
	"fmt"
	"strings"
)

// ByteOrder selects the bit numbering convention used to address a signal
// inside the 8 byte payload.
type ByteOrder uint8

const (
	// Intel (little-endian) numbering. The start bit addresses the least
	// significant bit of the signal; bit position p lives in byte p/8 at
	// in-byte bit p%8 with bit 0 the least significant bit of the byte.
	// The signal occupies increasing bit positions.
	Intel ByteOrder = iota

	// Motorola (big-endian) numbering. The start bit addresses the MOST
	// significant bit of the signal; bit position p lives in byte p/8 at
	// in-byte bit 7-p%8, counting from the most significant bit of the
	// byte. The signal occupies decreasing bit positions, so a 16 bit
	// signal starting at bit 15 ends at bit 0.
	Motorola
)

func (o ByteOrder) String() string {
	switch o {
	case Intel:
		return "intel"
	case Motorola:
		return "motorola"
	}
	return fmt.Sprintf("ByteOrder(%d)", uint8(o))
}

// IsValid reports whether o is one of the two known orderings.
func (o ByteOrder) IsValid() bool {
	return o == Intel || o == Motorola
}

// ParseByteOrder resolves a byte order from its common spellings.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(s) {
	case "intel", "little", "le", "lsb":
		return Intel, nil
	case "motorola", "big", "be", "msb":
		return Motorola, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrLayoutOrder, s)
}
