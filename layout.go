package cansig

import (
	"fmt"
)

// SignalLayout describes where a signal lives inside a frame payload and
// how its raw bits map to a physical quantity. A layout is an immutable
// value: construct it once, call Validate, and share it freely. Any number
// of frames may be decoded or encoded against the same layout concurrently.
//
// The codec's behavior is defined only for layouts that pass Validate.
type SignalLayout struct {
	StartBit uint8 // first bit position; for Motorola the signal's most significant bit
	Length   uint8 // signal width in bits, 1..64
	Factor   float64
	Offset   float64 // physical = raw*Factor + Offset
	Min      float64 // lower physical bound
	Max      float64 // upper physical bound
	Order    ByteOrder
	Signed   bool // two's complement interpretation of the raw bits
}

// Validate fails fast on layouts whose bit window cannot address the 8 byte
// payload. Intel signals run upward from StartBit, Motorola signals run
// downward, and both ends must land inside bit 0..63.
func (l SignalLayout) Validate() error {
	if !l.Order.IsValid() {
		return fmt.Errorf("%w: %d", ErrLayoutOrder, l.Order)
	}
	if l.Length < 1 || l.Length > 64 {
		return fmt.Errorf("%w: %d", ErrLayoutLength, l.Length)
	}
	switch l.Order {
	case Intel:
		if int(l.StartBit)+int(l.Length) > 64 {
			return fmt.Errorf("%w: start %d length %d", ErrLayoutWindow, l.StartBit, l.Length)
		}
	case Motorola:
		if l.StartBit > 63 || int(l.StartBit)-int(l.Length)+1 < 0 {
			return fmt.Errorf("%w: start %d length %d", ErrLayoutWindow, l.StartBit, l.Length)
		}
	}
	return nil
}
