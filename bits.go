package cansig

// ExtractSignal reads length bits from the frame payload starting at
// startBit under the given byte order and returns them right-aligned in a
// uint64.
//
// Intel: result bit i comes from bit position startBit+i. Motorola: the
// start bit addresses the most significant bit of the signal and the
// remaining bits follow at decreasing positions (see ByteOrder).
//
// The addressed window must lie within the 64 payload bits; this is
// guaranteed for every layout that passes SignalLayout.Validate. Behavior
// is undefined for windows that escape the payload.
func ExtractSignal(f *Frame, startBit, length uint8, order ByteOrder) uint64 {
	var raw uint64
	if order == Motorola {
		for i := uint8(0); i < length; i++ {
			pos := int(startBit) - int(i)
			if (f.Data[pos/8]>>(7-pos%8))&0x01 != 0 {
				raw |= 1 << (length - 1 - i)
			}
		}
		return raw
	}
	for i := uint8(0); i < length; i++ {
		pos := int(startBit) + int(i)
		if (f.Data[pos/8]>>(pos%8))&0x01 != 0 {
			raw |= 1 << i
		}
	}
	return raw
}

// InsertSignal writes the low length bits of value into the frame payload
// starting at startBit under the given byte order. The payload is mutated
// in place; bits outside the addressed window are left untouched.
func InsertSignal(f *Frame, startBit, length uint8, value uint64, order ByteOrder) {
	if order == Motorola {
		for i := uint8(0); i < length; i++ {
			pos := int(startBit) - int(i)
			mask := byte(1) << (7 - pos%8)
			if (value>>(length-1-i))&0x01 != 0 {
				f.Data[pos/8] |= mask
			} else {
				f.Data[pos/8] &^= mask
			}
		}
		return
	}
	for i := uint8(0); i < length; i++ {
		pos := int(startBit) + int(i)
		mask := byte(1) << (pos % 8)
		if (value>>i)&0x01 != 0 {
			f.Data[pos/8] |= mask
		} else {
			f.Data[pos/8] &^= mask
		}
	}
}
