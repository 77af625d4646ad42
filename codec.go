package cansig

import (
	"math"
)

// Decode converts a raw bit pattern to a physical value: two's complement
// sign extension when the layout is signed, then raw*Factor+Offset, then a
// silent clamp into [Min, Max]. Out of range input substitutes the nearest
// bound; no error is reported. Use DecodeClamped to observe the clamp.
func (l SignalLayout) Decode(raw uint64) float64 {
	physical, _ := l.DecodeClamped(raw)
	return physical
}

// DecodeClamped is Decode plus a report of whether a bound was substituted
// for an out of range result.
func (l SignalLayout) DecodeClamped(raw uint64) (float64, bool) {
	var physical float64
	if l.Signed {
		signed := int64(raw)
		// A 64 bit signal already spans the full width; extending would
		// shift by the integer size.
		if l.Length < 64 && raw&(1<<(l.Length-1)) != 0 {
			signed = int64(raw | ^uint64(0)<<l.Length)
		}
		physical = float64(signed)*l.Factor + l.Offset
	} else {
		physical = float64(raw)*l.Factor + l.Offset
	}
	switch {
	case physical < l.Min:
		return l.Min, true
	case physical > l.Max:
		return l.Max, true
	}
	return physical, false
}

// Encode converts a physical value to the raw integer the payload carries:
// round((physical-Offset)/Factor) to the nearest integer. Input beyond the
// physical bounds saturates the raw result to the value the bound itself
// encodes to, computed from the bound rather than from the clamped input.
func (l SignalLayout) Encode(physical float64) uint64 {
	raw, _ := l.EncodeClamped(physical)
	return raw
}

// EncodeClamped is Encode plus a report of whether the result saturated to
// a bound.
func (l SignalLayout) EncodeClamped(physical float64) (uint64, bool) {
	switch {
	case physical > l.Max:
		return l.rawValue(l.Max), true
	case physical < l.Min:
		return l.rawValue(l.Min), true
	}
	return l.rawValue(physical), false
}

// rawValue rounds through int64 so negative physicals land on the two's
// complement pattern InsertSignal expects.
func (l SignalLayout) rawValue(physical float64) uint64 {
	return uint64(int64(math.Round((physical - l.Offset) / l.Factor)))
}
