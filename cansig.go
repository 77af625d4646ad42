// Package cansig packs and unpacks arbitrarily positioned signals inside
// classical CAN frame payloads and converts between raw bit patterns and
// scaled physical values.
//
// The core is three stateless transforms over caller-owned data: the bit
// accessors ExtractSignal and InsertSignal, the SignalLayout codec
// (Decode/Encode with silent range clamping), and structural frame
// validation. Stream adds identifier-filtered fan-out of frames read from a
// capture source. Nothing here touches a bus: transports produce and
// consume Frame values at this boundary.
package cansig

// DecodeSignal extracts the layout's raw bits from the frame and converts
// them to a physical value.
func DecodeSignal(f *Frame, l SignalLayout) float64 {
	return l.Decode(ExtractSignal(f, l.StartBit, l.Length, l.Order))
}

// DecodeSignalClamped is DecodeSignal plus the clamp report.
func DecodeSignalClamped(f *Frame, l SignalLayout) (float64, bool) {
	return l.DecodeClamped(ExtractSignal(f, l.StartBit, l.Length, l.Order))
}

// EncodeSignal converts a physical value to its raw encoding and writes it
// into the frame payload. The caller needs exclusive access to the frame
// for the duration of the call; everything else here is read-only and safe
// to share.
func EncodeSignal(f *Frame, l SignalLayout, physical float64) {
	InsertSignal(f, l.StartBit, l.Length, l.Encode(physical), l.Order)
}
