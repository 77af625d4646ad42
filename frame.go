package cansig

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

const (
	// MaxDataLength is the payload capacity of a classical CAN frame.
	MaxDataLength = 8
	// MaxStandardID is the highest valid 11 bit identifier.
	MaxStandardID uint32 = 0x7FF
	// MaxExtendedID is the highest valid 29 bit identifier.
	MaxExtendedID uint32 = 0x1FFFFFFF
)

// can_frame flag bits used by the binary wire layout.
const (
	canEFFFlag uint32 = 0x80000000
	canRTRFlag uint32 = 0x40000000
)

// Frame is a classical CAN (2.0A/2.0B) frame. The payload buffer is always
// 8 bytes: bytes beyond Length are ignored by consumers but remain
// addressable by the signal bit operations.
type Frame struct {
	Identifier uint32 // 11 bit standard or 29 bit extended
	Extended   bool   // 29 bit identifier
	RTR        bool   // remote transmission request, informational only
	Length     uint8  // DLC, 0..8
	Data       [8]byte
}

// NewFrame creates a standard (11 bit) frame and copies data into the
// payload buffer.
func NewFrame(identifier uint32, data []byte) (*Frame, error) {
	if len(data) > MaxDataLength {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, len(data))
	}
	f := &Frame{
		Identifier: identifier,
		Length:     uint8(len(data)),
	}
	copy(f.Data[:], data)
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// NewExtendedFrame creates an extended (29 bit) frame and copies data into
// the payload buffer.
func NewExtendedFrame(identifier uint32, data []byte) (*Frame, error) {
	if len(data) > MaxDataLength {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, len(data))
	}
	f := &Frame{
		Identifier: identifier,
		Extended:   true,
		Length:     uint8(len(data)),
	}
	copy(f.Data[:], data)
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// MustFrame builds a frame and panics if it is invalid. Identifiers above
// the standard range select an extended frame. Convenience for tests and
// examples.
func MustFrame(identifier uint32, data []byte) *Frame {
	var err error
	var f *Frame
	if identifier > MaxStandardID {
		f, err = NewExtendedFrame(identifier, data)
	} else {
		f, err = NewFrame(identifier, data)
	}
	if err != nil {
		panic(err)
	}
	return f
}

// Validate checks the structural invariants: DLC within 0..8 and the
// identifier within the range its frame kind allows. Payload content is
// unconstrained.
func (f *Frame) Validate() error {
	if f.Length > MaxDataLength {
		return fmt.Errorf("%w: %d", ErrInvalidLength, f.Length)
	}
	max := MaxStandardID
	if f.Extended {
		max = MaxExtendedID
	}
	if f.Identifier > max {
		return fmt.Errorf("%w: 0x%X", ErrInvalidIdentifier, f.Identifier)
	}
	return nil
}

// IsValid is the boolean form of Validate.
func (f *Frame) IsValid() bool {
	return f.Validate() == nil
}

// Payload returns the meaningful part of the data buffer.
func (f *Frame) Payload() []byte {
	return f.Data[:f.Length]
}

// MarshalBinary encodes the frame to the 16 byte Linux can_frame layout:
// little-endian identifier with EFF/RTR flag bits, DLC, 3 padding bytes and
// the 8 data bytes.
func (f *Frame) MarshalBinary() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	id := f.Identifier
	if f.Extended {
		id |= canEFFFlag
	}
	if f.RTR {
		id |= canRTRFlag
	}
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], id)
	buf[4] = f.Length
	copy(buf[8:16], f.Data[:])
	return buf, nil
}

// UnmarshalBinary decodes a frame from the 16 byte can_frame layout.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < 16 {
		return fmt.Errorf("need 16 bytes, got %d", len(data))
	}
	id := binary.LittleEndian.Uint32(data[0:4])
	f.Extended = id&canEFFFlag != 0
	f.RTR = id&canRTRFlag != 0
	if f.Extended {
		f.Identifier = id & MaxExtendedID
	} else {
		f.Identifier = id & MaxStandardID
	}
	f.Length = data[4]
	copy(f.Data[:], data[8:16])
	return f.Validate()
}

var (
	yellow = color.New(color.FgHiBlue).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
)

func (f *Frame) marker() string {
	if f.RTR {
		return "<r> || "
	}
	return "<d> || "
}

func (f *Frame) String() string {
	var out strings.Builder
	out.WriteString(f.marker())
	out.WriteString(fmt.Sprintf("0x%03X", f.Identifier) + " || ")
	out.WriteString(strconv.Itoa(int(f.Length)) + " || ")
	out.WriteString(fmt.Sprintf("%-23s", hexView(f.Payload())))
	out.WriteString(" || ")
	out.WriteString(fmt.Sprintf("%-72s", binView(f.Payload())))
	out.WriteString(" || ")
	out.WriteString(onlyPrintable(f.Payload()))
	return out.String()
}

// ColorString renders the same columns as String with terminal colors.
func (f *Frame) ColorString() string {
	var out strings.Builder
	out.WriteString(f.marker())
	out.WriteString(green("0x%03X", f.Identifier) + " || ")
	out.WriteString(strconv.Itoa(int(f.Length)) + " || ")
	out.WriteString(fmt.Sprintf("%-23s", hexView(f.Payload())))
	out.WriteString(" || ")
	out.WriteString(red("%-72s", binView(f.Payload())))
	out.WriteString(" || ")
	out.WriteString(yellow("%s", onlyPrintable(f.Payload())))
	return out.String()
}

func hexView(data []byte) string {
	var out strings.Builder
	for i, b := range data {
		out.WriteString(fmt.Sprintf("%02X", b))
		if i != len(data)-1 {
			out.WriteString(" ")
		}
	}
	return out.String()
}

func binView(data []byte) string {
	var out strings.Builder
	for i, b := range data {
		out.WriteString(fmt.Sprintf("%08b", b))
		if i != len(data)-1 {
			out.WriteString(" ")
		}
	}
	return out.String()
}

func onlyPrintable(data []byte) string {
	var out strings.Builder
	for _, b := range data {
		if b < 32 || b > 127 {
			out.WriteString("·")
		} else {
			out.WriteByte(b)
		}
	}
	return out.String()
}
