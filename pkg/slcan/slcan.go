// Package slcan converts frames to and from the Lawicel SLCAN ASCII
// framing used by Canable style adapters and their capture logs. A token
// is a type letter, a hex identifier, a DLC digit and the payload in hex:
// t/T carry standard/extended data frames, r/R the remote variants
// without payload. On the wire tokens end with a carriage return; in
// capture files any line ending goes.
package slcan

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roffe/cansig"
)

var ErrInvalidToken = errors.New("invalid slcan token")

// Marshal renders the frame as a bare token without a terminator. Wire
// writers append \r, file writers a newline.
func Marshal(f *cansig.Frame) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	idb := make([]byte, 4)
	binary.BigEndian.PutUint32(idb, f.Identifier)
	id := hex.EncodeToString(idb)
	if !f.Extended {
		id = id[5:]
	}
	var out strings.Builder
	switch {
	case f.RTR && f.Extended:
		out.WriteString("R")
	case f.RTR:
		out.WriteString("r")
	case f.Extended:
		out.WriteString("T")
	default:
		out.WriteString("t")
	}
	out.WriteString(id)
	out.WriteString(strconv.Itoa(int(f.Length)))
	if !f.RTR {
		out.WriteString(hex.EncodeToString(f.Payload()))
	}
	return out.String(), nil
}

// Unmarshal parses a single token, with or without its line terminator.
// The DLC digit must agree with the hex payload that follows it.
func Unmarshal(token string) (*cansig.Frame, error) {
	token = strings.TrimRight(token, "\r\n")
	if token == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	var idLen int
	var extended, rtr bool
	switch token[0] {
	case 't':
		idLen = 3
	case 'T':
		idLen, extended = 8, true
	case 'r':
		idLen, rtr = 3, true
	case 'R':
		idLen, extended, rtr = 8, true, true
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidToken, token[0])
	}
	if len(token) < 1+idLen+1 {
		return nil, fmt.Errorf("%w: truncated %q", ErrInvalidToken, token)
	}
	id, err := strconv.ParseUint(token[1:1+idLen], 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: identifier in %q", ErrInvalidToken, token)
	}
	dlc := token[1+idLen]
	if dlc < '0' || dlc > '8' {
		return nil, fmt.Errorf("%w: dlc %q in %q", ErrInvalidToken, dlc, token)
	}
	f := &cansig.Frame{
		Identifier: uint32(id),
		Extended:   extended,
		RTR:        rtr,
		Length:     dlc - '0',
	}
	rest := token[1+idLen+1:]
	if rtr {
		if rest != "" {
			return nil, fmt.Errorf("%w: remote frame with payload %q", ErrInvalidToken, token)
		}
	} else {
		if len(rest) != 2*int(f.Length) {
			return nil, fmt.Errorf("%w: %d payload chars for dlc %d", ErrInvalidToken, len(rest), f.Length)
		}
		data, err := hex.DecodeString(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: payload in %q", ErrInvalidToken, token)
		}
		copy(f.Data[:], data)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// IsChatter reports whether a line is interface noise rather than a frame
// token: command acks, version and status replies, bell bytes. Chatter is
// skipped, not decoded.
func IsChatter(line string) bool {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return true
	}
	switch line[0] {
	case 't', 'T', 'r', 'R':
		return false
	}
	return true
}
