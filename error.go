package cansig

import (
	"errors"
)

var (
	ErrInvalidLength     = errors.New("data length exceeds 8 bytes")
	ErrInvalidIdentifier = errors.New("identifier out of range")
	ErrLayoutLength      = errors.New("bit length outside 1-64")
	ErrLayoutWindow      = errors.New("signal window outside the 8 byte payload")
	ErrLayoutOrder       = errors.New("unknown byte order")
	ErrSubscriberClosed  = errors.New("subscriber channel closed")
)
