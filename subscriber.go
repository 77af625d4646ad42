package cansig

import (
	"context"
	"fmt"
	"sync"
)

// Subscriber receives frames from a Stream. Create one with
// Stream.Subscribe and release it with Close when done.
type Subscriber struct {
	stream       *Stream
	identifiers  map[uint32]struct{}
	filterCount  int
	responseChan chan *Frame
	chanOnce     sync.Once
	closeOnce    sync.Once
}

// Chan exposes the receive channel directly for use in select loops. The
// channel is closed when the subscriber or its stream is closed.
func (s *Subscriber) Chan() <-chan *Frame {
	return s.responseChan
}

// Next blocks until a frame arrives, the subscriber is closed or the
// context is done.
func (s *Subscriber) Next(ctx context.Context) (*Frame, error) {
	select {
	case frame, ok := <-s.responseChan:
		if !ok {
			return nil, ErrSubscriberClosed
		}
		return frame, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to wait for frame: %w", ctx.Err())
	}
}

// Close unregisters the subscriber from its stream and closes the receive
// channel. Safe to call multiple times.
func (s *Subscriber) Close() error {
	s.closeOnce.Do(func() {
		s.stream.unregister(s)
	})
	return nil
}

func (s *Subscriber) closeChan() {
	s.chanOnce.Do(func() {
		close(s.responseChan)
	})
}
