package cansig

import (
	"fmt"
	"sync/atomic"
)

// Stats holds delivery counters for a Stream.
type Stats struct {
	Received  uint64
	Delivered uint64
	Dropped   uint64
}

func (st Stats) String() string {
	return fmt.Sprintf("recv: %d delivered: %d dropped: %d", st.Received, st.Delivered, st.Dropped)
}

// Stats returns a snapshot of the stream counters. Dropped counts sends
// that were skipped because a subscriber buffer was full.
func (s *Stream) Stats() Stats {
	return Stats{
		Received:  atomic.LoadUint64(&s.received),
		Delivered: atomic.LoadUint64(&s.delivered),
		Dropped:   atomic.LoadUint64(&s.dropped),
	}
}
