package cansig

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

const subscriberBuffer = 100

// Stream fans incoming frames out to any number of subscribers. The source
// is typically a capture follower (pkg/tail) but any producer of frames
// works; the stream owns nothing beyond its subscriber bookkeeping.
type Stream struct {
	source <-chan *Frame

	close     chan struct{}
	closeOnce sync.Once

	received  uint64
	delivered uint64
	dropped   uint64

	submap     map[uint32]map[*Subscriber]struct{}
	globalSubs []*Subscriber

	mu sync.RWMutex
}

func NewStream(source <-chan *Frame) *Stream {
	return &Stream{
		source: source,
		close:  make(chan struct{}),
		submap: make(map[uint32]map[*Subscriber]struct{}),
	}
}

// Run pumps frames from the source to the subscribers until the source is
// drained, the context is done or the stream is closed. Call it from its
// own goroutine.
func (s *Stream) Run(ctx context.Context) {
	for {
		select {
		case <-s.close:
			return
		case <-ctx.Done():
			return
		case frame, ok := <-s.source:
			if !ok {
				s.Close()
				return
			}
			s.deliver(frame)
		}
	}
}

// Subscribe registers a subscriber. With no identifiers it sees every
// frame, otherwise only frames whose identifier matches.
func (s *Stream) Subscribe(identifiers ...uint32) *Subscriber {
	sub := &Subscriber{
		stream:       s,
		identifiers:  make(map[uint32]struct{}, len(identifiers)),
		filterCount:  len(identifiers),
		responseChan: make(chan *Frame, subscriberBuffer),
	}
	for _, id := range identifiers {
		sub.identifiers[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.filterCount == 0 {
		s.globalSubs = append(s.globalSubs, sub)
		return sub
	}
	for id := range sub.identifiers {
		if _, ok := s.submap[id]; !ok {
			s.submap[id] = make(map[*Subscriber]struct{})
		}
		s.submap[id][sub] = struct{}{}
	}
	return sub
}

func (s *Stream) unregister(sub *Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.filterCount == 0 {
		for i, g := range s.globalSubs {
			if g == sub {
				s.globalSubs = append(s.globalSubs[:i], s.globalSubs[i+1:]...)
				break
			}
		}
	} else {
		for id := range sub.identifiers {
			if subs, ok := s.submap[id]; ok {
				delete(subs, sub)
				if len(subs) == 0 {
					delete(s.submap, id)
				}
			}
		}
	}
	sub.closeChan()
}

// NOTE: frames are sent while holding RLock on s.mu. Channel close always
// happens under the write lock, so a send here can never race a close.
func (s *Stream) deliver(frame *Frame) {
	atomic.AddUint64(&s.received, 1)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.globalSubs {
		select {
		case sub.responseChan <- frame:
			atomic.AddUint64(&s.delivered, 1)
		default:
			atomic.AddUint64(&s.dropped, 1)
			log.Printf("dropped frame 0x%03X for slow subscriber", frame.Identifier)
		}
	}
	if subs, ok := s.submap[frame.Identifier]; ok {
		for sub := range subs {
			select {
			case sub.responseChan <- frame:
				atomic.AddUint64(&s.delivered, 1)
			default:
				atomic.AddUint64(&s.dropped, 1)
				log.Printf("dropped frame 0x%03X for slow subscriber", frame.Identifier)
			}
		}
	}
}

// Close stops delivery and closes every subscriber channel.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		close(s.close)
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, sub := range s.globalSubs {
			sub.closeChan()
		}
		s.globalSubs = nil
		for _, subs := range s.submap {
			for sub := range subs {
				sub.closeChan()
			}
		}
		s.submap = make(map[uint32]map[*Subscriber]struct{})
	})
}
