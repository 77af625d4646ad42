package cansig

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStreamFiltersByIdentifier(t *testing.T) {
	source := make(chan *Frame)
	s := NewStream(source)
	go s.Run(context.Background())
	defer s.Close()

	sub := s.Subscribe(0x123)
	defer sub.Close()

	source <- MustFrame(0x456, []byte{0xBA, 0xD0})
	source <- MustFrame(0x123, []byte{0x01})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	f, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if f.Identifier != 0x123 {
		t.Fatalf("got frame 0x%03X, want the filtered 0x123", f.Identifier)
	}
}

func TestStreamGlobalSubscriber(t *testing.T) {
	source := make(chan *Frame)
	s := NewStream(source)
	go s.Run(context.Background())
	defer s.Close()

	all := s.Subscribe()
	defer all.Close()
	one := s.Subscribe(0x200, 0x300)
	defer one.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, id := range []uint32{0x100, 0x200, 0x300} {
		source <- MustFrame(id, nil)
	}

	for _, want := range []uint32{0x100, 0x200, 0x300} {
		f, err := all.Next(ctx)
		if err != nil {
			t.Fatalf("global next: %v", err)
		}
		if f.Identifier != want {
			t.Fatalf("global got 0x%03X, want 0x%03X", f.Identifier, want)
		}
	}
	for _, want := range []uint32{0x200, 0x300} {
		f, err := one.Next(ctx)
		if err != nil {
			t.Fatalf("filtered next: %v", err)
		}
		if f.Identifier != want {
			t.Fatalf("filtered got 0x%03X, want 0x%03X", f.Identifier, want)
		}
	}
}

func TestStreamClosesWithSource(t *testing.T) {
	source := make(chan *Frame)
	s := NewStream(source)
	go s.Run(context.Background())

	sub := s.Subscribe(0x123)
	close(source)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := sub.Next(ctx); !errors.Is(err, ErrSubscriberClosed) {
		t.Fatalf("next after source close = %v, want %v", err, ErrSubscriberClosed)
	}
}

func TestStreamStats(t *testing.T) {
	source := make(chan *Frame)
	s := NewStream(source)
	go s.Run(context.Background())
	defer s.Close()

	sub := s.Subscribe(0x123)
	defer sub.Close()

	// One past the buffer so exactly one frame is dropped, plus a frame
	// nobody subscribes to, which counts as received only.
	for i := 0; i < subscriberBuffer+1; i++ {
		source <- MustFrame(0x123, nil)
	}
	source <- MustFrame(0x456, nil)

	want := Stats{Received: subscriberBuffer + 2, Delivered: subscriberBuffer, Dropped: 1}
	deadline := time.Now().Add(time.Second)
	for s.Stats() != want {
		if time.Now().After(deadline) {
			t.Fatalf("stats = %v, want %v", s.Stats(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSubscriberClose(t *testing.T) {
	source := make(chan *Frame)
	s := NewStream(source)
	go s.Run(context.Background())
	defer s.Close()

	sub := s.Subscribe(0x123)
	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Close twice is fine and the channel reads as closed.
	if err := sub.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, ok := <-sub.Chan(); ok {
		t.Fatal("channel still open after close")
	}

	// Delivery keeps working for the remaining subscribers.
	rest := s.Subscribe(0x123)
	defer rest.Close()
	source <- MustFrame(0x123, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := rest.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
}

func TestSubscriberNextContext(t *testing.T) {
	s := NewStream(make(chan *Frame))
	sub := s.Subscribe(0x123)
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sub.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("next = %v, want context.Canceled", err)
	}
}
