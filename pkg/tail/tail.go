// Package tail follows an slcan capture file while an adapter appends to
// it, emitting frames as they land. The follower polls for growth, waits
// for the file to appear and restarts from the top when the file is
// truncated under it.
package tail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/avast/retry-go"

	"github.com/roffe/cansig"
	"github.com/roffe/cansig/pkg/slcan"
)

const (
	defaultPoll    = 100 * time.Millisecond
	defaultRetries = 30
)

type options struct {
	poll    time.Duration
	retries uint
	seekEnd bool
}

type Option func(*options)

// WithPoll sets the growth poll interval, also used as the delay between
// attempts while waiting for the file to appear.
func WithPoll(d time.Duration) Option {
	return func(o *options) { o.poll = d }
}

// WithRetry sets how many times the follower waits for a missing file
// before giving up.
func WithRetry(attempts uint) Option {
	return func(o *options) { o.retries = attempts }
}

// WithSeekEnd skips the existing capture content and follows new frames
// only.
func WithSeekEnd() Option {
	return func(o *options) { o.seekEnd = true }
}

// Follow starts tailing the capture file and returns immediately. Both
// channels close when the context is done or the follower fails; decode
// and IO problems arrive on the error channel and are dropped when nobody
// listens.
func Follow(ctx context.Context, path string, opts ...Option) (<-chan *cansig.Frame, <-chan error) {
	o := &options{
		poll:    defaultPoll,
		retries: defaultRetries,
	}
	for _, opt := range opts {
		opt(o)
	}
	frames := make(chan *cansig.Frame, 100)
	errs := make(chan error, 10)
	go follow(ctx, path, o, frames, errs)
	return frames, errs
}

func follow(ctx context.Context, path string, o *options, frames chan *cansig.Frame, errs chan error) {
	defer close(frames)
	defer close(errs)

	var file *os.File
	err := retry.Do(func() error {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return err
			}
			return retry.Unrecoverable(err)
		}
		file = f
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(o.retries),
		retry.Delay(o.poll),
		retry.DelayType(retry.FixedDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("Retry #%d: %v", n, err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		sendErr(errs, fmt.Errorf("failed to open capture %q: %w", path, err))
		return
	}
	defer file.Close()

	if o.seekEnd {
		if _, err := file.Seek(0, io.SeekEnd); err != nil {
			sendErr(errs, fmt.Errorf("failed to seek capture %q: %w", path, err))
			return
		}
	}

	buff := bytes.NewBuffer(nil)
	readBuffer := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := file.Read(readBuffer)
		if n > 0 {
			if !parse(ctx, buff, readBuffer[:n], frames, errs) {
				return
			}
		}
		if err == io.EOF {
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.poll):
			}
			if truncated(file) {
				if _, err := file.Seek(0, io.SeekStart); err != nil {
					sendErr(errs, fmt.Errorf("failed to rewind capture %q: %w", path, err))
					return
				}
				buff.Reset()
			}
			continue
		}
		if err != nil {
			sendErr(errs, fmt.Errorf("failed to read capture %q: %w", path, err))
			return
		}
	}
}

func parse(ctx context.Context, buff *bytes.Buffer, readBuffer []byte, frames chan *cansig.Frame, errs chan error) bool {
	for _, b := range readBuffer {
		if b != '\r' && b != '\n' {
			buff.WriteByte(b)
			continue
		}
		if buff.Len() == 0 {
			continue
		}
		line := buff.String()
		buff.Reset()
		if slcan.IsChatter(line) {
			continue
		}
		f, err := slcan.Unmarshal(line)
		if err != nil {
			sendErr(errs, fmt.Errorf("failed to decode frame: %w", err))
			continue
		}
		select {
		case frames <- f:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// truncated reports whether the file shrank below the read offset, which
// happens when the capture is restarted in place.
func truncated(file *os.File) bool {
	pos, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return stat.Size() < pos
}

func sendErr(errs chan error, err error) {
	select {
	case errs <- err:
	default:
	}
}
