package tail

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/roffe/cansig"
)

func nextFrame(t *testing.T, frames <-chan *cansig.Frame) *cansig.Frame {
	t.Helper()
	select {
	case f, ok := <-frames:
		if !ok {
			t.Fatal("frame channel closed")
		}
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return nil
}

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestFollowReplaysAndFollows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.log")
	if err := os.WriteFile(path, []byte("V1013\rt1232c409\nt23440000007d\n"), 0644); err != nil {
		t.Fatalf("write capture: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	frames, _ := Follow(ctx, path, WithPoll(10*time.Millisecond))

	if f := nextFrame(t, frames); f.Identifier != 0x123 {
		t.Fatalf("first frame 0x%03X, want 0x123", f.Identifier)
	}
	if f := nextFrame(t, frames); f.Identifier != 0x234 {
		t.Fatalf("second frame 0x%03X, want 0x234", f.Identifier)
	}

	appendLine(t, path, "t3d02805a\n")
	if f := nextFrame(t, frames); f.Identifier != 0x3D0 {
		t.Fatalf("appended frame 0x%03X, want 0x3D0", f.Identifier)
	}

	cancel()
	select {
	case _, ok := <-frames:
		if ok {
			// Buffered frames may still drain; the close must follow.
			for range frames {
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel did not close after cancel")
	}
}

func TestFollowSeekEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.log")
	if err := os.WriteFile(path, []byte("t1232c409\n"), 0644); err != nil {
		t.Fatalf("write capture: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	frames, _ := Follow(ctx, path, WithPoll(10*time.Millisecond), WithSeekEnd())

	// Give the follower a moment to pass the existing content, then append.
	time.Sleep(100 * time.Millisecond)
	appendLine(t, path, "t23440000007d\n")

	if f := nextFrame(t, frames); f.Identifier != 0x234 {
		t.Fatalf("frame 0x%03X, want only the appended 0x234", f.Identifier)
	}
}

func TestFollowRestartsAfterTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.log")
	// The trailing partial token sits in the line buffer waiting for a
	// terminator; the restart must discard it.
	if err := os.WriteFile(path, []byte("t1232c409\nt23440000007d\nt3d"), 0644); err != nil {
		t.Fatalf("write capture: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	frames, errs := Follow(ctx, path, WithPoll(10*time.Millisecond))

	if f := nextFrame(t, frames); f.Identifier != 0x123 {
		t.Fatalf("first frame 0x%03X, want 0x123", f.Identifier)
	}
	if f := nextFrame(t, frames); f.Identifier != 0x234 {
		t.Fatalf("second frame 0x%03X, want 0x234", f.Identifier)
	}

	// Restart the capture in place, shorter than the old read offset.
	if err := os.Truncate(path, 0); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	appendLine(t, path, "t3d02805a\n")

	if f := nextFrame(t, frames); f.Identifier != 0x3D0 {
		t.Fatalf("frame after restart 0x%03X, want 0x3D0", f.Identifier)
	}
	select {
	case err := <-errs:
		t.Fatalf("unexpected error after restart: %v", err)
	default:
	}
}

func TestFollowMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.log")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	frames, errs := Follow(ctx, path, WithPoll(time.Millisecond), WithRetry(2))

	select {
	case _, ok := <-frames:
		if ok {
			t.Fatal("unexpected frame from missing file")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel did not close")
	}
	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("nil error for missing file")
		}
	default:
		t.Fatal("no error reported for missing file")
	}
}

func TestFollowWaitsForFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.log")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	frames, _ := Follow(ctx, path, WithPoll(10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)
	appendLine(t, path, "t1232c409\n")

	if f := nextFrame(t, frames); f.Identifier != 0x123 {
		t.Fatalf("frame 0x%03X, want 0x123", f.Identifier)
	}
}

func TestFollowReportsDecodeErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.log")
	if err := os.WriteFile(path, []byte("tXYZ0\nt1232c409\n"), 0644); err != nil {
		t.Fatalf("write capture: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	frames, errs := Follow(ctx, path, WithPoll(10*time.Millisecond))

	if f := nextFrame(t, frames); f.Identifier != 0x123 {
		t.Fatalf("frame 0x%03X, want 0x123", f.Identifier)
	}
	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("nil decode error")
		}
	case <-time.After(time.Second):
		t.Fatal("no decode error reported")
	}
}
