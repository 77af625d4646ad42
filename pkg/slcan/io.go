package slcan

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/roffe/cansig"
)

// Reader decodes frames from a capture stream, one token per line.
// Chatter lines are skipped silently.
type Reader struct {
	s    *bufio.Scanner
	line int
}

func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Split(scanTokens)
	return &Reader{s: s}
}

// Read returns the next frame in the stream or io.EOF when the input is
// exhausted. Decode failures carry the line number.
func (r *Reader) Read() (*cansig.Frame, error) {
	for r.s.Scan() {
		token := r.s.Text()
		if token == "" {
			continue
		}
		r.line++
		if IsChatter(token) {
			continue
		}
		f, err := Unmarshal(token)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		return f, nil
	}
	if err := r.s.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// ReadAll drains the stream. On a decode error the frames read so far are
// returned alongside it.
func (r *Reader) ReadAll() ([]*cansig.Frame, error) {
	var frames []*cansig.Frame
	for {
		f, err := r.Read()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}

// Tokens end on \r, \n or any mix of both.
func scanTokens(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Writer appends frames to a capture stream, one token per line.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) WriteFrame(f *cansig.Frame) error {
	token, err := Marshal(f)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w.w, token+"\n")
	return err
}
