package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	// DefaultReadSize is how many bytes are requested per read.
	DefaultReadSize = 80
	// DefaultMaxFrameSize bounds the bytes buffered while waiting for an
	// end marker.
	DefaultMaxFrameSize = 4096
)

// maxEmptyReads bounds consecutive (0, nil) reads before giving up.
const maxEmptyReads = 100

// ErrFrameTooLarge is returned when MaxFrameSize bytes were buffered
// without seeing an end marker.
var ErrFrameTooLarge = errors.New("protocol: frame exceeds maximum size")

// Framer extracts frames from a byte stream.  Bytes that follow an end
// marker in the same read are kept for the next call to Next.
type Framer struct {
	r        io.Reader
	chunk    []byte
	pending  []byte
	maxFrame int
	empty    int
	err      error
}

// NewFramer reads from r in chunks of readSize bytes.  Non-positive sizes
// select the defaults.
func NewFramer(r io.Reader, readSize, maxFrame int) *Framer {
	if readSize <= 0 {
		readSize = DefaultReadSize
	}
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameSize
	}
	return &Framer{r: r, chunk: make([]byte, readSize), maxFrame: maxFrame}
}

// Next blocks until a complete frame is available and returns it.
//
// It returns io.EOF when the peer closed the stream between frames and
// io.ErrUnexpectedEOF when the stream ended inside a frame.
func (f *Framer) Next() (Frame, error) {
	raw, err := f.NextRaw()
	if err != nil {
		return Frame{}, err
	}
	return Parse(raw), nil
}

// NextRaw is Next without parsing.  The returned slice is only valid
// until the following call.
func (f *Framer) NextRaw() ([]byte, error) {
	for {
		if i := bytes.IndexByte(f.pending, EndMarker); i >= 0 {
			raw := f.pending[:i]
			f.pending = f.pending[i+1:]
			return raw, nil
		}
		if len(f.pending) >= f.maxFrame {
			return nil, fmt.Errorf("%w (%d bytes buffered)", ErrFrameTooLarge, len(f.pending))
		}
		if f.err != nil {
			return nil, f.endOfStream()
		}
		n, err := f.r.Read(f.chunk)
		if n > 0 {
			f.pending = append(f.pending, f.chunk[:n]...)
		}
		switch {
		case err != nil:
			f.err = err
		case n == 0:
			f.empty++
			if f.empty >= maxEmptyReads {
				f.err = io.ErrNoProgress
			}
		default:
			f.empty = 0
		}
	}
}

// Buffered returns how many bytes are held for following frames.
func (f *Framer) Buffered() int { return len(f.pending) }

func (f *Framer) endOfStream() error {
	if !errors.Is(f.err, io.EOF) {
		return f.err
	}
	if len(bytes.TrimSpace(f.pending)) > 0 {
		return io.ErrUnexpectedEOF
	}
	return io.EOF
}
