package protocol

import (
	"bytes"
	"errors"
	"strings"
)

// MaxFrameSize bounds the per-connection decode buffer. A peer that sends
// this many bytes without a newline is not speaking the protocol.
const MaxFrameSize = 8 * 1024

// ErrFrameTooLong is returned by Framer.Push when the buffered partial frame
// exceeds the framer's limit. The connection must be closed.
var ErrFrameTooLong = errors.New("protocol: frame exceeds buffer limit")

// Framer reassembles newline-terminated frames from a byte stream. It keeps
// at most one partial frame buffered and rejects peers whose partial frame
// outgrows the limit. A Framer is not safe for concurrent use; each
// connection owns one.
type Framer struct {
	buf   bytes.Buffer
	limit int
}

// NewFramer returns a framer with the given buffer limit; a limit of zero or
// less falls back to MaxFrameSize.
func NewFramer(limit int) *Framer {
	if limit <= 0 {
		limit = MaxFrameSize
	}

	return &Framer{limit: limit}
}

// Push appends raw bytes and returns the complete frames they finish, in
// order, with the trailing '\n' and any '\r' before it removed. Empty lines
// are skipped. Push returns ErrFrameTooLong when the buffered remainder
// exceeds the limit.
func (f *Framer) Push(data []byte) ([]string, error) {
	f.buf.Write(data)

	var frames []string
	for {
		raw := f.buf.Bytes()
		idx := bytes.IndexByte(raw, '\n')
		if idx < 0 {
			break
		}

		line := strings.TrimSuffix(string(raw[:idx]), "\r")
		f.buf.Next(idx + 1)

		if line != "" {
			frames = append(frames, line)
		}
	}

	if f.buf.Len() > f.limit {
		return frames, ErrFrameTooLong
	}

	return frames, nil
}

// Pending returns the number of buffered bytes awaiting a newline.
func (f *Framer) Pending() int {
	return f.buf.Len()
}
