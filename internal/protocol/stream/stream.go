// Package stream recovers frame boundaries from a byte stream delivered in
// arbitrary chunk sizes.
package stream

import (
	"errors"
	"fmt"

	"github.com/aspenlabs/aspentap/internal/protocol/frame"
)

var (
	// ErrResourceLimit marks a stream whose declared frame size overflows
	// or exceeds the configured cap. Fatal for that stream only.
	ErrResourceLimit = errors.New("stream: declared frame size exceeds resource limits")

	// ErrStreamFailed is returned by Feed after a fatal error has latched.
	ErrStreamFailed = errors.New("stream: reassembly previously failed")
)

// Frame is one complete header+payload message cut from the stream.
// Start/End are absolute byte offsets on the stream, half-open.
type Frame struct {
	Header  frame.Header
	Payload []byte
	Start   uint64
	End     uint64
}

// Reassembler holds the unconsumed bytes of one direction of one
// connection. Feed calls must be applied in the order bytes were received;
// out-of-order delivery is a caller contract violation.
type Reassembler struct {
	limits frame.Limits
	buf    []byte
	off    int
	base   uint64
	failed error
}

func New(limits frame.Limits) *Reassembler {
	return &Reassembler{limits: limits}
}

// Feed appends chunk and emits every frame it completes, in stream order.
// need is the byte deficit of the trailing incomplete frame (at least
// frame.HeaderSize when the buffer drains). A non-nil error is fatal for
// this stream: buffered bytes are released and further feeds are refused.
func (r *Reassembler) Feed(chunk []byte) (frames []Frame, need uint64, err error) {
	if r.failed != nil {
		return nil, 0, r.failed
	}
	r.buf = append(r.buf, chunk...)

	for {
		remaining := uint64(len(r.buf) - r.off)
		if remaining < frame.HeaderSize {
			need = frame.HeaderSize - remaining
			break
		}

		h, err := frame.DecodeHeader(r.buf[r.off : r.off+frame.HeaderSize])
		if err != nil {
			return frames, 0, r.fail(err)
		}
		fullLen, ok := h.FullLen()
		if !ok || fullLen > r.limits.MaxFrameBytes {
			return frames, 0, r.fail(fmt.Errorf("%w: payload_len=%d at offset %d",
				ErrResourceLimit, h.PayloadLen, r.base+uint64(r.off)))
		}

		if remaining < fullLen {
			// Buffered bytes stay put until the frame completes.
			need = fullLen - remaining
			break
		}

		start := r.base + uint64(r.off)
		payload := make([]byte, h.PayloadLen)
		copy(payload, r.buf[r.off+frame.HeaderSize:r.off+int(fullLen)])
		frames = append(frames, Frame{
			Header:  h,
			Payload: payload,
			Start:   start,
			End:     start + fullLen,
		})
		r.off += int(fullLen)
	}

	r.compact()
	return frames, need, nil
}

// Buffered reports how many unconsumed bytes are held for the pending frame.
func (r *Reassembler) Buffered() int {
	return len(r.buf) - r.off
}

// Need reports the byte deficit of the pending frame, matching the value
// last returned by Feed. Zero once the stream has fatally failed.
func (r *Reassembler) Need() uint64 {
	if r.failed != nil {
		return 0
	}
	remaining := uint64(len(r.buf) - r.off)
	if remaining < frame.HeaderSize {
		return frame.HeaderSize - remaining
	}
	h, err := frame.DecodeHeader(r.buf[r.off : r.off+frame.HeaderSize])
	if err != nil {
		return 0
	}
	fullLen, ok := h.FullLen()
	if !ok || remaining >= fullLen {
		return 0
	}
	return fullLen - remaining
}

// Failed returns the latched fatal error, if any.
func (r *Reassembler) Failed() error {
	return r.failed
}

func (r *Reassembler) fail(cause error) error {
	r.failed = fmt.Errorf("%w: %w", ErrStreamFailed, cause)
	r.buf = nil
	r.off = 0
	return cause
}

// compact discards the consumed prefix. Only called at frame boundaries,
// so no resumption state is lost.
func (r *Reassembler) compact() {
	if r.off == 0 {
		return
	}
	r.base += uint64(r.off)
	n := copy(r.buf, r.buf[r.off:])
	r.buf = r.buf[:n]
	r.off = 0
}
