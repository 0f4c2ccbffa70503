package protocol

import (
	"net/netip"

	"github.com/aspenlabs/aspentap/internal/protocol/frame"
	"github.com/aspenlabs/aspentap/internal/protocol/stream"
)

// Conversation drives decoding for one TCP connection: a reassembler per
// direction plus the classification endpoint. It is not safe for concurrent
// use; independent conversations need no coordination.
type Conversation struct {
	server netip.AddrPort
	opts   Options

	request  *stream.Reassembler
	response *stream.Reassembler
}

func NewConversation(server netip.AddrPort, limits frame.Limits, opts Options) *Conversation {
	return &Conversation{
		server:   server,
		opts:     opts,
		request:  stream.New(limits),
		response: stream.New(limits),
	}
}

// Feed delivers one received chunk with its flow metadata. It returns the
// decode results of every frame the chunk completed, in stream order, plus
// the byte deficit of that direction's pending frame. A non-nil error is
// fatal for that direction's stream only; results already decoded are
// still returned.
func (c *Conversation) Feed(flow Flow, chunk []byte) ([]Result, uint64, error) {
	dir := Classify(flow, c.server)
	r := c.request
	if dir == DirResponse {
		r = c.response
	}

	frames, need, err := r.Feed(chunk)
	results := make([]Result, 0, len(frames))
	for _, f := range frames {
		rng := ByteRange{Start: f.Start, End: f.End}
		results = append(results, Decode(dir, f.Header, f.Payload, rng, c.opts))
	}
	return results, need, err
}

// Pending reports the byte deficit of the given direction's trailing
// incomplete frame.
func (c *Conversation) Pending(dir Direction) uint64 {
	r := c.request
	if dir == DirResponse {
		r = c.response
	}
	return r.Need()
}
