package protocol

import "net/netip"

// Flow is the endpoint metadata of one delivered chunk.
type Flow struct {
	Src netip.AddrPort
	Dst netip.AddrPort
}

// Classify maps a flow to Request or Response: traffic addressed to the
// well-known server endpoint is a request, everything else a response.
//
// Known limitation: the heuristic breaks behind intermediary relays and for
// loopback-to-self traffic where both endpoints equal the server endpoint.
// The protocol carries no in-band direction flag, so this is not inferable
// from payload content.
func Classify(flow Flow, server netip.AddrPort) Direction {
	if flow.Dst == server {
		return DirRequest
	}
	return DirResponse
}
