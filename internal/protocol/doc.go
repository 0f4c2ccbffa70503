// Package protocol owns the wire contract and decoding primitives for the
// aspen request/response protocol.
//
// Ownership boundary:
// - frame/header primitives (frame subpackage)
// - stream reassembly (stream subpackage)
// - payload variant decoding and diagnostics
// - direction classification by connection topology
//
// The package is a pure transformation from delivered bytes to structured
// messages; it performs no I/O and no rendering of its own.
package protocol
