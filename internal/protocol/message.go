package protocol

import (
	"github.com/aspenlabs/aspentap/internal/protocol/frame"
)

// Direction tells which side of the conversation produced a message. The
// protocol carries no direction bit; see Classify.
type Direction uint8

const (
	DirRequest Direction = iota
	DirResponse
)

func (d Direction) String() string {
	if d == DirRequest {
		return "request"
	}
	return "response"
}

// Severity ranks a diagnostic.
type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// ByteRange is a half-open [Start, End) span of absolute stream offsets.
type ByteRange struct {
	Start uint64
	End   uint64
}

// Diagnostic describes malformed or unrecognized input. It is attached to
// the byte range it concerns and never replaces a frame.
type Diagnostic struct {
	Severity Severity
	Message  string
	Range    ByteRange
}

// Body is the decoded payload variant of one message.
type Body interface {
	isBody()
}

// BeReadRequest asks the server how many stored usernames contain Substring.
type BeReadRequest struct {
	Substring string
}

// LcReadRequest asks for the username stored under ID.
type LcReadRequest struct {
	ID uint64
}

// LcWriteRequest stores Username under ID. An empty Username is valid.
type LcWriteRequest struct {
	ID       uint64
	Username string
}

// BeReadResponse carries the substring match count.
type BeReadResponse struct {
	Freq uint64
}

// LcResponse is the shared response schema for lc_read and lc_write:
// an option tag and, when Present, the username (possibly empty).
type LcResponse struct {
	Present  bool
	Username string
}

// UnknownBody retains the raw body of a message whose kind is not
// enumerated. Bytes are kept opaque, never interpreted.
type UnknownBody struct {
	Raw []byte
}

func (BeReadRequest) isBody()  {}
func (LcReadRequest) isBody()  {}
func (LcWriteRequest) isBody() {}
func (BeReadResponse) isBody() {}
func (LcResponse) isBody()     {}
func (UnknownBody) isBody()    {}

// Message is one fully decoded frame. Immutable once constructed.
type Message struct {
	Header    frame.Header
	ReqID     uint64
	Direction Direction
	Body      Body
	Range     ByteRange
}

// Result pairs an optional decoded message with the diagnostics raised
// while decoding it. A message may carry non-fatal diagnostics; a
// malformed body yields diagnostics with no message.
type Result struct {
	Msg   *Message
	Diags []Diagnostic
}
