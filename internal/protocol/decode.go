package protocol

import (
	"encoding/binary"
	"strings"
	"unicode/utf8"

	"github.com/aspenlabs/aspentap/internal/protocol/frame"
)

// Options selects the decoder's permissiveness knobs.
type Options struct {
	// StrictUTF8 rejects text fields containing invalid UTF-8 as malformed.
	// When unset, invalid sequences are replaced with U+FFFD.
	StrictUTF8 bool

	// WarnTrailingAfterNone attaches a warning when a response carries
	// bytes after a none option tag. The message is still produced either
	// way; the trailing bytes are ignored.
	WarnTrailingAfterNone bool
}

// DefaultOptions mirrors the peer implementations: lossy text decoding,
// trailing bytes after a none tag flagged but tolerated.
func DefaultOptions() Options {
	return Options{
		StrictUTF8:            false,
		WarnTrailingAfterNone: true,
	}
}

// Decode validates payload against the (direction, kind) shape contract and
// produces a typed message, a diagnostic, or both. The frame is considered
// structurally consumed regardless of the outcome; decoding errors here are
// never fatal to the stream.
func Decode(dir Direction, h frame.Header, payload []byte, rng ByteRange, opts Options) Result {
	if len(payload) < frame.ReqIDSize {
		return errorResult(rng, diagPayloadTooShort)
	}
	reqID := binary.BigEndian.Uint64(payload[:frame.ReqIDSize])
	body := payload[frame.ReqIDSize:]

	msg := &Message{
		Header:    h,
		ReqID:     reqID,
		Direction: dir,
		Range:     rng,
	}

	if !h.Kind.Known() {
		raw := make([]byte, len(body))
		copy(raw, body)
		msg.Body = UnknownBody{Raw: raw}
		return Result{
			Msg:   msg,
			Diags: []Diagnostic{{Severity: SeverityWarning, Message: diagUnknownKind, Range: rng}},
		}
	}

	switch dir {
	case DirRequest:
		return decodeRequest(msg, body, rng, opts)
	default:
		return decodeResponse(msg, body, rng, opts)
	}
}

func decodeRequest(msg *Message, body []byte, rng ByteRange, opts Options) Result {
	switch msg.Header.Kind {
	case frame.KindBeRead:
		if len(body) < 1 {
			return errorResult(rng, diagEmptySubstring)
		}
		substring, ok := decodeText(body, opts)
		if !ok {
			return errorResult(rng, diagInvalidUTF8)
		}
		msg.Body = BeReadRequest{Substring: substring}
		return Result{Msg: msg}

	case frame.KindLcRead:
		if len(body) != 8 {
			return errorResult(rng, diagBadIDLength)
		}
		msg.Body = LcReadRequest{ID: binary.BigEndian.Uint64(body)}
		return Result{Msg: msg}

	default: // frame.KindLcWrite
		if len(body) < 8 {
			return errorResult(rng, diagShortWriteBody)
		}
		username, ok := decodeText(body[8:], opts)
		if !ok {
			return errorResult(rng, diagInvalidUTF8)
		}
		msg.Body = LcWriteRequest{
			ID:       binary.BigEndian.Uint64(body[:8]),
			Username: username,
		}
		return Result{Msg: msg}
	}
}

func decodeResponse(msg *Message, body []byte, rng ByteRange, opts Options) Result {
	if msg.Header.Kind == frame.KindBeRead {
		if len(body) != 8 {
			return errorResult(rng, diagBadFreqLength)
		}
		msg.Body = BeReadResponse{Freq: binary.BigEndian.Uint64(body)}
		return Result{Msg: msg}
	}

	// lc_read and lc_write responses share one schema.
	if len(body) < 1 {
		return errorResult(rng, diagMissingOptionTag)
	}
	switch body[0] {
	case 0:
		msg.Body = LcResponse{Present: false}
		res := Result{Msg: msg}
		if len(body) > 1 && opts.WarnTrailingAfterNone {
			res.Diags = []Diagnostic{{Severity: SeverityWarning, Message: diagTrailingAfterNone, Range: rng}}
		}
		return res
	case 1:
		username, ok := decodeText(body[1:], opts)
		if !ok {
			return errorResult(rng, diagInvalidUTF8)
		}
		msg.Body = LcResponse{Present: true, Username: username}
		return Result{Msg: msg}
	default:
		return errorResult(rng, diagBadOptionTag)
	}
}

func decodeText(b []byte, opts Options) (string, bool) {
	if utf8.Valid(b) {
		return string(b), true
	}
	if opts.StrictUTF8 {
		return "", false
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError)), true
}

func errorResult(rng ByteRange, message string) Result {
	return Result{
		Diags: []Diagnostic{{Severity: SeverityError, Message: message, Range: rng}},
	}
}
