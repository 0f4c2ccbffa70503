package protocol

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aspenlabs/aspentap/internal/protocol/frame"
)

func payloadWith(reqID uint64, body []byte) []byte {
	buf := make([]byte, frame.ReqIDSize+len(body))
	binary.BigEndian.PutUint64(buf[:8], reqID)
	copy(buf[8:], body)
	return buf
}

func headerFor(kind frame.Kind, payload []byte) frame.Header {
	return frame.Header{Kind: kind, PayloadLen: uint64(len(payload))}
}

func decodeOne(t *testing.T, dir Direction, kind frame.Kind, reqID uint64, body []byte, opts Options) Result {
	t.Helper()
	payload := payloadWith(reqID, body)
	return Decode(dir, headerFor(kind, payload), payload, ByteRange{Start: 0, End: uint64(frame.HeaderSize + len(payload))}, opts)
}

func requireMessage(t *testing.T, res Result) *Message {
	t.Helper()
	require.NotNil(t, res.Msg, "expected a decoded message, diags=%v", res.Diags)
	return res.Msg
}

func requireErrorDiag(t *testing.T, res Result, message string) {
	t.Helper()
	require.Nil(t, res.Msg)
	require.Len(t, res.Diags, 1)
	assert.Equal(t, SeverityError, res.Diags[0].Severity)
	assert.Equal(t, message, res.Diags[0].Message)
}

func TestDecodePayloadTooShortForReqID(t *testing.T) {
	res := Decode(DirRequest, frame.Header{Kind: frame.KindBeRead, PayloadLen: 5},
		[]byte{1, 2, 3, 4, 5}, ByteRange{Start: 0, End: 14}, DefaultOptions())
	requireErrorDiag(t, res, "payload too short for request id")
	assert.Equal(t, uint64(14), res.Diags[0].Range.End)
}

func TestDecodeBeReadRequest(t *testing.T) {
	res := decodeOne(t, DirRequest, frame.KindBeRead, 42, []byte("abc"), DefaultOptions())
	msg := requireMessage(t, res)
	assert.Equal(t, uint64(42), msg.ReqID)
	assert.Equal(t, BeReadRequest{Substring: "abc"}, msg.Body)
	assert.Empty(t, res.Diags)
}

func TestDecodeBeReadRequestEmptyBody(t *testing.T) {
	res := decodeOne(t, DirRequest, frame.KindBeRead, 1, nil, DefaultOptions())
	requireErrorDiag(t, res, "be_read request body must be at least 1 byte")
}

func TestDecodeLcReadRequest(t *testing.T) {
	body := make([]byte, 8)
	binary.BigEndian.PutUint64(body, 7)
	res := decodeOne(t, DirRequest, frame.KindLcRead, 42, body, DefaultOptions())
	msg := requireMessage(t, res)
	assert.Equal(t, uint64(42), msg.ReqID)
	assert.Equal(t, LcReadRequest{ID: 7}, msg.Body)
}

func TestDecodeLcReadRequestWrongLength(t *testing.T) {
	for _, n := range []int{0, 7, 9, 16} {
		res := decodeOne(t, DirRequest, frame.KindLcRead, 1, make([]byte, n), DefaultOptions())
		requireErrorDiag(t, res, "lc_read request id must be exactly 8 bytes")
	}
}

func TestDecodeLcWriteRequest(t *testing.T) {
	body := make([]byte, 8)
	binary.BigEndian.PutUint64(body, 31)
	body = append(body, "carol"...)
	res := decodeOne(t, DirRequest, frame.KindLcWrite, 9, body, DefaultOptions())
	msg := requireMessage(t, res)
	assert.Equal(t, LcWriteRequest{ID: 31, Username: "carol"}, msg.Body)
}

func TestDecodeLcWriteRequestEmptyUsername(t *testing.T) {
	// A zero-length username is a valid empty string, not an error.
	res := decodeOne(t, DirRequest, frame.KindLcWrite, 9, make([]byte, 8), DefaultOptions())
	msg := requireMessage(t, res)
	assert.Equal(t, LcWriteRequest{ID: 0, Username: ""}, msg.Body)
	assert.Empty(t, res.Diags)
}

func TestDecodeLcWriteRequestShortBody(t *testing.T) {
	res := decodeOne(t, DirRequest, frame.KindLcWrite, 9, make([]byte, 7), DefaultOptions())
	requireErrorDiag(t, res, "lc_write request body must be at least 8 bytes")
}

func TestDecodeBeReadResponse(t *testing.T) {
	body := make([]byte, 8)
	binary.BigEndian.PutUint64(body, 1234)
	res := decodeOne(t, DirResponse, frame.KindBeRead, 42, body, DefaultOptions())
	msg := requireMessage(t, res)
	assert.Equal(t, BeReadResponse{Freq: 1234}, msg.Body)
}

func TestDecodeBeReadResponseWrongLength(t *testing.T) {
	res := decodeOne(t, DirResponse, frame.KindBeRead, 42, make([]byte, 9), DefaultOptions())
	requireErrorDiag(t, res, "be_read response freq must be exactly 8 bytes")
}

func TestDecodeLcResponseNone(t *testing.T) {
	for _, kind := range []frame.Kind{frame.KindLcRead, frame.KindLcWrite} {
		res := decodeOne(t, DirResponse, kind, 3, []byte{0}, DefaultOptions())
		msg := requireMessage(t, res)
		assert.Equal(t, LcResponse{Present: false}, msg.Body)
		assert.Empty(t, res.Diags)
	}
}

func TestDecodeLcResponseSome(t *testing.T) {
	res := decodeOne(t, DirResponse, frame.KindLcRead, 3, append([]byte{1}, "dave"...), DefaultOptions())
	msg := requireMessage(t, res)
	assert.Equal(t, LcResponse{Present: true, Username: "dave"}, msg.Body)
}

func TestDecodeLcResponseSomeEmptyUsername(t *testing.T) {
	// Tag 1 with zero trailing bytes decodes to the empty string.
	res := decodeOne(t, DirResponse, frame.KindLcWrite, 3, []byte{1}, DefaultOptions())
	msg := requireMessage(t, res)
	assert.Equal(t, LcResponse{Present: true, Username: ""}, msg.Body)
	assert.Empty(t, res.Diags)
}

func TestDecodeLcResponseEmptyBody(t *testing.T) {
	res := decodeOne(t, DirResponse, frame.KindLcRead, 3, nil, DefaultOptions())
	requireErrorDiag(t, res, "response body missing option tag")
}

func TestDecodeLcResponseBadTag(t *testing.T) {
	res := decodeOne(t, DirResponse, frame.KindLcRead, 3, []byte{2, 'x'}, DefaultOptions())
	requireErrorDiag(t, res, "unknown option tag")
}

func TestDecodeLcResponseTrailingAfterNone(t *testing.T) {
	res := decodeOne(t, DirResponse, frame.KindLcRead, 3, []byte{0, 'x', 'y'}, DefaultOptions())
	msg := requireMessage(t, res)
	assert.Equal(t, LcResponse{Present: false}, msg.Body)
	require.Len(t, res.Diags, 1)
	assert.Equal(t, SeverityWarning, res.Diags[0].Severity)
	assert.Equal(t, "trailing bytes after none option tag", res.Diags[0].Message)

	quiet := DefaultOptions()
	quiet.WarnTrailingAfterNone = false
	res = decodeOne(t, DirResponse, frame.KindLcRead, 3, []byte{0, 'x', 'y'}, quiet)
	requireMessage(t, res)
	assert.Empty(t, res.Diags)
}

func TestDecodeUnknownKind(t *testing.T) {
	res := decodeOne(t, DirRequest, frame.Kind(255), 77, []byte{1, 2, 3}, DefaultOptions())
	msg := requireMessage(t, res)
	assert.Equal(t, uint64(77), msg.ReqID, "req_id still decodes for unknown kinds")
	assert.Equal(t, UnknownBody{Raw: []byte{1, 2, 3}}, msg.Body)
	require.Len(t, res.Diags, 1)
	assert.Equal(t, SeverityWarning, res.Diags[0].Severity)
	assert.Equal(t, "unknown message type", res.Diags[0].Message)
}

func TestDecodeTextStrictUTF8(t *testing.T) {
	invalid := []byte{0xff, 0xfe}

	strict := DefaultOptions()
	strict.StrictUTF8 = true
	res := decodeOne(t, DirRequest, frame.KindBeRead, 1, invalid, strict)
	requireErrorDiag(t, res, "text field is not valid utf-8")

	// Permissive mode replaces each invalid run with U+FFFD.
	res = decodeOne(t, DirRequest, frame.KindBeRead, 1, invalid, DefaultOptions())
	msg := requireMessage(t, res)
	assert.Equal(t, BeReadRequest{Substring: "�"}, msg.Body)
}
