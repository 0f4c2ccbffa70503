package frame

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// HeaderSize is the fixed message header: kind byte plus big-endian
	// payload length.
	HeaderSize = 9

	// ReqIDSize is the request id prefix carried by every payload.
	ReqIDSize = 8
)

// Kind is the message kind byte from the wire header.
type Kind uint8

const (
	KindBeRead  Kind = 6
	KindLcRead  Kind = 7
	KindLcWrite Kind = 8
)

// Known reports whether k is one of the enumerated protocol kinds.
func (k Kind) Known() bool {
	switch k {
	case KindBeRead, KindLcRead, KindLcWrite:
		return true
	}
	return false
}

func (k Kind) String() string {
	switch k {
	case KindBeRead:
		return "be_read"
	case KindLcRead:
		return "lc_read"
	case KindLcWrite:
		return "lc_write"
	}
	return fmt.Sprintf("unknown(0x%02x)", uint8(k))
}

// Header is the fixed wire header. PayloadLen is peer-controlled and must
// not be trusted until checked against Limits.
type Header struct {
	Kind       Kind
	PayloadLen uint64
}

// FullLen returns HeaderSize+PayloadLen. ok is false when the sum would
// overflow uint64.
func (h Header) FullLen() (uint64, bool) {
	if h.PayloadLen > math.MaxUint64-HeaderSize {
		return 0, false
	}
	return HeaderSize + h.PayloadLen, true
}

// DecodeHeader decodes the fixed 9-byte header. Any 9-byte input decodes;
// kind validity is judged downstream.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderSize {
		return Header{}, fmt.Errorf("frame: invalid fixed header length: %d", len(b))
	}
	return Header{
		Kind:       Kind(b[0]),
		PayloadLen: binary.BigEndian.Uint64(b[1:9]),
	}, nil
}

// Limits constrains reassembly memory use.
type Limits struct {
	MaxFrameBytes uint64
}

func DefaultLimits() Limits {
	return Limits{
		MaxFrameBytes: 8 * 1024 * 1024,
	}
}
