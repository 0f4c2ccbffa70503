// Package capture reads and writes recorded chunk streams so a connection's
// bytes can be replayed through the decoder offline. One recording holds
// the chunks of a single TCP connection in received order.
//
// File layout, all integers big-endian:
//
//	magic   "ATAP" (4 bytes)
//	version u8
//	client  u16 length + addr:port text
//	server  u16 length + addr:port text
//	records [ dir u8 (0 = client->server, 1 = server->client)
//	          len u32
//	          len bytes ]*
package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/netip"
)

const (
	Version = 1

	dirToServer   = 0
	dirFromServer = 1

	// maxChunkBytes bounds one record; recordings chunk at transport
	// granularity, far below this.
	maxChunkBytes = 16 * 1024 * 1024
)

var magic = [4]byte{'A', 'T', 'A', 'P'}

var (
	ErrBadMagic      = errors.New("capture: bad magic")
	ErrBadVersion    = errors.New("capture: unsupported version")
	ErrBadDirection  = errors.New("capture: invalid direction byte")
	ErrChunkTooLarge = errors.New("capture: chunk exceeds record limit")
	ErrTruncated     = errors.New("capture: truncated recording")
)

// Chunk is one delivered byte run with its endpoint metadata.
type Chunk struct {
	Src  netip.AddrPort
	Dst  netip.AddrPort
	Data []byte
}

// Reader iterates the chunks of one recording.
type Reader struct {
	r      io.Reader
	client netip.AddrPort
	server netip.AddrPort
}

func NewReader(r io.Reader) (*Reader, error) {
	var head [5]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, ErrTruncated
	}
	if [4]byte(head[:4]) != magic {
		return nil, ErrBadMagic
	}
	if head[4] != Version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, head[4])
	}

	client, err := readAddr(r)
	if err != nil {
		return nil, err
	}
	server, err := readAddr(r)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, client: client, server: server}, nil
}

// Client and Server return the recorded endpoints.
func (r *Reader) Client() netip.AddrPort { return r.client }
func (r *Reader) Server() netip.AddrPort { return r.server }

// Next returns the next chunk in received order, or io.EOF after the last.
func (r *Reader) Next() (Chunk, error) {
	var head [5]byte
	if _, err := io.ReadFull(r.r, head[:1]); err != nil {
		if errors.Is(err, io.EOF) {
			return Chunk{}, io.EOF
		}
		return Chunk{}, ErrTruncated
	}
	if _, err := io.ReadFull(r.r, head[1:]); err != nil {
		return Chunk{}, ErrTruncated
	}

	length := binary.BigEndian.Uint32(head[1:5])
	if length > maxChunkBytes {
		return Chunk{}, fmt.Errorf("%w: %d bytes", ErrChunkTooLarge, length)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return Chunk{}, ErrTruncated
	}

	switch head[0] {
	case dirToServer:
		return Chunk{Src: r.client, Dst: r.server, Data: data}, nil
	case dirFromServer:
		return Chunk{Src: r.server, Dst: r.client, Data: data}, nil
	default:
		return Chunk{}, fmt.Errorf("%w: 0x%02x", ErrBadDirection, head[0])
	}
}

// Writer produces recordings consumable by Reader.
type Writer struct {
	w      io.Writer
	server netip.AddrPort
}

func NewWriter(w io.Writer, client, server netip.AddrPort) (*Writer, error) {
	head := make([]byte, 0, 5)
	head = append(head, magic[:]...)
	head = append(head, Version)
	if _, err := w.Write(head); err != nil {
		return nil, err
	}
	if err := writeAddr(w, client); err != nil {
		return nil, err
	}
	if err := writeAddr(w, server); err != nil {
		return nil, err
	}
	return &Writer{w: w, server: server}, nil
}

// Record appends one chunk. Direction is derived from dst.
func (w *Writer) Record(dst netip.AddrPort, data []byte) error {
	if len(data) > maxChunkBytes {
		return fmt.Errorf("%w: %d bytes", ErrChunkTooLarge, len(data))
	}
	head := make([]byte, 5)
	if dst == w.server {
		head[0] = dirToServer
	} else {
		head[0] = dirFromServer
	}
	binary.BigEndian.PutUint32(head[1:], uint32(len(data)))
	if _, err := w.w.Write(head); err != nil {
		return err
	}
	_, err := w.w.Write(data)
	return err
}

func readAddr(r io.Reader) (netip.AddrPort, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return netip.AddrPort{}, ErrTruncated
	}
	buf := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
	if _, err := io.ReadFull(r, buf); err != nil {
		return netip.AddrPort{}, ErrTruncated
	}
	addr, err := netip.ParseAddrPort(string(buf))
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("capture: invalid endpoint %q: %w", string(buf), err)
	}
	return addr, nil
}

func writeAddr(w io.Writer, addr netip.AddrPort) error {
	text := addr.String()
	buf := make([]byte, 2+len(text))
	binary.BigEndian.PutUint16(buf[:2], uint16(len(text)))
	copy(buf[2:], text)
	_, err := w.Write(buf)
	return err
}
