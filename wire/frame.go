// wire/frame.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// A frame is a fixed 12 byte big-endian header followed by the msgpack
// encoded message body:
//
//	magic   uint16
//	version uint8
//	schema  uint8
//	flags   uint8
//	        [3]byte reserved
//	length  uint32  (body bytes that follow)
const (
	Magic      uint16 = 0xA7C5
	Version    uint8  = 1
	HeaderSize        = 12

	// MaxFrameSize bounds the body length accepted by readers.
	MaxFrameSize = 1 << 20

	// Bodies larger than this are zstd compressed.
	compressThreshold = 1024
)

type Flags uint8

const (
	FlagZstd Flags = 1 << iota
)

// Header is the decoded fixed part of a frame.
type Header struct {
	Version uint8
	Schema  Schema
	Flags   Flags
	Length  uint32
}

var (
	zenc *zstd.Encoder
	zdec *zstd.Decoder
)

func init() {
	var err error
	if zenc, err = zstd.NewWriter(nil); err != nil {
		panic(err)
	}
	if zdec, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(4*MaxFrameSize)); err != nil {
		panic(err)
	}
}

// Encode returns the complete frame for m.
func Encode(m Message) ([]byte, error) {
	body, err := msgpack.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Schema(), err)
	}

	var flags Flags
	if len(body) > compressThreshold {
		body = zenc.EncodeAll(body, nil)
		flags |= FlagZstd
	}
	if len(body) > MaxFrameSize {
		return nil, fmt.Errorf("%s: %d bytes: %w", m.Schema(), len(body), ErrFrameTooLarge)
	}

	frame := make([]byte, HeaderSize, HeaderSize+len(body))
	putHeader(frame, Header{Version: Version, Schema: m.Schema(), Flags: flags, Length: uint32(len(body))})
	return append(frame, body...), nil
}

func putHeader(b []byte, h Header) {
	binary.BigEndian.PutUint16(b[0:2], Magic)
	b[2] = h.Version
	b[3] = byte(h.Schema)
	b[4] = byte(h.Flags)
	b[5], b[6], b[7] = 0, 0, 0
	binary.BigEndian.PutUint32(b[8:12], h.Length)
}

// ParseHeader validates and decodes a frame header.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, io.ErrUnexpectedEOF
	}
	if m := binary.BigEndian.Uint16(b[0:2]); m != Magic {
		return Header{}, fmt.Errorf("%#04x: %w", m, ErrBadMagic)
	}
	h := Header{
		Version: b[2],
		Schema:  Schema(b[3]),
		Flags:   Flags(b[4]),
		Length:  binary.BigEndian.Uint32(b[8:12]),
	}
	if h.Version != Version {
		return h, fmt.Errorf("%d: %w", h.Version, ErrBadVersion)
	}
	if h.Length > MaxFrameSize {
		return h, fmt.Errorf("%d bytes: %w", h.Length, ErrFrameTooLarge)
	}
	return h, nil
}

// Decode parses a single complete frame.
func Decode(frame []byte) (Message, error) {
	h, err := ParseHeader(frame)
	if err != nil {
		return nil, err
	}
	if len(frame)-HeaderSize != int(h.Length) {
		return nil, io.ErrUnexpectedEOF
	}
	return decodeBody(h, frame[HeaderSize:])
}

func decodeBody(h Header, body []byte) (Message, error) {
	m, err := newMessage(h.Schema)
	if err != nil {
		return nil, err
	}
	if h.Flags&FlagZstd != 0 {
		if body, err = zdec.DecodeAll(body, nil); err != nil {
			return nil, fmt.Errorf("%s: %w", h.Schema, err)
		}
	}
	if err := msgpack.Unmarshal(body, m); err != nil {
		return nil, fmt.Errorf("%s: %w", h.Schema, err)
	}
	return deref(m), nil
}

// WriteMessage writes m to w as one frame using a single Write call, so
// that frames of up to PIPE_BUF bytes are written atomically to a FIFO.
func WriteMessage(w io.Writer, m Message) error {
	frame, err := Encode(m)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// ReadMessage reads the next frame from r. It returns io.EOF only when
// r is exhausted at a frame boundary; a frame cut short yields
// io.ErrUnexpectedEOF.
func ReadMessage(r io.Reader) (Message, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	h, err := ParseHeader(hdr[:])
	if err != nil {
		return nil, err
	}

	body := make([]byte, h.Length)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return decodeBody(h, body)
}
