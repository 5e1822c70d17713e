// File: driver/rowwire/frame.go
// Package rowwire implements the framed row-stream protocol with frame size
// enforcement.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Wire format: each frame is a 4-byte big-endian length (covering type and
// payload), a 1-byte type, and the payload. A row payload is a sequence of
// cells, each a 4-byte big-endian length followed by the canonical cell
// bytes.

package rowwire

import (
	"encoding/binary"
	"errors"
)

// Frame types.
const (
	FrameQuery byte = 0x01 // client -> server: query text
	FrameRow   byte = 0x02 // server -> client: one encoded row
	FrameDone  byte = 0x03 // server -> client: end of result set
	FrameError byte = 0x04 // server -> client: failure message
)

// MaxFramePayload defines the maximum allowed payload size for a single
// frame. This limit protects against excessively large frames that could
// exhaust memory.
const MaxFramePayload = 1 << 20 // 1 MiB

const frameHeaderLen = 5

// AppendFrame appends one encoded frame to dst and returns the result.
func AppendFrame(dst []byte, typ byte, payload []byte) []byte {
	var hdr [frameHeaderLen]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(payload)+1))
	hdr[4] = typ
	dst = append(dst, hdr[:]...)
	return append(dst, payload...)
}

// DecodeFrameFromBytes parses one frame from raw, enforcing maximum payload
// size. Returns type, payload, consumed bytes, and error. If the frame is
// incomplete, returns (0, nil, 0, nil).
func DecodeFrameFromBytes(raw []byte) (byte, []byte, int, error) {
	if len(raw) < frameHeaderLen {
		return 0, nil, 0, nil // Incomplete
	}
	length := int(binary.BigEndian.Uint32(raw[:4]))
	if length < 1 {
		return 0, nil, 0, errors.New("frame length must cover the type byte")
	}
	if length-1 > MaxFramePayload {
		return 0, nil, 0, errors.New("frame payload exceeds maximum allowed size")
	}
	totalLen := 4 + length
	if len(raw) < totalLen {
		return 0, nil, 0, nil // Incomplete
	}
	return raw[4], raw[frameHeaderLen:totalLen], totalLen, nil
}

// AppendRowPayload appends the cell encoding of one row to dst.
func AppendRowPayload(dst []byte, cells [][]byte) []byte {
	var n [4]byte
	for _, cell := range cells {
		binary.BigEndian.PutUint32(n[:], uint32(len(cell)))
		dst = append(dst, n[:]...)
		dst = append(dst, cell...)
	}
	return dst
}

// ParseRowPayload splits a row payload back into cells.
func ParseRowPayload(payload []byte) ([][]byte, error) {
	var cells [][]byte
	for len(payload) > 0 {
		if len(payload) < 4 {
			return nil, errors.New("truncated cell header")
		}
		n := int(binary.BigEndian.Uint32(payload[:4]))
		payload = payload[4:]
		if len(payload) < n {
			return nil, errors.New("truncated cell body")
		}
		cell := make([]byte, n)
		copy(cell, payload[:n])
		cells = append(cells, cell)
		payload = payload[n:]
	}
	return cells, nil
}
