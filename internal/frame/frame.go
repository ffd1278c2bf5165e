// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

// Package frame implements the wire codec for the ice9 protocol: a 3-byte
// header (command byte + little-endian uint16 payload length) followed by
// the payload itself. It is stateless with respect to any persistent data;
// it only ever reads from or appends to byte slices the caller owns.
package frame

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// HeaderSize is the fixed length of a frame header: one command byte
// followed by a little-endian uint16 payload length.
const HeaderSize = 3

// MaxPayload is the largest payload a single frame can carry.
const MaxPayload = 65535

// Client-to-server commands.
const (
	CmdSetApplicationPath byte = 'A'
	CmdSetCommandLine     byte = 'C'
	CmdSetWorkingDir      byte = 'W'
	CmdExecute            byte = 'E'
	CmdStdin              byte = 'I'
)

// Server-to-client commands.
const (
	CmdStdout byte = 'O'
	CmdStderr byte = 'E'
	CmdExit   byte = 'X'
)

// ErrIncomplete indicates the buffer does not yet hold a complete frame.
var ErrIncomplete = errors.New("frame: incomplete")

// ErrNoSpace indicates encode has no room left in the destination buffer.
var ErrNoSpace = errors.New("frame: no space in destination buffer")

// Frame is a parsed, self-contained view of one protocol message. Payload
// aliases the buffer it was parsed from; callers that need to retain it
// past the next buffer compaction must copy it out first.
type Frame struct {
	Command byte
	Payload []byte
}

// TryParse looks for one complete frame at the head of buf. It returns the
// parsed frame and the number of bytes that make it up (header + payload),
// which the caller should drain from the head of its receive buffer. If
// fewer than HeaderSize bytes are present, or the declared payload isn't
// fully buffered yet, it returns ErrIncomplete and the caller should stop
// parsing until more bytes arrive.
func TryParse(buf []byte) (f Frame, consumed int, err error) {
	if len(buf) < HeaderSize {
		return Frame{}, 0, ErrIncomplete
	}

	payloadLen := int(binary.LittleEndian.Uint16(buf[1:3]))
	total := HeaderSize + payloadLen

	if len(buf) < total {
		return Frame{}, 0, ErrIncomplete
	}

	return Frame{
		Command: buf[0],
		Payload: buf[HeaderSize:total],
	}, total, nil
}

// Encode appends a frame built from cmd and payload to the tail of out,
// returning the grown slice. It fails with ErrNoSpace if the frame would
// exceed cap(out), leaving out untouched.
func Encode(out []byte, cmd byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return out, errors.Errorf("frame: payload of %d bytes exceeds maximum of %d", len(payload), MaxPayload)
	}

	need := HeaderSize + len(payload)
	if cap(out)-len(out) < need {
		return out, ErrNoSpace
	}

	start := len(out)
	out = out[:start+need]
	out[start] = cmd
	binary.LittleEndian.PutUint16(out[start+1:start+3], uint16(len(payload)))
	copy(out[start+HeaderSize:], payload)

	return out, nil
}
