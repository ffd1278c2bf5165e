// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package main

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/pkg/errors"

	"github.com/ice9proj/ice9/internal/frame"
)

// frameReader incrementally reads complete frames off a connection,
// buffering partial reads the same way the server's receive buffer does.
type frameReader struct {
	conn net.Conn
	buf  []byte
}

func newFrameReader(conn net.Conn) *frameReader {
	return &frameReader{conn: conn, buf: make([]byte, 0, 32*1024)}
}

// next blocks until a complete frame is available, or returns the read
// error (including io.EOF) once the connection is gone.
func (r *frameReader) next() (frame.Frame, error) {
	for {
		if f, consumed, err := frame.TryParse(r.buf); err == nil {
			r.buf = append(r.buf[:0], r.buf[consumed:]...)
			return f, nil
		}

		tail := make([]byte, 32*1024)
		n, err := r.conn.Read(tail)
		if n > 0 {
			r.buf = append(r.buf, tail[:n]...)
			continue
		}
		if err != nil {
			return frame.Frame{}, err
		}
	}
}

// sendFrame writes one frame to conn.
func sendFrame(conn net.Conn, cmd byte, payload []byte) error {
	out, err := frame.Encode(make([]byte, 0, frame.HeaderSize+len(payload)), cmd, payload)
	if err != nil {
		return errors.Wrap(err, "encode frame")
	}
	if _, err := conn.Write(out); err != nil {
		return errors.Wrap(err, "write frame")
	}
	return nil
}

// relayStdin copies the process's own stdin to the connection as a stream
// of I frames, chunked to the protocol's maximum payload, and sends one
// final empty I frame on EOF. Errors mid-stream are reported on errCh, not
// returned, since this runs in its own goroutine alongside the read loop.
func relayStdin(conn net.Conn, stdin io.Reader, errCh chan<- error) {
	buf := make([]byte, frame.MaxPayload)
	for {
		n, err := stdin.Read(buf)
		if n > 0 {
			if sendErr := sendFrame(conn, frame.CmdStdin, buf[:n]); sendErr != nil {
				errCh <- sendErr
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				errCh <- errors.Wrap(err, "read stdin")
				return
			}
			errCh <- sendFrame(conn, frame.CmdStdin, nil)
			return
		}
	}
}

// exitCode decodes an X frame's 4-byte signed little-endian payload.
func exitCode(f frame.Frame) (int, error) {
	if len(f.Payload) != 4 {
		return 0, errors.Errorf("exit frame has %d-byte payload, want 4", len(f.Payload))
	}
	return int(int32(binary.LittleEndian.Uint32(f.Payload))), nil
}
