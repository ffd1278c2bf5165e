// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package session

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ice9proj/ice9/internal/frame"
)

// ErrProtocolViolation is returned by DrainInbound when an inbound frame
// is not legal in the session's current state, or the command byte is
// unrecognized. Per the recommended resolution of the source's own
// ambiguity here, setup frames received outside Setup are also treated as
// violations rather than silently accepted or ignored.
var ErrProtocolViolation = errors.New("session: protocol violation")

// DrainInbound parses and dispatches as many frames as the receive buffer
// currently holds, stopping when the buffer holds only an incomplete
// frame, when a non-empty stdin write stalls waiting on an in-flight
// write, or when a frame can't be processed. A non-nil return means the
// session must be destroyed; the caller decides how to log it (a bare
// ErrProtocolViolation against a wrapped spawn failure read differently).
func (s *Session) DrainInbound() error {
	for {
		f, consumed, err := frame.TryParse(s.recvBuf)
		if err != nil {
			return nil
		}

		stall, destroyReason := s.dispatch(f)
		if stall {
			return nil
		}

		s.compactRecv(consumed)
		if destroyReason != nil {
			return destroyReason
		}
	}
}

// dispatch interprets one already-parsed frame. stall is true only for a
// non-empty 'I' frame that must be left at the head of the buffer because
// a stdin write is already in flight.
func (s *Session) dispatch(f frame.Frame) (stall bool, destroyReason error) {
	switch f.Command {
	case frame.CmdSetApplicationPath:
		if s.State != StateSetup {
			return false, ErrProtocolViolation
		}
		str := string(f.Payload)
		s.ApplicationPath = &str
		return false, nil

	case frame.CmdSetCommandLine:
		if s.State != StateSetup {
			return false, ErrProtocolViolation
		}
		str := string(f.Payload)
		s.CommandLine = &str
		return false, nil

	case frame.CmdSetWorkingDir:
		if s.State != StateSetup {
			return false, ErrProtocolViolation
		}
		str := string(f.Payload)
		s.WorkingDirectory = &str
		return false, nil

	case frame.CmdExecute:
		if s.State != StateSetup {
			return false, ErrProtocolViolation
		}
		if err := s.Execute(); err != nil {
			return false, errors.Wrap(err, "execute")
		}
		return false, nil

	case frame.CmdStdin:
		if s.State != StateRunning {
			return false, ErrProtocolViolation
		}
		if len(f.Payload) == 0 {
			if s.StdinPipe != nil {
				s.StdinPipe.Close()
				s.StdinPipe = nil
			}
			return false, nil
		}
		if s.StdinPipe == nil {
			// The original's connection_read has no else branch for this
			// case: a write arriving after stdin is already closed is
			// silently discarded, not a protocol violation.
			return false, nil
		}
		if s.StdinPipe.Pending() {
			return true, nil
		}
		payload := append([]byte(nil), f.Payload...)
		s.StdinPipe.InitiateWrite(payload)
		return false, nil

	default:
		return false, ErrProtocolViolation
	}
}

// emit appends one outbound frame to the send buffer. The multiplexor's
// backpressure gates guarantee the space is already reserved before this
// is ever called from a pipe-completion handler; a failure here means a
// gate was computed incorrectly, which is an internal impossibility.
func (s *Session) emit(cmd byte, payload []byte) {
	out, err := frame.Encode(s.sendBuf, cmd, payload)
	if err != nil {
		panic(errors.Wrap(err, "send buffer backpressure gate was insufficient"))
	}
	s.sendBuf = out
}

// emitExit appends the 'X' frame, the last frame a session ever sends.
func (s *Session) emitExit(code int) {
	var payload [4]byte
	binary.LittleEndian.PutUint32(payload[:], uint32(int32(code)))
	s.emit(frame.CmdExit, payload[:])
	s.xSent = true
}
