// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package session

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ice9proj/ice9/internal/asyncpipe"
	"github.com/ice9proj/ice9/internal/frame"
)

// OnStdoutResult processes a completed stdout read. A non-nil return
// means the session must be destroyed.
func (s *Session) OnStdoutResult(res asyncpipe.Result) error {
	s.StdoutPipe.Consumed()
	eof, err := s.handleOutputResult(frame.CmdStdout, res)
	if err != nil {
		return err
	}
	if eof {
		s.stdoutEOF = true
		s.StdoutPipe.Close()
		s.StdoutPipe = nil
	}
	return nil
}

// OnStderrResult processes a completed stderr read.
func (s *Session) OnStderrResult(res asyncpipe.Result) error {
	s.StderrPipe.Consumed()
	eof, err := s.handleOutputResult(frame.CmdStderr, res)
	if err != nil {
		return err
	}
	if eof {
		s.stderrEOF = true
		s.StderrPipe.Close()
		s.StderrPipe = nil
	}
	return nil
}

// handleOutputResult folds a read completion into an outbound frame, or
// reports end-of-file to the caller to act on. A zero-length, non-EOF read
// is silently discarded per spec; the pipe is simply re-armed by the
// multiplexor on its next pass.
func (s *Session) handleOutputResult(cmd byte, res asyncpipe.Result) (eof bool, err error) {
	if res.Err == asyncpipe.ErrBrokenPipe {
		s.emit(cmd, nil)
		return true, nil
	}
	if res.Err != nil {
		return false, errors.Wrap(res.Err, "read from child")
	}
	if res.N == 0 {
		return false, nil
	}
	s.emit(cmd, res.Data)
	return false, nil
}

// OnStdinResult processes a completed stdin write.
func (s *Session) OnStdinResult(res asyncpipe.Result) error {
	s.StdinPipe.Consumed()
	if res.Err != nil {
		return errors.Wrap(res.Err, "write to child stdin")
	}
	return nil
}

// StdoutEOF and StderrEOF report whether each output pipe has already
// signalled end-of-file, the condition the multiplexor's child-exit gate
// depends on alongside buffer space.
func (s *Session) StdoutEOF() bool { return s.stdoutEOF }
func (s *Session) StderrEOF() bool { return s.stderrEOF }

// OnChildExit processes the child-supervisor goroutine's delivered exit
// status: emits the 'X' frame and transitions the session to Closing.
func (s *Session) OnChildExit(res ExitResult) {
	if res.Err != nil {
		s.Log.Warn("child wait reported an error", zap.Error(res.Err))
	}
	s.emitExit(res.Code)
	s.Child = nil
	s.ExitCh = nil
	s.State = StateClosing
}
