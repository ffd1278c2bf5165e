// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

// Package session holds the per-connection state machine: the fixed-size
// receive/send buffers, the three optional setup strings, the child
// process, and the three pipe handles bound to its standard streams. All
// mutation happens from the multiplexor goroutine; nothing here takes a
// lock.
package session

import (
	"net"
	"os/exec"

	"go.uber.org/zap"

	"github.com/ice9proj/ice9/internal/asyncpipe"
	"github.com/ice9proj/ice9/internal/stats"
)

// Buffer and read-size constants, carried over from the original server's
// fixed allocations.
const (
	RecvBufferCapacity = 72 * 1024
	SendBufferCapacity = 128 * 1024
	MaxPipeRead        = 32 * 1024
)

// State is a session's place in the Setup -> Running -> Closing -> destroy
// lifecycle.
type State int

const (
	StateSetup State = iota
	StateRunning
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateRunning:
		return "running"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Session is the complete state bound to one TCP connection.
type Session struct {
	ID    uint64
	State State
	Conn  net.Conn
	Log   *zap.Logger

	recvBuf []byte
	sendBuf []byte

	ApplicationPath  *string
	CommandLine      *string
	WorkingDirectory *string

	Child  *exec.Cmd
	ExitCh chan ExitResult

	StdinPipe  *asyncpipe.WritePipe
	StdoutPipe *asyncpipe.ReadPipe
	StderrPipe *asyncpipe.ReadPipe

	stdoutEOF bool
	stderrEOF bool

	xSent bool

	// Counters is optional; when set by the owning multiplexor, Execute
	// reports child-spawn outcomes to it. Nil is safe and disables
	// reporting, which is why every existing caller of New doesn't need
	// to be touched to keep building.
	Counters *stats.Counters
}

// ExitResult is what the child-supervisor goroutine delivers once the
// child's process exits.
type ExitResult struct {
	Code int
	Err  error
}

// New creates a session in Setup state, bound to conn.
func New(id uint64, conn net.Conn, log *zap.Logger) *Session {
	return &Session{
		ID:      id,
		State:   StateSetup,
		Conn:    conn,
		Log:     log.With(zap.Uint64("session", id)),
		recvBuf: make([]byte, 0, RecvBufferCapacity),
		sendBuf: make([]byte, 0, SendBufferCapacity),
	}
}

// RecvSpareCapacity is how many more bytes the receive buffer can hold.
func (s *Session) RecvSpareCapacity() int {
	return cap(s.recvBuf) - len(s.recvBuf)
}

// RecvWriteTail returns the slice a socket read should land in, sized to
// the current spare capacity.
func (s *Session) RecvWriteTail() []byte {
	n := len(s.recvBuf)
	return s.recvBuf[n:cap(s.recvBuf)]
}

// CommitRecv records that n freshly read bytes now occupy the tail
// returned by RecvWriteTail.
func (s *Session) CommitRecv(n int) {
	s.recvBuf = s.recvBuf[:len(s.recvBuf)+n]
}

// compactRecv drops n bytes from the head of the receive buffer, sliding
// the remainder down - the Go equivalent of the source's memmove-based
// frame drain.
func (s *Session) compactRecv(n int) {
	remaining := copy(s.recvBuf, s.recvBuf[n:])
	s.recvBuf = s.recvBuf[:remaining]
}

// SendUsed is the number of bytes currently queued to go out on the socket.
func (s *Session) SendUsed() int { return len(s.sendBuf) }

// SendSpareCapacity is how much room is left to append outbound frames.
func (s *Session) SendSpareCapacity() int {
	return cap(s.sendBuf) - len(s.sendBuf)
}

// SendReadHead returns the bytes ready to be written to the socket.
func (s *Session) SendReadHead() []byte { return s.sendBuf }

// ConsumeSend drops n flushed bytes from the head of the send buffer.
func (s *Session) ConsumeSend(n int) {
	remaining := copy(s.sendBuf, s.sendBuf[n:])
	s.sendBuf = s.sendBuf[:remaining]
}

// XSent reports whether the exit frame has already gone out.
func (s *Session) XSent() bool { return s.xSent }

// ReadyForDestroy is true once a Closing session has drained its send
// buffer completely.
func (s *Session) ReadyForDestroy() bool {
	return s.State == StateClosing && len(s.sendBuf) == 0
}

// Close releases every resource the session owns: child pipes, a still
// running child, and the socket. Best-effort; nothing is returned, since by
// the time Close is called the session is already being torn down. Kill and
// socket-close failures are logged; pipe-close errors are ignored.
func (s *Session) Close() {
	if s.StdinPipe != nil {
		s.StdinPipe.Close()
		s.StdinPipe = nil
	}
	if s.StdoutPipe != nil {
		s.StdoutPipe.Close()
		s.StdoutPipe = nil
	}
	if s.StderrPipe != nil {
		s.StderrPipe.Close()
		s.StderrPipe = nil
	}
	if s.Child != nil && s.Child.Process != nil {
		if err := s.Child.Process.Kill(); err != nil {
			s.Log.Debug("forced termination failed", zap.Error(err))
		}
	}
	if err := s.Conn.Close(); err != nil {
		s.Log.Debug("socket close failed", zap.Error(err))
	}
}
