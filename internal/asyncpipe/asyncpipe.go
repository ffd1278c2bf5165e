// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

// Package asyncpipe is the concrete instantiation of the one-shot,
// event-signalled pipe contract the multiplexor depends on (initiate an
// operation, wait on a stable completion signal, consume the result, query
// whether an operation is in flight). At most one read or one write may be
// outstanding on a handle at a time; starting a second one before the first
// completes is a programming error and panics, the same disposition the
// multiplexor's other internal-impossibility cases get.
//
// Each handle is backed by a single goroutine per in-flight operation that
// performs exactly one blocking Read or Write and reports the outcome over
// a buffered channel. The channel itself stands in for the platform event
// object: a caller "waits" on a handle by selecting on Event(), and the
// value it receives off that channel is already the completed Result -
// there is no separate call to fetch it. The caller then calls Consumed to
// clear the in-flight flag before starting the next operation.
package asyncpipe

import (
	"errors"
	"io"

	pkgerrors "github.com/pkg/errors"
)

// ErrBrokenPipe is the normalized status for "the other end of the pipe is
// gone". On a read this is the ordinary end-of-file transition, not a
// failure; on a write it means the child stopped reading.
var ErrBrokenPipe = errors.New("asyncpipe: broken pipe")

// Result is what a completed operation delivers: the byte count, and for
// reads the bytes themselves (a buffer allocated fresh for each
// InitiateRead, so the caller may keep it).
type Result struct {
	N    int
	Data []byte
	Err  error
}

// Ok reports whether the operation completed without error.
func (r Result) Ok() bool { return r.Err == nil }

// classify maps an underlying I/O error onto the pipe's broken-pipe status,
// the only distinction the protocol layer needs to make.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return ErrBrokenPipe
	}
	if pe, ok := err.(interface{ Timeout() bool }); ok && pe.Timeout() {
		return err
	}
	if isBrokenPipeErr(err) {
		return ErrBrokenPipe
	}
	return err
}

// ReadPipe is the read-side half of the contract: wraps an io.ReadCloser
// that supports at most one outstanding Read at a time.
type ReadPipe struct {
	r       io.ReadCloser
	maxRead int
	result  chan Result
	pending bool
	closed  bool
}

// NewReadPipe wraps r. maxRead bounds every read so the multiplexor's
// backpressure gate (reserve enough send-buffer space for the worst case
// before arming a read) stays sufficient.
func NewReadPipe(r io.ReadCloser, maxRead int) *ReadPipe {
	return &ReadPipe{
		r:       r,
		maxRead: maxRead,
		result:  make(chan Result, 1),
	}
}

// InitiateRead begins one read in the background. Panics if a read is
// already in flight - the multiplexor never does this, since it only arms
// a pipe's event when Pending is false.
func (p *ReadPipe) InitiateRead() {
	if p.pending {
		panic("asyncpipe: InitiateRead called while a read is already pending")
	}
	p.pending = true

	buf := make([]byte, p.maxRead)
	go func() {
		n, err := p.r.Read(buf)
		p.result <- Result{N: n, Data: buf[:n], Err: classify(err)}
	}()
}

// Event is the channel to select on; the value it yields is the completed
// Result, folding the spec's separate "wait" and "result" steps into one
// channel receive, which is how Go expresses a platform event object.
func (p *ReadPipe) Event() <-chan Result { return p.result }

// Pending reports whether a read is currently outstanding.
func (p *ReadPipe) Pending() bool { return p.pending }

// Consumed must be called after receiving off Event to clear the in-flight
// flag before the next InitiateRead.
func (p *ReadPipe) Consumed() { p.pending = false }

// Close releases the handle. It does not wait for an in-flight read to
// finish: closing the underlying file unblocks a blocked Read on POSIX
// pipes (unlike the Windows 9x primitive this contract was modeled on), so
// the read goroutine observes the close and exits on its own, delivering
// its result into the buffered channel where nothing will ever receive it.
func (p *ReadPipe) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.r.Close()
}

// WritePipe is the write-side half of the contract.
type WritePipe struct {
	w       io.WriteCloser
	result  chan Result
	pending bool
	closed  bool
}

// NewWritePipe wraps w.
func NewWritePipe(w io.WriteCloser) *WritePipe {
	return &WritePipe{w: w, result: make(chan Result, 1)}
}

// InitiateWrite begins writing data in the background. data must not be
// mutated or reused by the caller until the write completes - callers
// whose source buffer is about to be compacted (the session receive
// buffer) must copy out first.
func (p *WritePipe) InitiateWrite(data []byte) {
	if p.pending {
		panic("asyncpipe: InitiateWrite called while a write is already pending")
	}
	p.pending = true

	go func() {
		n, err := p.w.Write(data)
		p.result <- Result{N: n, Err: classify(err)}
	}()
}

// Event mirrors ReadPipe.Event.
func (p *WritePipe) Event() <-chan Result { return p.result }

// Pending reports whether a write is currently outstanding.
func (p *WritePipe) Pending() bool { return p.pending }

// Consumed clears the in-flight flag; call after receiving off Event.
func (p *WritePipe) Consumed() { p.pending = false }

// Close releases the handle, per the same no-blocking policy as ReadPipe.
func (p *WritePipe) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.w.Close()
}

// WrapError annotates err with msg using github.com/pkg/errors' Wrap. The
// pipe operations themselves return unwrapped errors.
func WrapError(err error, msg string) error {
	return pkgerrors.Wrap(err, msg)
}
