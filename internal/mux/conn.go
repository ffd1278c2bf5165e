// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package mux

import (
	"net"

	"github.com/ice9proj/ice9/internal/session"
)

// ioResult is what a one-shot socket read or write notifier delivers.
type ioResult struct {
	n   int
	err error
}

// conn bundles a Session with the bookkeeping the multiplexor needs for
// its socket-side notifier goroutines - the per-session analogue of the
// stdout/stderr/stdin pipes, expressed over net.Conn instead of a child's
// standard streams.
type conn struct {
	sess *session.Session

	recvCh   chan ioResult
	recvBusy bool
	sendCh   chan ioResult
	sendBusy bool
}

func newConn(sess *session.Session) *conn {
	return &conn{sess: sess}
}

// armRecv launches a socket read into the receive buffer's spare tail if
// one isn't already in flight and there is spare capacity to read into.
func (c *conn) armRecv() {
	if c.recvBusy || c.sess.RecvSpareCapacity() == 0 {
		return
	}
	c.recvBusy = true
	buf := c.sess.RecvWriteTail()
	ch := make(chan ioResult, 1)
	c.recvCh = ch
	go func() {
		n, err := c.sess.Conn.Read(buf)
		ch <- ioResult{n, err}
	}()
}

// armSend launches a socket write draining the send buffer's head if one
// isn't already in flight and there is anything queued to send.
func (c *conn) armSend() {
	if c.sendBusy || c.sess.SendUsed() == 0 {
		return
	}
	c.sendBusy = true
	buf := c.sess.SendReadHead()
	ch := make(chan ioResult, 1)
	c.sendCh = ch
	go func() {
		n, err := c.sess.Conn.Write(buf)
		ch <- ioResult{n, err}
	}()
}

// recvInterest reports whether armRecv should be attempted this pass,
// mirroring the spec's "interest in readable" condition.
func (c *conn) recvInterest() bool { return c.sess.RecvSpareCapacity() > 0 }

// sendInterest mirrors "interest in writable".
func (c *conn) sendInterest() bool { return c.sess.SendUsed() > 0 }
