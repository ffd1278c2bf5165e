// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package mux

import (
	"context"
	"reflect"

	"go.uber.org/zap"

	"github.com/ice9proj/ice9/internal/asyncpipe"
	"github.com/ice9proj/ice9/internal/session"
)

// handler processes whichever case reflect.Select picked. A non-nil
// return from the context-done handler, or from the accept handler on a
// fatal listener error, stops Run; every other handler returns nil and
// lets the loop continue (session-level failures are handled by
// destroying that session, not by stopping the server).
type handler func(value reflect.Value, recvOK bool) error

// buildWaitSet assembles this iteration's wait set: the context's done
// channel, the accept notifier, and every session's gated handles. This is
// the dynamic equivalent of WaitForMultipleObjects's handle array,
// rebuilt fresh every pass because which handles are eligible changes with
// every buffer and pipe state transition.
func (srv *Server) buildWaitSet(ctx context.Context) ([]reflect.SelectCase, []handler) {
	var cases []reflect.SelectCase
	var handlers []handler

	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})
	handlers = append(handlers, func(reflect.Value, bool) error { return ctx.Err() })

	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(srv.acceptCh)})
	handlers = append(handlers, srv.handleAccept)

	for _, c := range srv.conns {
		c := c

		if c.recvInterest() {
			c.armRecv()
		}
		if c.recvBusy {
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(c.recvCh)})
			handlers = append(handlers, func(v reflect.Value, ok bool) error {
				srv.handleRecv(c, v, ok)
				return nil
			})
		}

		if c.sendInterest() {
			c.armSend()
		}
		if c.sendBusy {
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(c.sendCh)})
			handlers = append(handlers, func(v reflect.Value, ok bool) error {
				srv.handleSend(c, v, ok)
				return nil
			})
		}

		if c.sess.StdoutPipe != nil {
			if !c.sess.StdoutPipe.Pending() && outputReadGate(c.sess) {
				c.sess.StdoutPipe.InitiateRead()
			}
			if c.sess.StdoutPipe.Pending() && outputReadGate(c.sess) {
				cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(c.sess.StdoutPipe.Event())})
				handlers = append(handlers, func(v reflect.Value, ok bool) error {
					srv.handleStdout(c, v, ok)
					return nil
				})
			}
		}

		if c.sess.StderrPipe != nil {
			if !c.sess.StderrPipe.Pending() && outputReadGate(c.sess) {
				c.sess.StderrPipe.InitiateRead()
			}
			if c.sess.StderrPipe.Pending() && outputReadGate(c.sess) {
				cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(c.sess.StderrPipe.Event())})
				handlers = append(handlers, func(v reflect.Value, ok bool) error {
					srv.handleStderr(c, v, ok)
					return nil
				})
			}
		}

		if c.sess.StdinPipe != nil && c.sess.StdinPipe.Pending() {
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(c.sess.StdinPipe.Event())})
			handlers = append(handlers, func(v reflect.Value, ok bool) error {
				srv.handleStdin(c, v, ok)
				return nil
			})
		}

		if childExitGate(c.sess) {
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(c.sess.ExitCh)})
			handlers = append(handlers, func(v reflect.Value, ok bool) error {
				srv.handleChildExit(c, v, ok)
				return nil
			})
		}
	}

	return cases, handlers
}

// outputReadGate is the stdout/stderr backpressure gate: a read is only
// armed, and its completion only waited on, while the send buffer is
// guaranteed to hold the frame it could produce.
func outputReadGate(s *session.Session) bool {
	return s.SendSpareCapacity() >= 3+session.MaxPipeRead
}

// childExitGate is the child-exit backpressure gate: only wait on the
// exit channel once both output pipes are gone (EOF already reported) and
// the send buffer has room reserved for the 'X' frame.
func childExitGate(s *session.Session) bool {
	return s.Child != nil && s.StdoutPipe == nil && s.StderrPipe == nil && s.SendSpareCapacity() >= 3+4
}

func (srv *Server) handleAccept(value reflect.Value, recvOK bool) error {
	srv.acceptCh = srv.acceptor.arm()

	if !recvOK {
		return nil
	}
	res := value.Interface().(acceptResult)
	if res.err != nil {
		return res.err
	}
	srv.acceptConn(res.conn)
	return nil
}

func (srv *Server) handleRecv(c *conn, value reflect.Value, recvOK bool) {
	c.recvBusy = false
	if !recvOK {
		srv.destroy(c, errSocketClosed)
		return
	}
	res := value.Interface().(ioResult)

	if res.n > 0 {
		c.sess.CommitRecv(res.n)
		srv.counters.BytesIn.Add(uint64(res.n))
		if err := c.sess.DrainInbound(); err != nil {
			srv.destroy(c, err)
			return
		}
	}
	if res.err != nil {
		srv.destroy(c, res.err)
	}
}

func (srv *Server) handleSend(c *conn, value reflect.Value, recvOK bool) {
	c.sendBusy = false
	if !recvOK {
		srv.destroy(c, errSocketClosed)
		return
	}
	res := value.Interface().(ioResult)
	if res.n > 0 {
		c.sess.ConsumeSend(res.n)
		srv.counters.BytesOut.Add(uint64(res.n))
	}
	if res.err != nil {
		srv.destroy(c, res.err)
		return
	}
	if c.sess.State == session.StateClosing && c.sess.ReadyForDestroy() {
		c.sess.Log.Info("exit frame drained, closing")
	}
}

func (srv *Server) handleStdout(c *conn, value reflect.Value, _ bool) {
	res := value.Interface().(asyncpipe.Result)
	if err := c.sess.OnStdoutResult(res); err != nil {
		srv.destroy(c, err)
	}
}

func (srv *Server) handleStderr(c *conn, value reflect.Value, _ bool) {
	res := value.Interface().(asyncpipe.Result)
	if err := c.sess.OnStderrResult(res); err != nil {
		srv.destroy(c, err)
	}
}

func (srv *Server) handleStdin(c *conn, value reflect.Value, _ bool) {
	res := value.Interface().(asyncpipe.Result)
	if err := c.sess.OnStdinResult(res); err != nil {
		srv.destroy(c, err)
		return
	}
	if err := c.sess.DrainInbound(); err != nil {
		srv.destroy(c, err)
	}
}

func (srv *Server) handleChildExit(c *conn, value reflect.Value, _ bool) {
	res := value.Interface().(session.ExitResult)
	c.sess.OnChildExit(res)
	c.sess.Log.Info("child exited", zap.Int("code", res.Code))
}
