// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

// Package mux implements the multiplexor: the single-threaded cooperative
// event loop that owns every session's state, assembled each iteration
// into a dynamic wait set of channels a reflect.Select blocks on - the Go
// analogue of enumerating platform wait handles and blocking on the first
// one ready.
package mux

import (
	"context"
	"net"
	"reflect"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ice9proj/ice9/internal/session"
	"github.com/ice9proj/ice9/internal/stats"
)

// MaxConnections is the live-session ceiling; an accepted socket beyond it
// is closed immediately.
const MaxConnections = 16

// Server owns the listening socket, the session table, and the event
// loop's lifetime. Every field is touched only from the goroutine running
// Run, except where noted.
type Server struct {
	listener       net.Listener
	log            *zap.Logger
	maxConnections int
	counters       *stats.Counters

	acceptor *acceptor
	acceptCh <-chan acceptResult

	conns  []*conn
	nextID atomic.Uint64
}

// NewServer constructs a Server bound to listener. maxConnections <= 0
// falls back to MaxConnections. A nil counters is replaced with a private
// instance, so callers that don't care about stats can pass nil.
func NewServer(listener net.Listener, log *zap.Logger, maxConnections int, counters *stats.Counters) *Server {
	if maxConnections <= 0 {
		maxConnections = MaxConnections
	}
	if counters == nil {
		counters = &stats.Counters{}
	}
	return &Server{
		listener:       listener,
		log:            log,
		maxConnections: maxConnections,
		counters:       counters,
		acceptor:       newAcceptor(listener, log),
	}
}

// Run drives the event loop until ctx is cancelled or the listener fails
// fatally. It always closes the listener and every live session before
// returning.
func (srv *Server) Run(ctx context.Context) error {
	defer srv.shutdown()

	srv.acceptCh = srv.acceptor.arm()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		cases, handlers := srv.buildWaitSet(ctx)
		chosen, value, recvOK := reflect.Select(cases)
		if err := handlers[chosen](value, recvOK); err != nil {
			return err
		}

		srv.reap()
	}
}

// reap destroys every session that has finished its Closing drain and
// compacts the table, keeping it dense as the source's design requires.
func (srv *Server) reap() {
	live := srv.conns[:0]
	for _, c := range srv.conns {
		if c.sess.ReadyForDestroy() {
			c.sess.Close()
			srv.counters.SessionsDestroyed.Add(1)
			continue
		}
		live = append(live, c)
	}
	srv.conns = live
}

func (srv *Server) shutdown() {
	srv.listener.Close()
	for _, c := range srv.conns {
		c.sess.Close()
	}
	srv.conns = nil
}

// destroy immediately tears a session down and removes it from the table,
// used for every hard-error path (protocol violation, buffer overflow,
// socket error) that jumps straight to Destroy from any state.
func (srv *Server) destroy(c *conn, reason error) {
	c.sess.Log.Info("destroying session", zap.Error(reason))
	c.sess.Close()

	for i, existing := range srv.conns {
		if existing == c {
			srv.conns = append(srv.conns[:i], srv.conns[i+1:]...)
			srv.counters.SessionsDestroyed.Add(1)
			return
		}
	}
}

// acceptConn turns a freshly accepted socket into a registered session, or
// rejects it if the table is already at capacity.
func (srv *Server) acceptConn(nc net.Conn) {
	if len(srv.conns) >= srv.maxConnections {
		srv.log.Info("rejecting connection, at capacity", zap.String("remote", nc.RemoteAddr().String()))
		srv.counters.SessionsRejected.Add(1)
		nc.Close()
		return
	}

	id := srv.nextID.Add(1)
	sess := session.New(id, nc, srv.log)
	sess.Counters = srv.counters
	srv.conns = append(srv.conns, newConn(sess))
	srv.counters.SessionsAccepted.Add(1)
	srv.log.Info("accepted connection", zap.Uint64("session", id), zap.String("remote", nc.RemoteAddr().String()))
}
