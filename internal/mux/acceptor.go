// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package mux

import (
	"net"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

type acceptResult struct {
	conn net.Conn
	err  error
}

// acceptor owns the listening socket's one-shot accept notifier. Transient
// errors (a temporary network error, or the process briefly out of file
// descriptors) are retried behind a short backoff instead of spinning;
// anything else is fatal to the accept loop.
type acceptor struct {
	listener net.Listener
	log      *zap.Logger
	bo       *backoff.Backoff
}

func newAcceptor(listener net.Listener, log *zap.Logger) *acceptor {
	return &acceptor{
		listener: listener,
		log:      log,
		bo: &backoff.Backoff{
			Min:    10 * time.Millisecond,
			Max:    1 * time.Second,
			Factor: 2,
			Jitter: true,
		},
	}
}

// arm launches one blocking Accept call and returns the channel its result
// will be delivered on, retrying transient errors internally so the
// multiplexor only ever observes a genuine accepted connection or a fatal
// listener error.
func (a *acceptor) arm() <-chan acceptResult {
	ch := make(chan acceptResult, 1)
	go func() {
		for {
			c, err := a.listener.Accept()
			if err == nil {
				a.bo.Reset()
				ch <- acceptResult{conn: c}
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				wait := a.bo.Duration()
				a.log.Warn("transient accept error, retrying", zap.Error(err), zap.Duration("backoff", wait))
				time.Sleep(wait)
				continue
			}
			ch <- acceptResult{err: err}
			return
		}
	}()
	return ch
}
