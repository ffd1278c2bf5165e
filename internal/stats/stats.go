// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

// Package stats tracks server-wide counters and logs them periodically,
// adapted from the teacher's periodic SNMP-counter dumper: the same
// "accumulate atomically, flush on a ticker" shape, with the CSV sink
// replaced by a structured zap log line since this server has no
// dashboard to feed.
package stats

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Counters are the server-wide totals the multiplexor updates as sessions
// come and go. Every field is updated with atomic operations so a logging
// goroutine can read them without coordinating with the event loop.
type Counters struct {
	SessionsAccepted  atomic.Uint64
	SessionsRejected  atomic.Uint64
	SessionsDestroyed atomic.Uint64
	ChildSpawns       atomic.Uint64
	ChildSpawnFailed  atomic.Uint64
	BytesIn           atomic.Uint64
	BytesOut          atomic.Uint64
}

// Snapshot is a point-in-time, non-atomic copy suitable for logging.
type Snapshot struct {
	SessionsAccepted  uint64
	SessionsRejected  uint64
	SessionsDestroyed uint64
	ChildSpawns       uint64
	ChildSpawnFailed  uint64
	BytesIn           uint64
	BytesOut          uint64
}

// Snapshot reads every counter.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		SessionsAccepted:  c.SessionsAccepted.Load(),
		SessionsRejected:  c.SessionsRejected.Load(),
		SessionsDestroyed: c.SessionsDestroyed.Load(),
		ChildSpawns:       c.ChildSpawns.Load(),
		ChildSpawnFailed:  c.ChildSpawnFailed.Load(),
		BytesIn:           c.BytesIn.Load(),
		BytesOut:          c.BytesOut.Load(),
	}
}

// Log writes one structured log line for the snapshot.
func (s Snapshot) Log(log *zap.Logger) {
	log.Info("stats",
		zap.Uint64("sessions_accepted", s.SessionsAccepted),
		zap.Uint64("sessions_rejected", s.SessionsRejected),
		zap.Uint64("sessions_destroyed", s.SessionsDestroyed),
		zap.Uint64("child_spawns", s.ChildSpawns),
		zap.Uint64("child_spawn_failed", s.ChildSpawnFailed),
		zap.Uint64("bytes_in", s.BytesIn),
		zap.Uint64("bytes_out", s.BytesOut),
	)
}

// RunPeriodicLogger logs a snapshot every interval until stop is closed.
func RunPeriodicLogger(c *Counters, log *zap.Logger, interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Snapshot().Log(log)
		case <-stop:
			return
		}
	}
}
