// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package stats

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSnapshotReflectsCounters(t *testing.T) {
	var c Counters
	c.SessionsAccepted.Add(3)
	c.SessionsRejected.Add(1)
	c.BytesIn.Add(1024)

	snap := c.Snapshot()
	if snap.SessionsAccepted != 3 || snap.SessionsRejected != 1 || snap.BytesIn != 1024 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestRunPeriodicLoggerLogsAndStops(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	var c Counters
	c.ChildSpawns.Add(5)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		RunPeriodicLogger(&c, log, 5*time.Millisecond, stop)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for logs.Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for a stats log line")
		case <-time.After(time.Millisecond):
		}
	}

	entry := logs.All()[0]
	if entry.Message != "stats" {
		t.Fatalf("message = %q, want \"stats\"", entry.Message)
	}

	close(stop)
	<-done
}

func TestRunPeriodicLoggerIgnoresNonPositiveInterval(t *testing.T) {
	var c Counters
	done := make(chan struct{})
	go func() {
		RunPeriodicLogger(&c, zap.NewNop(), 0, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPeriodicLogger with a non-positive interval should return immediately")
	}
}
