// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package session

import (
	"os"
	"testing"
	"time"

	"github.com/ice9proj/ice9/internal/asyncpipe"
)

// osPipePair returns a WritePipe backed by a real OS pipe, along with the
// read end so a test can observe what was written.
func osPipePair(t *testing.T) (*os.File, *asyncpipe.WritePipe, error) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	t.Cleanup(func() { r.Close() })
	return r, asyncpipe.NewWritePipe(w), nil
}

func TestExecuteEcho(t *testing.T) {
	s, _ := testSession(t)

	appPath := "/bin/echo"
	cmdLine := `"echo" "hello"`
	s.ApplicationPath = &appPath
	s.CommandLine = &cmdLine

	if err := s.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if s.State != StateRunning {
		t.Fatalf("State = %v, want Running", s.State)
	}

	s.StdoutPipe.InitiateRead()
	select {
	case res := <-s.StdoutPipe.Event():
		if res.Err != nil {
			t.Fatalf("stdout read error: %v", res.Err)
		}
		if string(res.Data) != "hello\n" {
			t.Fatalf("stdout = %q, want %q", res.Data, "hello\n")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for echo output")
	}
}

func TestExecuteShellFallback(t *testing.T) {
	s, _ := testSession(t)

	cmdLine := "echo via-shell"
	s.CommandLine = &cmdLine

	if err := s.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	s.StdoutPipe.InitiateRead()
	select {
	case res := <-s.StdoutPipe.Event():
		if string(res.Data) != "via-shell\n" {
			t.Fatalf("stdout = %q, want %q", res.Data, "via-shell\n")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for shell output")
	}
}

func TestExecuteUnknownExecutableFails(t *testing.T) {
	s, _ := testSession(t)
	appPath := "ice9-definitely-not-a-real-binary"
	s.ApplicationPath = &appPath

	if err := s.Execute(); err == nil {
		t.Fatalf("Execute succeeded for a nonexistent binary")
	}
	if s.State != StateSetup {
		t.Fatalf("State = %v, want Setup after a failed spawn", s.State)
	}
}

func TestResolveApplicationPathFindsOnPath(t *testing.T) {
	dir := t.TempDir()
	target := dir + "/widget"
	if err := os.WriteFile(target, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("PATH", dir)

	resolved, err := resolveApplicationPath("widget")
	if err != nil {
		t.Fatalf("resolveApplicationPath: %v", err)
	}
	if resolved != target {
		t.Fatalf("resolved = %q, want %q", resolved, target)
	}
}
