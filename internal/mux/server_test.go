// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package mux

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ice9proj/ice9/internal/frame"
)

func startTestServer(t *testing.T) net.Addr {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	srv := NewServer(ln, zap.NewNop(), MaxConnections, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		srv.Run(ctx)
		close(done)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	return ln.Addr()
}

func sendFrame(t *testing.T, conn net.Conn, cmd byte, payload []byte) {
	t.Helper()
	out, err := frame.Encode(make([]byte, 0, frame.HeaderSize+len(payload)), cmd, payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := conn.Write(out); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

// frameReader incrementally reads frames off conn, one at a time.
type frameReader struct {
	t    *testing.T
	conn net.Conn
	buf  []byte
}

func newFrameReader(t *testing.T, conn net.Conn) *frameReader {
	return &frameReader{t: t, conn: conn, buf: make([]byte, 0, 4096)}
}

func (r *frameReader) next() frame.Frame {
	r.t.Helper()
	for {
		if f, consumed, err := frame.TryParse(r.buf); err == nil {
			r.buf = append([]byte(nil), r.buf[consumed:]...)
			return f
		}
		tail := make([]byte, 4096)
		r.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		n, err := r.conn.Read(tail)
		if err != nil {
			r.t.Fatalf("Read: %v", err)
		}
		r.buf = append(r.buf, tail[:n]...)
	}
}

func TestEndToEndEcho(t *testing.T) {
	addr := startTestServer(t)

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	sendFrame(t, conn, frame.CmdSetApplicationPath, []byte("/bin/echo"))
	sendFrame(t, conn, frame.CmdSetCommandLine, []byte(`"echo" "hello"`))
	sendFrame(t, conn, frame.CmdExecute, nil)

	r := newFrameReader(t, conn)

	f1 := r.next()
	if f1.Command != frame.CmdStdout || string(f1.Payload) != "hello\n" {
		t.Fatalf("first frame = %+v", f1)
	}
	f2 := r.next()
	if f2.Command != frame.CmdStdout || len(f2.Payload) != 0 {
		t.Fatalf("expected stdout EOF, got %+v", f2)
	}
	f3 := r.next()
	if f3.Command != frame.CmdStderr || len(f3.Payload) != 0 {
		t.Fatalf("expected stderr EOF, got %+v", f3)
	}
	f4 := r.next()
	if f4.Command != frame.CmdExit {
		t.Fatalf("expected exit frame, got %+v", f4)
	}
	code := int32(binary.LittleEndian.Uint32(f4.Payload))
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}

func TestEndToEndStdinPassthrough(t *testing.T) {
	addr := startTestServer(t)

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	sendFrame(t, conn, frame.CmdSetApplicationPath, []byte("/usr/bin/sort"))
	sendFrame(t, conn, frame.CmdExecute, nil)
	sendFrame(t, conn, frame.CmdStdin, []byte("b\na\n"))
	sendFrame(t, conn, frame.CmdStdin, nil)

	r := newFrameReader(t, conn)

	f1 := r.next()
	if f1.Command != frame.CmdStdout || string(f1.Payload) != "a\nb\n" {
		t.Fatalf("sorted output = %+v", f1)
	}
	f2 := r.next()
	if f2.Command != frame.CmdStdout || len(f2.Payload) != 0 {
		t.Fatalf("expected stdout EOF, got %+v", f2)
	}
	f3 := r.next()
	if f3.Command != frame.CmdStderr || len(f3.Payload) != 0 {
		t.Fatalf("expected stderr EOF, got %+v", f3)
	}
	f4 := r.next()
	if f4.Command != frame.CmdExit {
		t.Fatalf("expected exit frame, got %+v", f4)
	}
}

func TestEndToEndNonZeroExit(t *testing.T) {
	addr := startTestServer(t)

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	sendFrame(t, conn, frame.CmdSetCommandLine, []byte("exit 7"))
	sendFrame(t, conn, frame.CmdExecute, nil)

	r := newFrameReader(t, conn)
	var last frame.Frame
	for i := 0; i < 3; i++ {
		last = r.next()
	}
	if last.Command != frame.CmdExit {
		t.Fatalf("expected exit frame last, got %+v", last)
	}
	code := int32(binary.LittleEndian.Uint32(last.Payload))
	if code != 7 {
		t.Fatalf("exit code = %d, want 7", code)
	}
}

func TestEndToEndUnknownExecutable(t *testing.T) {
	addr := startTestServer(t)

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	sendFrame(t, conn, frame.CmdSetApplicationPath, []byte("ice9-definitely-not-a-real-binary"))
	sendFrame(t, conn, frame.CmdExecute, nil)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 16)
	n, err := conn.Read(buf)
	if n != 0 || err == nil {
		t.Fatalf("expected immediate EOF with no bytes, got n=%d err=%v", n, err)
	}
}
