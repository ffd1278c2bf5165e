// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package session

import (
	"reflect"
	"testing"
)

func TestSplitCommandLineBasic(t *testing.T) {
	got := SplitCommandLine(`"sort" "-r"`)
	want := []string{"sort", "-r"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestSplitCommandLineEmbeddedQuote(t *testing.T) {
	// Encodes the single argument: say "hi"
	got := SplitCommandLine(`"say \"hi\""`)
	want := []string{`say "hi"`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestSplitCommandLineTrailingBackslashes(t *testing.T) {
	// A backslash run not followed by a quote passes through literally; a
	// run immediately before the closing quote is halved, per the
	// 2n-backslashes-then-quote rule.
	got := SplitCommandLine(`"C:\\path\\"`)
	want := []string{`C:\\path\`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestSplitCommandLineUnquotedWhitespace(t *testing.T) {
	got := SplitCommandLine(`cmd.exe /c echo hello`)
	want := []string{"cmd.exe", "/c", "echo", "hello"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestSplitCommandLineEmpty(t *testing.T) {
	if got := SplitCommandLine(""); len(got) != 0 {
		t.Fatalf("got %#v, want empty", got)
	}
}
