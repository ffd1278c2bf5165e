// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package main

import (
	"reflect"
	"testing"

	"github.com/ice9proj/ice9/internal/session"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]string{
		{"echo", "hello"},
		{"sort", "-r"},
		{`say "hi"`},
		{`trailing\`},
		{`mid\dle`},
		{"", "empty-arg-next"},
		{"spaces in one arg", "second"},
	}

	for _, args := range cases {
		encoded := EncodeCommandLine(args)
		got := session.SplitCommandLine(encoded)
		if !reflect.DeepEqual(got, args) {
			t.Fatalf("round trip mismatch: args=%#v encoded=%q got=%#v", args, encoded, got)
		}
	}
}

func TestEncodeCommandLineJoinsWithSpaces(t *testing.T) {
	got := EncodeCommandLine([]string{"a", "b"})
	want := `"a" "b"`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
