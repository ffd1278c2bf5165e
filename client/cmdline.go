// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package main

import "strings"

// EncodeCommandLine joins args into the single flat command-line string
// the server's SplitCommandLine decodes, using the same quoting rule the
// reference client ports from the standard Windows argument-encoding
// convention: every argument is always quoted, an embedded quote is
// escaped with one backslash, a backslash run immediately before a quote
// is doubled and then escaped so it decodes back to the original run
// followed by a literal quote, and a backslash run before end-of-argument
// is likewise doubled so it survives the closing quote unchanged. A
// backslash run followed by any other character needs no escaping at all.
func EncodeCommandLine(args []string) string {
	var out strings.Builder

	for argIdx, arg := range args {
		if argIdx > 0 {
			out.WriteByte(' ')
		}
		out.WriteByte('"')

		runes := []byte(arg)
		n := len(runes)
		for i := 0; i < n; {
			c := runes[i]
			switch c {
			case '"':
				out.WriteByte('\\')
				out.WriteByte('"')
				i++
			case '\\':
				start := i
				for i < n && runes[i] == '\\' {
					i++
				}
				count := i - start

				switch {
				case i < n && runes[i] == '"':
					out.WriteString(strings.Repeat(`\`, 2*count+1))
					out.WriteByte('"')
					i++
				case i == n:
					out.WriteString(strings.Repeat(`\`, 2*count))
				default:
					out.WriteString(strings.Repeat(`\`, count))
				}
			default:
				out.WriteByte(c)
				i++
			}
		}

		out.WriteByte('"')
	}

	return out.String()
}
