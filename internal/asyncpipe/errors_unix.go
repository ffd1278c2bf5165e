// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package asyncpipe

import (
	"errors"
	"syscall"
)

// isBrokenPipeErr reports whether err wraps EPIPE, the error a write to a
// pipe whose reader has gone away returns on POSIX.
func isBrokenPipeErr(err error) bool {
	return errors.Is(err, syscall.EPIPE)
}
