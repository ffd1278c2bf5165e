// +build linux darwin freebsd

package main

import (
	"os/signal"
	"syscall"
)

// init arranges for a write to a socket whose peer has already closed its
// half of the connection to surface as an ordinary EPIPE error from Write,
// rather than terminating the process with SIGPIPE - the relay loop is the
// one place this client writes to a socket outside of its own control.
func init() {
	signal.Ignore(syscall.SIGPIPE)
}
