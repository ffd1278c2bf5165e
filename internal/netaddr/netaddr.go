// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

// Package netaddr parses the host[:port] listen address the server accepts
// on its command line or in its config file, and holds the default port
// the client also uses. It is adapted from the teacher's own
// multi-port listener address parser down to a single default-port
// fallback - this protocol has no notion of a port range, only ever one
// listening or dialed endpoint.
package netaddr

import (
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// DefaultPort is the server's well-known listening port.
const DefaultPort = 5424

var hostPortPattern = regexp.MustCompile(`^(.*):([0-9]{1,5})$`)

// ResolveHostPort splits addr into a host and port. If addr carries no
// ":<port>" suffix, defaultPort is used. Ports must fit in 16 bits.
func ResolveHostPort(addr string, defaultPort int) (host string, port int, err error) {
	if matches := hostPortPattern.FindStringSubmatch(addr); matches != nil {
		p, err := strconv.Atoi(matches[2])
		if err != nil {
			return "", 0, errors.Wrapf(err, "invalid port in address %q", addr)
		}
		if p == 0 || p > 65535 {
			return "", 0, errors.Errorf("port %d out of range in address %q", p, addr)
		}
		return matches[1], p, nil
	}

	if addr == "" {
		return "", 0, errors.New("empty address")
	}
	return addr, defaultPort, nil
}
