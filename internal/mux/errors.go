// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package mux

import "github.com/pkg/errors"

// errSocketClosed is used when a socket notifier's channel is observed
// closed rather than delivering a result - only possible if the session
// was torn down out from under a still-armed notifier, which should not
// happen under normal operation but is handled defensively rather than
// left to panic.
var errSocketClosed = errors.New("mux: socket notifier channel closed unexpectedly")
