// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

// Package pathsearch is the POSIX rendition of the source's PATH-search
// collaborator: given a bare program name, walk the directories named by
// PATH in order and return the first one containing a regular,
// executable-by-someone file of that name.
//
// The original walks semicolon-separated Windows directories and tries
// both "<dir>\<name>" and "<dir>\<name>.exe"; on this platform directories
// are separated by os.PathListSeparator and there is no executable-suffix
// convention to retry, so a single join-and-stat per directory suffices.
package pathsearch

import (
	"os"
	"path/filepath"
	"strings"
)

// Find returns the first existing, executable regular file named name in
// one of path's list-separated directories, in order. The second return
// value is false if no directory produced a hit.
func Find(path, name string) (string, bool) {
	if path == "" {
		return "", false
	}

	for _, dir := range strings.Split(path, string(os.PathListSeparator)) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0o111 == 0 {
			continue
		}
		return candidate, true
	}

	return "", false
}
