// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadServerJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ice9d.json")
	body := `{"listen": ":6000", "max_connections": 4, "log_level": "debug"}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadServer(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Listen)
	require.Equal(t, ":6000", *cfg.Listen)
	require.NotNil(t, cfg.MaxConnections)
	require.Equal(t, 4, *cfg.MaxConnections)
	require.NotNil(t, cfg.LogLevel)
	require.Equal(t, "debug", *cfg.LogLevel)
}

func TestLoadServerYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ice9d.yaml")
	body := "listen: \":6001\"\nmax_connections: 8\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadServer(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Listen)
	require.Equal(t, ":6001", *cfg.Listen)
	require.NotNil(t, cfg.MaxConnections)
	require.Equal(t, 8, *cfg.MaxConnections)
	require.Nil(t, cfg.LogLevel)
}

func TestLoadServerMissingFile(t *testing.T) {
	_, err := LoadServer(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
