// Copyright (c) 2026 The ice9 Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license.

// Package config loads the server's optional configuration file. Flags
// always take precedence; a config file only fills in values the operator
// didn't pass on the command line, mirroring the teacher's own
// flags-plus-JSON-config layering.
package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Server is the server's file-backed configuration. Every field is a
// pointer so the loader can distinguish "absent from the file" from "set
// to the zero value".
type Server struct {
	Listen         *string `json:"listen" yaml:"listen"`
	MaxConnections *int    `json:"max_connections" yaml:"max_connections"`
	LogLevel       *string `json:"log_level" yaml:"log_level"`
}

// LoadServer reads path and decodes it as JSON or YAML depending on its
// extension, matching the teacher's own parseJSONConfig plus the broader
// pack's use of gopkg.in/yaml.v3 for operator-facing config.
func LoadServer(path string) (*Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	var cfg Server
	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "parse YAML config")
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "parse JSON config")
		}
	}

	return &cfg, nil
}
