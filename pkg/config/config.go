// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads treesync configuration files in YAML, JSON or HCL.
package config

import (
	"context"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🎯 SyncDef is one source→destination assignment.
type SyncDef struct {
	Source      string `json:"source"      yaml:"source"      hcl:"source"`
	Destination string `json:"destination" yaml:"destination" hcl:"destination"`
}

// 📚 Config is the complete treesync configuration.
type Config struct {
	// Syncs are the pairs synchronized by one run.
	Syncs []SyncDef `json:"syncs" yaml:"syncs" hcl:"sync,block"`

	// IgnoreNames are base names excluded from walk manifests.
	IgnoreNames []string `json:"ignore_names,omitempty" yaml:"ignore_names,omitempty" hcl:"ignore_names,optional"`

	// IgnorePatterns are doublestar patterns excluded from walk manifests.
	IgnorePatterns []string `json:"ignore_patterns,omitempty" yaml:"ignore_patterns,omitempty" hcl:"ignore_patterns,optional"`

	// Concurrency bounds planner fan-out and file-copy execution.
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty" hcl:"concurrency,optional"`

	// location is the path this config was loaded from.
	location string
}

// 📍 Location returns the path the config was loaded from.
func (c *Config) Location() string {
	return c.location
}

// ✅ Validate checks the configuration for internal consistency.
func Validate(ctx context.Context, cfg *Config) error {
	logger := zerolog.Ctx(ctx)

	if len(cfg.Syncs) == 0 {
		return errors.Errorf("config has no sync blocks")
	}
	for i, sync := range cfg.Syncs {
		if sync.Source == "" {
			return errors.Errorf("sync %d: source is required", i)
		}
		if sync.Destination == "" {
			return errors.Errorf("sync %d: destination is required", i)
		}
	}
	if cfg.Concurrency < 0 {
		return errors.Errorf("concurrency must not be negative")
	}
	for _, pattern := range cfg.IgnorePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	logger.Debug().Int("syncs", len(cfg.Syncs)).Msg("config validated")
	return nil
}
