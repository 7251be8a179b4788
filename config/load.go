/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"dirpx.dev/inject/apis"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither YAML nor TOML.
	ErrUnsupportedFormat = errors.New("inject(config): unsupported config format")
	// ErrInvalidConfig is wrapped by every validation failure.
	ErrInvalidConfig = errors.New("inject(config): invalid config")
)

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file over DefaultConfig
// and validates the result.
func Load(path string) (apis.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return apis.Config{}, fmt.Errorf("inject(config): read %s: %w", path, err)
	}
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return apis.Config{}, fmt.Errorf("inject(config): decode %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return apis.Config{}, fmt.Errorf("inject(config): decode %s: %w", path, err)
		}
	default:
		return apis.Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err := Validate(cfg); err != nil {
		return apis.Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field of cfg.
func Validate(cfg apis.Config) error {
	switch {
	case cfg.AsyncWorkers < 0:
		return fmt.Errorf("%w: async_workers must not be negative", ErrInvalidConfig)
	case cfg.AsyncQueueSize < 0:
		return fmt.Errorf("%w: async_queue_size must not be negative", ErrInvalidConfig)
	case cfg.AsyncRatePerSecond < 0:
		return fmt.Errorf("%w: async_rate_per_second must not be negative", ErrInvalidConfig)
	case cfg.AsyncBurst < 0:
		return fmt.Errorf("%w: async_burst must not be negative", ErrInvalidConfig)
	case cfg.LockStripes <= 0:
		return fmt.Errorf("%w: lock_stripes must be positive", ErrInvalidConfig)
	case cfg.MetricsNamespace != "" && !metricName.MatchString(cfg.MetricsNamespace):
		return fmt.Errorf("%w: metrics_namespace %q is not a valid metric name", ErrInvalidConfig, cfg.MetricsNamespace)
	}
	if cfg.LogLevel != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
			return fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}
