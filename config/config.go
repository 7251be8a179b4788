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
	"dirpx.dev/inject/apis"
)

const (
	// DefaultStrict enables the full event-type check.
	DefaultStrict = true
	// DefaultAsyncWorkers is the worker count of the default background pool.
	DefaultAsyncWorkers = 8
	// DefaultAsyncQueueSize bounds the default pool's pending queue.
	DefaultAsyncQueueSize = 1024
	// DefaultLockStripes is the per-store lock index shard count.
	DefaultLockStripes = 64
	// DefaultMetricsNamespace prefixes exported metrics.
	DefaultMetricsNamespace = "inject"
	// DefaultMultithreaded guards scope construction with per-identity locks.
	DefaultMultithreaded = true
)

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	// Ensure LockStripes is valid.
	if cfg.LockStripes <= 0 {
		cfg.LockStripes = DefaultLockStripes
	}
	return cfg
}

// DefaultConfig is the default configuration used when none is provided.
func DefaultConfig() apis.Config {
	return apis.Config{
		Strict:               DefaultStrict,
		AsyncWorkers:         DefaultAsyncWorkers,
		AsyncQueueSize:       DefaultAsyncQueueSize,
		LockStripes:          DefaultLockStripes,
		MetricsNamespace:     DefaultMetricsNamespace,
		DefaultMultithreaded: DefaultMultithreaded,
	}
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithStrict sets the Strict option.
func WithStrict(strict bool) Option {
	return func(c *apis.Config) {
		c.Strict = strict
	}
}

// WithAsyncWorkers sets the AsyncWorkers option.
// A non-positive value resets to the default.
func WithAsyncWorkers(n int) Option {
	return func(c *apis.Config) {
		if n <= 0 {
			c.AsyncWorkers = DefaultAsyncWorkers
			return
		}
		c.AsyncWorkers = n
	}
}

// WithAsyncQueueSize sets the AsyncQueueSize option.
// A non-positive value resets to the default.
func WithAsyncQueueSize(n int) Option {
	return func(c *apis.Config) {
		if n <= 0 {
			c.AsyncQueueSize = DefaultAsyncQueueSize
			return
		}
		c.AsyncQueueSize = n
	}
}

// WithAsyncRate limits task admission to perSecond with the given burst.
// A non-positive rate disables the limit.
func WithAsyncRate(perSecond float64, burst int) Option {
	return func(c *apis.Config) {
		if perSecond <= 0 {
			c.AsyncRatePerSecond, c.AsyncBurst = 0, 0
			return
		}
		c.AsyncRatePerSecond, c.AsyncBurst = perSecond, burst
	}
}

// WithLockStripes sets the LockStripes option.
func WithLockStripes(n int) Option {
	return func(c *apis.Config) {
		c.LockStripes = n
	}
}

// WithMetricsNamespace sets the MetricsNamespace option.
func WithMetricsNamespace(ns string) Option {
	return func(c *apis.Config) {
		c.MetricsNamespace = ns
	}
}

// WithLogLevel sets the LogLevel option.
func WithLogLevel(level string) Option {
	return func(c *apis.Config) {
		c.LogLevel = level
	}
}

// WithDefaultMultithreaded sets the DefaultMultithreaded option.
func WithDefaultMultithreaded(on bool) Option {
	return func(c *apis.Config) {
		c.DefaultMultithreaded = on
	}
}
