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

package apis

// Config carries read-only knobs for the resolution and notification engine.
// It is passed by value and should be treated as immutable by implementations.
type Config struct {
	// Strict enables the event-type check on every fire. When false, only
	// unresolved type variables and wildcards are rejected.
	Strict bool `yaml:"strict" toml:"strict"`

	// AsyncWorkers is the number of workers in the default background pool.
	AsyncWorkers int `yaml:"async_workers" toml:"async_workers"`

	// AsyncQueueSize bounds the pending task queue of the default pool.
	AsyncQueueSize int `yaml:"async_queue_size" toml:"async_queue_size"`

	// AsyncRatePerSecond limits task admission of the default pool.
	// Zero disables the limit.
	AsyncRatePerSecond float64 `yaml:"async_rate_per_second" toml:"async_rate_per_second"`

	// AsyncBurst is the limiter burst when AsyncRatePerSecond is set.
	AsyncBurst int `yaml:"async_burst" toml:"async_burst"`

	// LockStripes is the number of shards indexing the per-identity
	// construction locks of each scope store.
	LockStripes int `yaml:"lock_stripes" toml:"lock_stripes"`

	// MetricsNamespace prefixes every exported metric.
	MetricsNamespace string `yaml:"metrics_namespace" toml:"metrics_namespace"`

	// LogLevel is a zerolog level name. Empty keeps the logger's level.
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// DefaultMultithreaded controls whether scopes registered without an
	// explicit threading mode guard construction with per-identity locks.
	DefaultMultithreaded bool `yaml:"default_multithreaded" toml:"default_multithreaded"`
}
