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

package config_test

import (
	"testing"

	"dirpx.dev/inject/config"
)

func TestDefaultConfigValues(t *testing.T) {
	got := config.DefaultConfig()

	if got.Strict != config.DefaultStrict {
		t.Fatalf("Strict = %v, want %v", got.Strict, config.DefaultStrict)
	}
	if got.AsyncWorkers != config.DefaultAsyncWorkers {
		t.Fatalf("AsyncWorkers = %d, want %d", got.AsyncWorkers, config.DefaultAsyncWorkers)
	}
	if got.LockStripes != config.DefaultLockStripes {
		t.Fatalf("LockStripes = %d, want %d", got.LockStripes, config.DefaultLockStripes)
	}
	if got.DefaultMultithreaded != config.DefaultMultithreaded {
		t.Fatalf("DefaultMultithreaded = %v, want %v", got.DefaultMultithreaded, config.DefaultMultithreaded)
	}
	if err := config.Validate(got); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestNewConfig_NoOptions_EqualsDefault(t *testing.T) {
	def := config.DefaultConfig()
	got := config.NewConfig()
	if got != def {
		t.Fatalf("NewConfig() = %+v, want default %+v", got, def)
	}
}

func TestWithAsyncWorkers_NonPositive_ResetsToDefault(t *testing.T) {
	c := config.NewConfig(config.WithAsyncWorkers(-1))
	if c.AsyncWorkers != config.DefaultAsyncWorkers {
		t.Fatalf("AsyncWorkers = %d, want default %d", c.AsyncWorkers, config.DefaultAsyncWorkers)
	}
	c = config.NewConfig(config.WithAsyncWorkers(3))
	if c.AsyncWorkers != 3 {
		t.Fatalf("AsyncWorkers = %d, want 3", c.AsyncWorkers)
	}
}

func TestWithAsyncRate(t *testing.T) {
	c := config.NewConfig(config.WithAsyncRate(50, 5))
	if c.AsyncRatePerSecond != 50 || c.AsyncBurst != 5 {
		t.Fatalf("rate = (%v,%d), want (50,5)", c.AsyncRatePerSecond, c.AsyncBurst)
	}
	c = config.NewConfig(config.WithAsyncRate(50, 5), config.WithAsyncRate(0, 9))
	if c.AsyncRatePerSecond != 0 || c.AsyncBurst != 0 {
		t.Fatalf("rate = (%v,%d), want disabled", c.AsyncRatePerSecond, c.AsyncBurst)
	}
}

func TestNewConfig_Guardrails_LockStripes(t *testing.T) {
	c := config.NewConfig(config.WithLockStripes(0))
	if c.LockStripes != config.DefaultLockStripes {
		t.Fatalf("LockStripes = %d, want default %d", c.LockStripes, config.DefaultLockStripes)
	}
}

func TestOptionsOrder_LastWins(t *testing.T) {
	c := config.NewConfig(
		config.WithStrict(true),
		config.WithStrict(false),
		config.WithLockStripes(8),
		config.WithLockStripes(16),
		config.WithDefaultMultithreaded(false),
		config.WithDefaultMultithreaded(true),
		config.WithMetricsNamespace("a"),
		config.WithMetricsNamespace("b"),
		config.WithLogLevel("info"),
		config.WithLogLevel("debug"),
	)

	if c.Strict {
		t.Errorf("Strict = %v, want false (last option wins)", c.Strict)
	}
	if c.LockStripes != 16 {
		t.Errorf("LockStripes = %d, want 16 (last option wins)", c.LockStripes)
	}
	if !c.DefaultMultithreaded {
		t.Errorf("DefaultMultithreaded = %v, want true (last option wins)", c.DefaultMultithreaded)
	}
	if c.MetricsNamespace != "b" || c.LogLevel != "debug" {
		t.Errorf("MetricsNamespace/LogLevel = %q/%q, want b/debug", c.MetricsNamespace, c.LogLevel)
	}
}
