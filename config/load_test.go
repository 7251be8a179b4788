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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/config"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_YAML(t *testing.T) {
	p := write(t, "inject.yaml", `
strict: false
async_workers: 2
async_rate_per_second: 10.5
async_burst: 3
metrics_namespace: orders
log_level: debug
`)
	cfg, err := config.Load(p)
	require.NoError(t, err)
	assert.False(t, cfg.Strict)
	assert.Equal(t, 2, cfg.AsyncWorkers)
	assert.Equal(t, 10.5, cfg.AsyncRatePerSecond)
	assert.Equal(t, 3, cfg.AsyncBurst)
	assert.Equal(t, "orders", cfg.MetricsNamespace)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Untouched fields keep their defaults.
	assert.Equal(t, config.DefaultLockStripes, cfg.LockStripes)
	assert.Equal(t, config.DefaultAsyncQueueSize, cfg.AsyncQueueSize)
}

func TestLoad_TOML(t *testing.T) {
	p := write(t, "inject.toml", `
lock_stripes = 16
default_multithreaded = false
async_queue_size = 32
`)
	cfg, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.LockStripes)
	assert.False(t, cfg.DefaultMultithreaded)
	assert.Equal(t, 32, cfg.AsyncQueueSize)
	assert.True(t, cfg.Strict)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(write(t, "inject.json", `{}`))
	assert.ErrorIs(t, err, config.ErrUnsupportedFormat)

	_, err = config.Load(write(t, "bad.yaml", "lock_stripes: 0\n"))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = config.Load(write(t, "broken.toml", "lock_stripes = \n"))
	assert.Error(t, err)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := config.DefaultConfig()
	cases := map[string]func(*apis.Config){
		"negative workers": func(c *apis.Config) { c.AsyncWorkers = -1 },
		"negative queue":   func(c *apis.Config) { c.AsyncQueueSize = -1 },
		"negative rate":    func(c *apis.Config) { c.AsyncRatePerSecond = -1 },
		"negative burst":   func(c *apis.Config) { c.AsyncBurst = -1 },
		"zero stripes":     func(c *apis.Config) { c.LockStripes = 0 },
		"bad namespace":    func(c *apis.Config) { c.MetricsNamespace = "9-lives" },
		"bad level":        func(c *apis.Config) { c.LogLevel = "chatty" },
	}
	for name, mutate := range cases {
		c := base
		mutate(&c)
		assert.ErrorIs(t, config.Validate(c), config.ErrInvalidConfig, name)
	}
}
