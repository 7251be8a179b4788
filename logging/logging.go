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

// Package logging builds the zerolog loggers used across the engine.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Profile selects a logger preset.
type Profile int

const (
	// ProfileRuntime logs at info level with timestamps.
	ProfileRuntime Profile = iota
	// ProfileTest logs at debug level without timestamps or color.
	ProfileTest
)

// Environment overrides.
const (
	EnvLevel     = "INJECT_LOG_LEVEL"
	EnvTimestamp = "INJECT_LOG_TIMESTAMP"
	EnvNoColor   = "INJECT_LOG_NOCOLOR"
)

// settings is the resolved logger shape.
type settings struct {
	level     zerolog.Level
	timestamp bool
	noColor   bool
}

func defaults(p Profile) settings {
	if p == ProfileTest {
		return settings{level: zerolog.DebugLevel, noColor: true}
	}
	return settings{level: zerolog.InfoLevel, timestamp: true}
}

// New returns a console logger for profile p writing to stderr.
func New(p Profile) zerolog.Logger {
	return NewWriter(p, os.Stderr)
}

// NewWriter is like New but writes to w.
func NewWriter(p Profile, w io.Writer) zerolog.Logger {
	s := applyEnv(defaults(p), os.LookupEnv)
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: s.noColor}
	if !s.timestamp {
		out.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	ctx := zerolog.New(out).Level(s.level).With()
	if s.timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Str("lib", "inject").Logger()
}

// WithLevel applies a level name such as "debug" to l. An empty or unknown
// name returns l unchanged.
func WithLevel(l zerolog.Logger, name string) zerolog.Logger {
	if name == "" {
		return l
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return l
	}
	return l.Level(lvl)
}

func applyEnv(s settings, lookup func(string) (string, bool)) settings {
	if v, ok := lookup(EnvLevel); ok && v != "" {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			s.level = lvl
		}
	}
	if v, ok := lookup(EnvTimestamp); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.timestamp = b
		}
	}
	if v, ok := lookup(EnvNoColor); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.noColor = b
		}
	}
	return s
}
