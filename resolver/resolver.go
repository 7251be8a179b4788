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

// Package resolver selects the descriptors matching a request and memoizes
// the partitioned result per structural request key.
//
// Two resolvers exist: NewBeans for component lookups and NewObservers for
// event delivery. Both share the memo, which collapses concurrent identical
// resolutions into one computation and drops stale results whenever the
// descriptor pool changes or Clear is called.
package resolver

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/component"
	"dirpx.dev/inject/resolved"
	"dirpx.dev/inject/types"
)

// Option configures a resolver.
type Option func(*options)

type options struct {
	strategy apis.Strategy
	hooks    apis.Hooks
	log      zerolog.Logger
	strict   bool
	reserved []*types.Type
}

// WithStrategy overrides the assignability policy.
func WithStrategy(s apis.Strategy) Option {
	return func(o *options) {
		if s != nil {
			o.strategy = s
		}
	}
}

// WithHooks sets the observability hooks.
func WithHooks(h apis.Hooks) Option {
	return func(o *options) {
		if h != nil {
			o.hooks = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithStrict toggles the reserved-type part of the event-type check.
// Observer resolvers only.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithReserved declares reserved event supertypes that only privileged
// origins may fire. Observer resolvers only.
func WithReserved(ts ...*types.Type) Option {
	return func(o *options) { o.reserved = append(o.reserved, ts...) }
}

func newOptions(opts []Option) options {
	o := options{hooks: apis.NopHooks{}, log: zerolog.Nop(), strict: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// memo is the concurrent result cache shared by both resolvers.
type memo struct {
	kind  component.Kind
	reg   apis.Registry
	hooks apis.Hooks
	log   zerolog.Logger

	// m maps request keys to entries.
	m     sync.Map // map[string]entry
	group singleflight.Group
	// gen is bumped by clear; results computed under an older gen are not stored.
	gen atomic.Uint64
}

// entry is one memoized result and the pool version it was computed against.
type entry struct {
	version uint64
	set     *resolved.Set
}

func (c *memo) resolve(req apis.Request, compute func(apis.Request) (*resolved.Set, error)) (*resolved.Set, error) {
	if req.Type == nil {
		return nil, &types.TypeResolutionError{Type: "<nil>", Reason: "nil requested type"}
	}
	key := req.Key()
	version := c.reg.Version()
	if v, ok := c.m.Load(key); ok {
		if e := v.(entry); e.version == version {
			c.hooks.Resolved(c.kind, true)
			return e.set, nil
		}
	}

	gen := c.gen.Load()
	flight := strconv.FormatUint(gen, 10) + "/" + strconv.FormatUint(version, 10) + "/" + key
	v, err, _ := c.group.Do(flight, func() (any, error) {
		// Another flight may have finished while we waited to enter.
		if v, ok := c.m.Load(key); ok {
			if e := v.(entry); e.version == version {
				return e.set, nil
			}
		}
		set, err := compute(req)
		if err != nil {
			return nil, err
		}
		if c.gen.Load() == gen {
			c.m.Store(key, entry{version: version, set: set})
		}
		return set, nil
	})
	c.hooks.Resolved(c.kind, false)
	if err != nil {
		return nil, err
	}
	return v.(*resolved.Set), nil
}

func (c *memo) clear() {
	c.gen.Add(1)
	c.m.Range(func(k, _ any) bool {
		c.m.Delete(k)
		return true
	})
	c.log.Debug().Stringer("kind", c.kind).Msg("resolution cache cleared")
}
