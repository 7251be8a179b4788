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

// Package builder provides the default apis.Builder.
package builder

import (
	"github.com/rs/zerolog"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/component"
	"dirpx.dev/inject/registry"
	"dirpx.dev/inject/resolver"
	"dirpx.dev/inject/strategy"
	"dirpx.dev/inject/types"
)

// Option configures the builder.
type Option func(*builder)

// WithLogger sets the logger handed to built registries and resolvers.
func WithLogger(l zerolog.Logger) Option {
	return func(b *builder) { b.log = l }
}

// WithReserved declares event types that only privileged fires may use.
func WithReserved(ts ...*types.Type) Option {
	return func(b *builder) { b.reserved = append(b.reserved, ts...) }
}

// New creates and returns a new instance of an apis.Builder.
func New(opts ...Option) apis.Builder {
	b := &builder{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type builder struct {
	log      zerolog.Logger
	reserved []*types.Type
}

// Ensure builder implements apis.Builder.
var _ apis.Builder = (*builder)(nil)

// BuildRegistry builds a new, unpinned apis.Registry. If a pre-existing
// registry is provided, its descriptors are copied into the new one in
// registration order per kind. ext may carry a zerolog.Logger that overrides
// the builder's logger for the new registry.
func (b *builder) BuildRegistry(_ apis.Config, preg apis.Registry, ext any) apis.Registry {
	log := b.log
	if l, ok := ext.(zerolog.Logger); ok {
		log = l
	}
	nreg := registry.New(registry.WithLogger(log))
	if preg != nil {
		for _, kind := range []component.Kind{component.Bean, component.Observer} {
			for _, d := range preg.Entries(kind) {
				if err := nreg.Register(d); err != nil {
					log.Warn().Err(err).Str("id", d.ID()).Msg("descriptor not migrated")
				}
			}
		}
	}
	return nreg
}

// BuildResolver builds the resolver for descriptors of kind over reg, using
// the bean policy for components and the event policy for observers.
func (b *builder) BuildResolver(cfg apis.Config, reg apis.Registry, kind component.Kind, hooks apis.Hooks) apis.Resolver {
	opts := []resolver.Option{
		resolver.WithHooks(hooks),
		resolver.WithLogger(b.log),
	}
	if kind == component.Observer {
		opts = append(opts,
			resolver.WithStrategy(strategy.NewEventStrategy()),
			resolver.WithStrict(cfg.Strict),
			resolver.WithReserved(b.reserved...),
		)
		return resolver.NewObservers(reg, opts...)
	}
	opts = append(opts, resolver.WithStrategy(strategy.NewBeanStrategy()))
	return resolver.NewBeans(reg, opts...)
}
