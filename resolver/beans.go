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

package resolver

import (
	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/component"
	"dirpx.dev/inject/resolved"
	"dirpx.dev/inject/strategy"
)

// NewBeans constructs the resolver for component lookups over reg.
// Descriptors match when some member of their type closure satisfies the
// requested type under the bean policy and their tags contain every
// requested tag. Specialized-role descriptors and descriptors replaced by a
// specializing descriptor never match.
func NewBeans(reg apis.Registry, opts ...Option) apis.Resolver {
	o := newOptions(opts)
	if o.strategy == nil {
		o.strategy = strategy.NewBeanStrategy()
	}
	return &beans{
		memo:     memo{kind: component.Bean, reg: reg, hooks: o.hooks, log: o.log},
		strategy: o.strategy,
	}
}

type beans struct {
	memo
	strategy apis.Strategy
}

// Ensure beans implements apis.Resolver.
var _ apis.Resolver = (*beans)(nil)

// Resolve returns the beans matching req.
func (r *beans) Resolve(req apis.Request) (*resolved.Set, error) {
	return r.resolve(req, r.compute)
}

// Clear drops every memoized result.
func (r *beans) Clear() { r.clear() }

func (r *beans) compute(req apis.Request) (*resolved.Set, error) {
	var out []*component.Descriptor
	for _, d := range r.reg.Entries(component.Bean) {
		if d.Role() == component.Specialized {
			continue
		}
		if !d.Qualifiers().ContainsAll(req.Qualifiers) {
			continue
		}
		if !r.satisfies(d, req) {
			continue
		}
		most, err := r.reg.MostSpecializing(d.ID())
		if err != nil {
			return nil, err
		}
		if most != d {
			continue
		}
		out = append(out, d)
	}
	return resolved.Partition(out), nil
}

func (r *beans) satisfies(d *component.Descriptor, req apis.Request) bool {
	for _, t := range d.Types() {
		if r.strategy.Matches(req.Type, t) {
			return true
		}
	}
	return false
}
