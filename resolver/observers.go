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
	"dirpx.dev/inject/types"
)

// NewObservers constructs the resolver for event delivery over reg.
// An observer matches an event when its observed type satisfies some member
// of the event type closure under the event policy and every tag it declares
// is carried by the event.
func NewObservers(reg apis.Registry, opts ...Option) apis.Resolver {
	o := newOptions(opts)
	if o.strategy == nil {
		o.strategy = strategy.NewEventStrategy()
	}
	return &observers{
		memo:     memo{kind: component.Observer, reg: reg, hooks: o.hooks, log: o.log},
		strategy: o.strategy,
		checker:  &checker{strict: o.strict, reserved: o.reserved},
	}
}

type observers struct {
	memo
	strategy apis.Strategy
	checker  *checker
}

// Ensure observers implements apis.Resolver.
var _ apis.Resolver = (*observers)(nil)

// Resolve validates the event type unless req is lenient, then returns the
// observers matching req.
func (r *observers) Resolve(req apis.Request) (*resolved.Set, error) {
	if !req.Lenient {
		if err := r.checker.check(req.Type); err != nil {
			return nil, err
		}
	}
	return r.resolve(req, r.compute)
}

// Clear drops every memoized result. Event-type checks stay cached: they
// depend on the type only.
func (r *observers) Clear() { r.clear() }

func (r *observers) compute(req apis.Request) (*resolved.Set, error) {
	closure := types.Closure(req.Type)
	var out []*component.Descriptor
	for _, d := range r.reg.Entries(component.Observer) {
		if !req.Qualifiers.ContainsAll(d.Qualifiers()) {
			continue
		}
		observed := d.Observed()
		for _, t := range closure {
			if r.strategy.Matches(observed, t) {
				out = append(out, d)
				break
			}
		}
	}
	return resolved.Partition(out), nil
}
