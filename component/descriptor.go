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

// Package component defines the descriptors the resolution engine works on.
//
// A Descriptor is static metadata for one injectable or observing unit: its
// identity, the types it satisfies, its qualifying tags, its scope and, for
// observers, its delivery discipline. Descriptors are produced during
// discovery through NewBean and NewObserver and are read-only afterwards.
package component

import (
	"context"
	"errors"
	"fmt"

	"dirpx.dev/inject/metadata"
	"dirpx.dev/inject/qualifier"
	"dirpx.dev/inject/types"
)

// DependentScope is the scope tag of descriptors that declare none.
const DependentScope = "dependent"

// ErrInvalidDescriptor is wrapped by every descriptor validation failure.
var ErrInvalidDescriptor = errors.New("inject(component): invalid descriptor")

// Constructor creates a new instance of a bean.
type Constructor func(ctx context.Context) (any, error)

// Disposer releases an instance created by a Constructor.
type Disposer func(instance any)

// Handler receives a notification. md is nil unless the observer asked for metadata.
type Handler func(ctx context.Context, payload any, md *metadata.Metadata) error

// Descriptor is immutable metadata for a bean or an observer.
type Descriptor struct {
	id          string
	kind        Kind
	types       []*types.Type
	qualifiers  qualifier.Set
	declared    qualifier.Set
	scope       string
	role        Role
	specializes string

	delivery      Delivery
	phase         Phase
	needsMetadata bool

	create  Constructor
	dispose Disposer
	handle  Handler
}

// ID returns the stable identity.
func (d *Descriptor) ID() string { return d.id }

// Kind reports whether d is a bean or an observer.
func (d *Descriptor) Kind() Kind { return d.kind }

// Types returns the type closure of a bean, or the single observed type of an observer.
func (d *Descriptor) Types() []*types.Type {
	out := make([]*types.Type, len(d.types))
	copy(out, d.types)
	return out
}

// Observed returns the observed type of an observer, or nil for beans.
func (d *Descriptor) Observed() *types.Type {
	if d.kind != Observer {
		return nil
	}
	return d.types[0]
}

// Qualifiers returns the tags used for matching. Beans include the implicit
// Any and, when nothing explicit was declared, Default.
func (d *Descriptor) Qualifiers() qualifier.Set { return d.qualifiers }

// Declared returns the tags exactly as declared.
func (d *Descriptor) Declared() qualifier.Set { return d.declared }

// Scope returns the scope tag.
func (d *Descriptor) Scope() string { return d.scope }

// Role returns the descriptor role.
func (d *Descriptor) Role() Role { return d.role }

// Specializes returns the identity this descriptor specializes, if any.
func (d *Descriptor) Specializes() string { return d.specializes }

// Delivery returns the delivery discipline of an observer.
func (d *Descriptor) Delivery() Delivery { return d.delivery }

// Phase returns the transaction phase of a deferred observer.
func (d *Descriptor) Phase() Phase { return d.phase }

// NeedsMetadata reports whether the observer wants request metadata.
func (d *Descriptor) NeedsMetadata() bool { return d.needsMetadata }

// Create runs the constructor.
func (d *Descriptor) Create(ctx context.Context) (any, error) {
	if d.create == nil {
		return nil, fmt.Errorf("%w: %s has no constructor", ErrInvalidDescriptor, d.id)
	}
	return d.create(ctx)
}

// Dispose runs the disposer, if any.
func (d *Descriptor) Dispose(instance any) {
	if d.dispose != nil {
		d.dispose(instance)
	}
}

// Disposer returns the disposal hook, or nil.
func (d *Descriptor) Disposer() Disposer { return d.dispose }

// Notify runs the observer handler.
func (d *Descriptor) Notify(ctx context.Context, payload any, md *metadata.Metadata) error {
	return d.handle(ctx, payload, md)
}

// String returns a short description for logs.
func (d *Descriptor) String() string {
	return d.kind.String() + "[" + d.id + "]"
}

// Option configures a descriptor under construction.
type Option func(*Descriptor)

// WithTypes adds explicit members to the type closure.
func WithTypes(ts ...*types.Type) Option {
	return func(d *Descriptor) { d.types = append(d.types, ts...) }
}

// WithClosureOf adds t and all of its supertypes to the type closure.
func WithClosureOf(t *types.Type) Option {
	return func(d *Descriptor) {
		if t != nil {
			d.types = append(d.types, types.Closure(t)...)
		}
	}
}

// WithQualifiers declares qualifying tags.
func WithQualifiers(tags ...qualifier.Tag) Option {
	return func(d *Descriptor) { d.declared = d.declared.With(tags...) }
}

// WithScope sets the scope tag.
func WithScope(scope string) Option {
	return func(d *Descriptor) { d.scope = scope }
}

// WithRole sets the descriptor role.
func WithRole(r Role) Option {
	return func(d *Descriptor) { d.role = r }
}

// WithSpecializes marks the descriptor as specializing the identity id.
func WithSpecializes(id string) Option {
	return func(d *Descriptor) { d.specializes = id }
}

// WithPhase makes an observer deferred to the given transaction phase.
// InProgress keeps it immediate.
func WithPhase(p Phase) Option {
	return func(d *Descriptor) {
		d.phase = p
		if p != InProgress {
			d.delivery = Deferred
		}
	}
}

// WithAsync makes an observer asynchronous.
func WithAsync() Option {
	return func(d *Descriptor) { d.delivery = Async }
}

// WithMetadata asks for request metadata at delivery time.
func WithMetadata() Option {
	return func(d *Descriptor) { d.needsMetadata = true }
}

// WithConstructor sets the bean constructor.
func WithConstructor(fn Constructor) Option {
	return func(d *Descriptor) { d.create = fn }
}

// WithDisposer sets the bean disposal hook.
func WithDisposer(fn Disposer) Option {
	return func(d *Descriptor) { d.dispose = fn }
}

// NewBean builds a bean descriptor. The type closure always contains Object.
func NewBean(id string, opts ...Option) (*Descriptor, error) {
	d := &Descriptor{id: id, kind: Bean, scope: DependentScope}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	d.types = dedupe(append(d.types, types.Object))
	d.qualifiers = d.declared.WithImplicit()
	return d, nil
}

// NewObserver builds an observer of the observed type.
func NewObserver(id string, observed *types.Type, fn Handler, opts ...Option) (*Descriptor, error) {
	d := &Descriptor{id: id, kind: Observer, handle: fn}
	if observed != nil {
		d.types = []*types.Type{observed}
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	d.qualifiers = d.declared
	return d, nil
}

// MustBean is like NewBean but panics on error.
func MustBean(id string, opts ...Option) *Descriptor {
	d, err := NewBean(id, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// MustObserver is like NewObserver but panics on error.
func MustObserver(id string, observed *types.Type, fn Handler, opts ...Option) *Descriptor {
	d, err := NewObserver(id, observed, fn, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Descriptor) validate() error {
	if d.id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDescriptor)
	}
	if d.role != Plain && d.role != Specialized {
		return fmt.Errorf("%w: %s has unknown role %d", ErrInvalidDescriptor, d.id, int(d.role))
	}
	if !d.phase.Valid() {
		return fmt.Errorf("%w: %s has unknown phase %d", ErrInvalidDescriptor, d.id, int(d.phase))
	}
	for _, t := range d.types {
		if t == nil {
			return fmt.Errorf("%w: %s declares a nil type", ErrInvalidDescriptor, d.id)
		}
	}
	switch d.kind {
	case Bean:
		if d.delivery != Immediate || d.phase != InProgress || d.needsMetadata {
			return fmt.Errorf("%w: %s is a bean and cannot declare a delivery discipline", ErrInvalidDescriptor, d.id)
		}
		if d.specializes == d.id {
			return fmt.Errorf("%w: %s specializes itself", ErrInvalidDescriptor, d.id)
		}
	case Observer:
		if len(d.types) != 1 {
			return fmt.Errorf("%w: observer %s must observe exactly one type", ErrInvalidDescriptor, d.id)
		}
		if d.handle == nil {
			return fmt.Errorf("%w: observer %s has no handler", ErrInvalidDescriptor, d.id)
		}
		if d.delivery == Async && d.phase != InProgress {
			return fmt.Errorf("%w: async observer %s cannot be transactional", ErrInvalidDescriptor, d.id)
		}
		if d.create != nil || d.dispose != nil || d.specializes != "" {
			return fmt.Errorf("%w: observer %s cannot declare bean options", ErrInvalidDescriptor, d.id)
		}
	}
	return nil
}

func dedupe(ts []*types.Type) []*types.Type {
	seen := make(map[string]struct{}, len(ts))
	out := ts[:0]
	for _, t := range ts {
		if _, ok := seen[t.Key()]; ok {
			continue
		}
		seen[t.Key()] = struct{}{}
		out = append(out, t)
	}
	return out
}
