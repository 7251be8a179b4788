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

package registry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/component"
)

var (
	// ErrNilDescriptor is returned when a nil descriptor is provided.
	ErrNilDescriptor = errors.New("inject(registry): nil descriptor provided")
	// ErrConflictingRegistration indicates an attempt to register a different
	// descriptor under an identity already in use.
	ErrConflictingRegistration = errors.New("inject(registry): conflicting descriptor registration")
	// ErrPinned is returned by Register once the pool is pinned.
	ErrPinned = errors.New("inject(registry): registry is pinned")
	// ErrUnknownDescriptor is returned for identities never registered.
	ErrUnknownDescriptor = errors.New("inject(registry): unknown descriptor")
	// ErrSpecializationCycle is returned when a specialization chain loops.
	ErrSpecializationCycle = errors.New("inject(registry): specialization cycle")
)

// Option configures a registry.
type Option func(*registry)

// WithLogger sets the logger used for registration events.
func WithLogger(l zerolog.Logger) Option {
	return func(r *registry) { r.log = l }
}

// New constructs an empty descriptor pool.
func New(opts ...Option) apis.Registry {
	r := &registry{log: zerolog.Nop(), specializedBy: map[string]string{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// registry is an ordered descriptor pool. Reads of single descriptors go
// through sync.Map; ordered snapshots and writes go through mu.
type registry struct {
	log zerolog.Logger
	// mu guards order, specializedBy and write-side consistency.
	mu sync.Mutex
	// m maps identity to descriptor.
	m sync.Map // map[string]*component.Descriptor
	// order keeps registration order.
	order []*component.Descriptor
	// specializedBy maps an identity to the identity specializing it.
	specializedBy map[string]string
	version       atomic.Uint64
	pinned        atomic.Bool
}

// Register appends d to the pool. It is idempotent for the same descriptor.
func (r *registry) Register(d *component.Descriptor) error {
	if d == nil {
		return ErrNilDescriptor
	}

	// Fast read path: idempotency / conflict check without locking.
	if old, ok := r.m.Load(d.ID()); ok {
		if old.(*component.Descriptor) == d {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrConflictingRegistration, d.ID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pinned.Load() {
		return fmt.Errorf("%w: cannot register %s", ErrPinned, d.ID())
	}
	// Re-check under lock in case another goroutine stored meanwhile.
	if old, ok := r.m.Load(d.ID()); ok {
		if old.(*component.Descriptor) == d {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrConflictingRegistration, d.ID())
	}
	if target := d.Specializes(); target != "" {
		if other, ok := r.specializedBy[target]; ok {
			return fmt.Errorf("%w: %s and %s both specialize %s", ErrConflictingRegistration, other, d.ID(), target)
		}
		r.specializedBy[target] = d.ID()
	}

	r.m.Store(d.ID(), d)
	r.order = append(r.order, d)
	r.version.Add(1)
	r.log.Debug().Str("id", d.ID()).Stringer("kind", d.Kind()).Msg("descriptor registered")
	return nil
}

// Lookup returns the descriptor registered under id.
func (r *registry) Lookup(id string) (*component.Descriptor, bool) {
	if v, ok := r.m.Load(id); ok {
		return v.(*component.Descriptor), true
	}
	return nil, false
}

// Entries returns a snapshot of descriptors of kind in registration order.
func (r *registry) Entries(kind component.Kind) []*component.Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*component.Descriptor, 0, len(r.order))
	for _, d := range r.order {
		if d.Kind() == kind {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the number of registered descriptors.
func (r *registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Version increases on every change to the pool.
func (r *registry) Version() uint64 { return r.version.Load() }

// Reset clears all descriptors and unpins the pool.
func (r *registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m.Range(func(key, _ any) bool {
		r.m.Delete(key)
		return true
	})
	r.order = nil
	r.specializedBy = map[string]string{}
	r.pinned.Store(false)
	r.version.Add(1)
}

// Pin rejects further registrations.
func (r *registry) Pin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.pinned.Swap(true) {
		r.log.Debug().Int("descriptors", len(r.order)).Msg("registry pinned")
	}
}

// Pinned reports whether the pool rejects registrations.
func (r *registry) Pinned() bool { return r.pinned.Load() }

// MostSpecializing follows the chain of descriptors specializing id and
// returns its end. A descriptor nobody specializes is its own answer.
func (r *registry) MostSpecializing(id string) (*component.Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.m.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDescriptor, id)
	}
	seen := map[string]struct{}{id: {}}
	curID := id
	for {
		next, ok := r.specializedBy[curID]
		if !ok {
			return cur.(*component.Descriptor), nil
		}
		if _, dup := seen[next]; dup {
			return nil, fmt.Errorf("%w: %s reaches %s again", ErrSpecializationCycle, id, next)
		}
		seen[next] = struct{}{}
		d, ok := r.m.Load(next)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDescriptor, next)
		}
		cur, curID = d, next
	}
}
