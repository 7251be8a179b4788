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

package scope

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/component"
)

// Store maps identities to live instances for one context activation.
// Construction is at most once per identity when the store is
// multithreaded; teardown follows insertion order.
type Store struct {
	scope         string
	multithreaded bool
	hooks         apis.Hooks
	log           zerolog.Logger

	// mu guards entries, order and closed. It is never held while a
	// constructor or disposer runs.
	mu      sync.Mutex
	entries map[string]*entry
	order   []*entry
	closed  bool

	// shards index the per-identity construction locks.
	shards []lockShard
}

// entry is one stored instance and its disposal hook.
type entry struct {
	id       string
	instance any
	dispose  component.Disposer
}

// lockShard holds the construction locks of the identities hashing to it.
// Its mutex only guards the map.
type lockShard struct {
	mu    sync.Mutex
	locks map[string]*idLock
}

// idLock serializes construction of one identity. refs counts holders and
// waiters; the lock is dropped from its shard when it reaches zero.
type idLock struct {
	mu   sync.Mutex
	refs int
}

// building is the chain of identities under construction on one call path.
type building struct {
	store  *Store
	id     string
	parent *building
}

type buildingKey struct{}

// NewStore creates an empty store. shards sizes the lock index of a
// multithreaded store and is ignored otherwise.
func NewStore(scope string, multithreaded bool, shards int, hooks apis.Hooks, log zerolog.Logger) *Store {
	if hooks == nil {
		hooks = apis.NopHooks{}
	}
	s := &Store{
		scope:         scope,
		multithreaded: multithreaded,
		hooks:         hooks,
		log:           log,
		entries:       map[string]*entry{},
	}
	if multithreaded {
		if shards <= 0 {
			shards = 1
		}
		s.shards = make([]lockShard, shards)
		for i := range s.shards {
			s.shards[i].locks = map[string]*idLock{}
		}
	}
	return s
}

// Get returns the instance stored under id, constructing it with create on
// a miss. A constructor error or a nil instance leaves the store unchanged.
// Constructors may realize other identities of the same store; realizing
// an identity from its own constructor fails with ErrCircularConstruction.
func (s *Store) Get(ctx context.Context, id string, create component.Constructor, dispose component.Disposer) (any, error) {
	if inst, ok := s.Instance(id); ok {
		return inst, nil
	}
	if s.Closed() {
		return nil, &ContextNotActiveError{Scope: s.scope}
	}
	if s.constructing(ctx, id) {
		return nil, &CircularConstructionError{Scope: s.scope, ID: id}
	}
	ctx = context.WithValue(ctx, buildingKey{}, &building{store: s, id: id, parent: parentBuilding(ctx)})
	if !s.multithreaded {
		return s.create(ctx, id, create, dispose)
	}

	l := s.lock(id)
	defer s.unlock(id, l)

	// Re-check under the identity lock.
	if inst, ok := s.Instance(id); ok {
		return inst, nil
	}
	return s.create(ctx, id, create, dispose)
}

func parentBuilding(ctx context.Context) *building {
	b, _ := ctx.Value(buildingKey{}).(*building)
	return b
}

// constructing reports whether id of s is already being built on this
// call path.
func (s *Store) constructing(ctx context.Context, id string) bool {
	for b := parentBuilding(ctx); b != nil; b = b.parent {
		if b.store == s && b.id == id {
			return true
		}
	}
	return false
}

func (s *Store) shard(id string) *lockShard {
	return &s.shards[xxhash.Sum64String(id)%uint64(len(s.shards))]
}

// lock acquires the construction lock of id.
func (s *Store) lock(id string) *idLock {
	sh := s.shard(id)
	sh.mu.Lock()
	l, ok := sh.locks[id]
	if !ok {
		l = &idLock{}
		sh.locks[id] = l
	}
	l.refs++
	sh.mu.Unlock()

	l.mu.Lock()
	return l
}

// unlock releases the construction lock of id.
func (s *Store) unlock(id string, l *idLock) {
	l.mu.Unlock()

	sh := s.shard(id)
	sh.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(sh.locks, id)
	}
	sh.mu.Unlock()
}

func (s *Store) create(ctx context.Context, id string, create component.Constructor, dispose component.Disposer) (any, error) {
	inst, err := create(ctx)
	if err != nil || inst == nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.dispose(&entry{id: id, instance: inst, dispose: dispose}, false)
		return nil, &ContextNotActiveError{Scope: s.scope}
	}
	if old, ok := s.entries[id]; ok {
		// Unlocked store raced another creator: keep the first.
		s.mu.Unlock()
		s.dispose(&entry{id: id, instance: inst, dispose: dispose}, false)
		return old.instance, nil
	}
	e := &entry{id: id, instance: inst, dispose: dispose}
	s.entries[id] = e
	s.order = append(s.order, e)
	s.mu.Unlock()

	s.hooks.InstanceCreated(s.scope)
	return inst, nil
}

// Instance returns the instance stored under id without constructing.
func (s *Store) Instance(id string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		return e.instance, true
	}
	return nil, false
}

// Len returns the number of stored instances.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Destroy removes id and disposes its instance. Absent identities are ignored.
func (s *Store) Destroy(id string) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
		for i, o := range s.order {
			if o == e {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	if ok {
		s.dispose(e, true)
	}
}

// Clear disposes every instance in insertion order and empties the store.
func (s *Store) Clear() { s.clear(false) }

// Close disposes every instance like Clear and rejects later constructions.
// Constructors still running when Close is called have their instance
// disposed and fail with a *ContextNotActiveError.
func (s *Store) Close() { s.clear(true) }

// Closed reports whether Close was called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Store) clear(closing bool) {
	s.mu.Lock()
	if closing {
		s.closed = true
	}
	order := s.order
	s.order = nil
	s.entries = map[string]*entry{}
	s.mu.Unlock()

	for _, e := range order {
		s.dispose(e, true)
	}
}

func (s *Store) dispose(e *entry, stored bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("scope", s.scope).Str("id", e.id).Interface("panic", r).Msg("disposer panicked")
		}
	}()
	if stored {
		s.hooks.InstanceDestroyed(s.scope)
	}
	if e.dispose != nil {
		e.dispose(e.instance)
	}
	s.log.Debug().Str("scope", s.scope).Str("id", e.id).Msg("instance disposed")
}
