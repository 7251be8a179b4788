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
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/component"
)

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithBound binds activations to context.Context values instead of sharing
// one activation process-wide.
func WithBound() ContextOption {
	return func(c *Context) { c.bound = true }
}

// WithLazy defers store creation until Materialize.
func WithLazy() ContextOption {
	return func(c *Context) { c.lazy = true }
}

// WithMultithreaded sets whether construction takes per-identity locks.
func WithMultithreaded(on bool) ContextOption {
	return func(c *Context) { c.multithreaded = on }
}

// Context is the lifecycle boundary of one scope tag. Each activation owns
// at most one Store.
type Context struct {
	scope         string
	bound         bool
	lazy          bool
	multithreaded bool
	shards        int
	hooks         apis.Hooks
	log           zerolog.Logger

	// shared is the process-wide activation of an unbound context.
	shared atomic.Pointer[activation]
}

// activation is one active period of a Context.
type activation struct {
	id   string
	done atomic.Bool

	mu    sync.Mutex
	store *Store
}

type activationKey struct{ scope string }

func newContext(scope string, cfg apis.Config, hooks apis.Hooks, log zerolog.Logger, opts []ContextOption) *Context {
	c := &Context{
		scope:         scope,
		multithreaded: cfg.DefaultMultithreaded,
		shards:        cfg.LockStripes,
		hooks:         hooks,
		log:           log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scope returns the scope tag.
func (c *Context) Scope() string { return c.scope }

// Activate starts a new activation. Bound contexts return a derived
// context.Context carrying it; unbound contexts return ctx unchanged.
func (c *Context) Activate(ctx context.Context) (context.Context, error) {
	a := &activation{id: uuid.NewString()}
	if !c.lazy {
		a.store = c.newStore()
	}
	if c.bound {
		if c.Active(ctx) {
			return ctx, &alreadyActive{scope: c.scope}
		}
		c.log.Debug().Str("scope", c.scope).Str("activation", a.id).Msg("context activated")
		return context.WithValue(ctx, activationKey{c.scope}, a), nil
	}
	for {
		cur := c.shared.Load()
		if cur != nil && !cur.done.Load() {
			return ctx, &alreadyActive{scope: c.scope}
		}
		if c.shared.CompareAndSwap(cur, a) {
			c.log.Debug().Str("scope", c.scope).Str("activation", a.id).Msg("context activated")
			return ctx, nil
		}
	}
}

// Active reports whether an activation is in effect for ctx.
func (c *Context) Active(ctx context.Context) bool {
	return c.current(ctx) != nil
}

// ActivationID returns the identifier of the activation in effect.
func (c *Context) ActivationID(ctx context.Context) (string, bool) {
	a := c.current(ctx)
	if a == nil {
		return "", false
	}
	return a.id, true
}

// Materialize creates the store of a lazy activation. It is a no-op when
// the store exists.
func (c *Context) Materialize(ctx context.Context) error {
	a := c.current(ctx)
	if a == nil {
		return &ContextNotActiveError{Scope: c.scope}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		a.store = c.newStore()
	}
	return nil
}

// Deactivate ends the activation in effect and disposes its instances in
// insertion order.
func (c *Context) Deactivate(ctx context.Context) error {
	a := c.current(ctx)
	if a == nil {
		return &ContextNotActiveError{Scope: c.scope}
	}
	if !a.done.CompareAndSwap(false, true) {
		return &ContextNotActiveError{Scope: c.scope}
	}
	if !c.bound {
		c.shared.CompareAndSwap(a, nil)
	}
	a.mu.Lock()
	s := a.store
	a.store = nil
	a.mu.Unlock()
	if s != nil {
		s.Close()
	}
	c.log.Debug().Str("scope", c.scope).Str("activation", a.id).Msg("context deactivated")
	return nil
}

// Get returns the instance of d in the active store, constructing it once.
func (c *Context) Get(ctx context.Context, d *component.Descriptor) (any, error) {
	s, err := c.store(ctx)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, d.ID(), d.Create, d.Disposer())
}

// Destroy disposes the instance stored under id, if any.
func (c *Context) Destroy(ctx context.Context, id string) error {
	s, err := c.store(ctx)
	if err != nil {
		return err
	}
	s.Destroy(id)
	return nil
}

// Clear disposes every instance of the active store without deactivating.
func (c *Context) Clear(ctx context.Context) error {
	s, err := c.store(ctx)
	if err != nil {
		return err
	}
	s.Clear()
	return nil
}

// Store returns the active store.
func (c *Context) Store(ctx context.Context) (*Store, error) {
	return c.store(ctx)
}

func (c *Context) store(ctx context.Context) (*Store, error) {
	a := c.current(ctx)
	if a == nil {
		return nil, &ContextNotActiveError{Scope: c.scope}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		return nil, &NoStoreAvailableError{Scope: c.scope}
	}
	return a.store, nil
}

func (c *Context) current(ctx context.Context) *activation {
	var a *activation
	if c.bound {
		a, _ = ctx.Value(activationKey{c.scope}).(*activation)
	} else {
		a = c.shared.Load()
	}
	if a == nil || a.done.Load() {
		return nil
	}
	return a
}

func (c *Context) newStore() *Store {
	return NewStore(c.scope, c.multithreaded, c.shards, c.hooks, c.log)
}

// alreadyActive wraps ErrAlreadyActive with the scope tag.
type alreadyActive struct{ scope string }

func (e *alreadyActive) Error() string { return ErrAlreadyActive.Error() + ": " + e.scope }
func (e *alreadyActive) Unwrap() error { return ErrAlreadyActive }
