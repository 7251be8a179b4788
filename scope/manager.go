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
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/component"
)

// Option configures a Manager.
type Option func(*Manager)

// WithHooks sets the observability hooks passed to every store.
func WithHooks(h apis.Hooks) Option {
	return func(m *Manager) {
		if h != nil {
			m.hooks = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// Manager owns the contexts of every registered scope tag and realizes
// descriptors as live instances. The dependent pseudo-scope is built in:
// it never stores and constructs on every Get.
type Manager struct {
	cfg   apis.Config
	hooks apis.Hooks
	log   zerolog.Logger

	mu       sync.RWMutex
	contexts map[string]*Context
}

// NewManager creates a manager with no registered scopes.
func NewManager(cfg apis.Config, opts ...Option) *Manager {
	m := &Manager{cfg: cfg, hooks: apis.NopHooks{}, log: zerolog.Nop(), contexts: map[string]*Context{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register declares the context of scope.
func (m *Manager) Register(scope string, opts ...ContextOption) (*Context, error) {
	if scope == "" || scope == component.DependentScope {
		return nil, fmt.Errorf("%w: %q is reserved", ErrDuplicateScope, scope)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contexts[scope]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateScope, scope)
	}
	c := newContext(scope, m.cfg, m.hooks, m.log, opts)
	m.contexts[scope] = c
	return c, nil
}

// Context returns the context registered for scope.
func (m *Manager) Context(scope string) (*Context, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contexts[scope]
	return c, ok
}

// Scopes returns the registered scope tags in lexical order.
func (m *Manager) Scopes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.contexts))
	for s := range m.contexts {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Get realizes d in its scope.
func (m *Manager) Get(ctx context.Context, d *component.Descriptor) (any, error) {
	if d.Scope() == component.DependentScope {
		return d.Create(ctx)
	}
	c, err := m.lookup(d.Scope())
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, d)
}

// Destroy disposes the stored instance of d. Dependent instances are not
// tracked and are ignored.
func (m *Manager) Destroy(ctx context.Context, d *component.Descriptor) error {
	if d.Scope() == component.DependentScope {
		return nil
	}
	c, err := m.lookup(d.Scope())
	if err != nil {
		return err
	}
	return c.Destroy(ctx, d.ID())
}

// Clear disposes every instance of scope's active store.
func (m *Manager) Clear(ctx context.Context, scope string) error {
	c, err := m.lookup(scope)
	if err != nil {
		return err
	}
	return c.Clear(ctx)
}

func (m *Manager) lookup(scope string) (*Context, error) {
	c, ok := m.Context(scope)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScope, scope)
	}
	return c, nil
}
