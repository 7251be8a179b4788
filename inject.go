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

package inject

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/builder"
	"dirpx.dev/inject/component"
	"dirpx.dev/inject/config"
	"dirpx.dev/inject/executor"
	"dirpx.dev/inject/logging"
	"dirpx.dev/inject/metadata"
	"dirpx.dev/inject/metrics"
	"dirpx.dev/inject/notify"
	"dirpx.dev/inject/qualifier"
	"dirpx.dev/inject/registry"
	"dirpx.dev/inject/resolved"
	"dirpx.dev/inject/resolver"
	"dirpx.dev/inject/scope"
	"dirpx.dev/inject/types"
	ureflect "dirpx.dev/inject/utils/reflect"
)

var (
	// ErrNilRegistry is returned when a builder returns a nil registry.
	ErrNilRegistry = errors.New("inject: builder returned nil registry")
	// ErrNilResolver is returned when a builder returns a nil resolver.
	ErrNilResolver = errors.New("inject: builder returned nil resolver")
	// ErrUnsatisfied is returned by Instance when no component matches.
	ErrUnsatisfied = errors.New("inject: unsatisfied dependency")
	// ErrAmbiguous is returned by Instance when several components match.
	ErrAmbiguous = errors.New("inject: ambiguous dependency")
	// ErrFrozen is returned by Register after Freeze.
	ErrFrozen = errors.New("inject: container is frozen")
	// ErrNilPayload is returned when firing a nil payload without a type.
	ErrNilPayload = errors.New("inject: nil payload")
	// ErrShutdown is returned by operations on a shut down container.
	ErrShutdown = errors.New("inject: container is shut down")
)

// Option configures a Container.
type Option func(*options)

type options struct {
	cfg     apis.Config
	bld     apis.Builder
	ext     any
	log     zerolog.Logger
	hooks   apis.Hooks
	metrics *metrics.Collector
	tx      apis.TransactionServices
	exec    apis.Executor
}

// WithConfig sets the initial configuration.
func WithConfig(cfg apis.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithBuilder replaces the default builder. Custom builders are expected to
// reserve ContextLifecycle on observer resolvers.
func WithBuilder(b apis.Builder) Option {
	return func(o *options) {
		if b != nil {
			o.bld = b
		}
	}
}

// WithExt sets the extension value handed to the builder.
func WithExt(ext any) Option {
	return func(o *options) { o.ext = ext }
}

// WithLogger sets the logger. The configured LogLevel is applied on top.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithHooks sets the observability hooks. Without it the container builds
// a metrics.Collector named by the configured MetricsNamespace.
func WithHooks(h apis.Hooks) Option {
	return func(o *options) {
		if h != nil {
			o.hooks = h
		}
	}
}

// WithTransactions sets the transaction capability used by deferred observers.
func WithTransactions(tx apis.TransactionServices) Option {
	return func(o *options) { o.tx = tx }
}

// WithExecutor sets the executor of asynchronous deliveries. Without it the
// container starts and owns a pool sized from the configuration.
func WithExecutor(e apis.Executor) Option {
	return func(o *options) { o.exec = e }
}

// state is an immutable snapshot of the resolution layer.
type state struct {
	cfg       apis.Config
	ext       any
	reg       apis.Registry
	beans     apis.Resolver
	observers apis.Resolver
}

// Container resolves components, fires events and manages scope contexts.
// Reads go through an atomically published snapshot; writers rebuild the
// snapshot under buildMu.
type Container struct {
	st      atomic.Pointer[state]
	buildMu sync.Mutex
	frozen  atomic.Bool
	closed  atomic.Bool
	// gen is bumped by Clear so Event facades drop their cached sets.
	gen atomic.Uint64

	bld      apis.Builder
	hooks    apis.Hooks
	metrics  *metrics.Collector
	log      zerolog.Logger
	pool     *executor.Pool
	notifier *notify.Notifier
	scopes   *scope.Manager
}

// New creates a container.
func New(opts ...Option) *Container {
	o := options{cfg: config.DefaultConfig(), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log
	if o.cfg.LogLevel != "" {
		log = logging.WithLevel(log, o.cfg.LogLevel)
	}

	if o.hooks == nil {
		ns := o.cfg.MetricsNamespace
		if err := config.Validate(o.cfg); err != nil {
			log.Warn().Err(err).Msg("invalid configuration, using default metrics namespace")
			ns = config.DefaultMetricsNamespace
		}
		o.metrics = metrics.NewCollector(ns)
		o.hooks = o.metrics
	}

	c := &Container{bld: o.bld, hooks: o.hooks, metrics: o.metrics, log: log}
	if c.bld == nil {
		c.bld = builder.New(builder.WithLogger(log), builder.WithReserved(ContextLifecycle))
	}
	exec := o.exec
	if exec == nil {
		c.pool = executor.New(o.cfg, executor.WithLogger(log))
		exec = c.pool
	}
	c.scopes = scope.NewManager(o.cfg, scope.WithHooks(o.hooks), scope.WithLogger(log))
	c.notifier = notify.New(
		notify.WithTransactions(o.tx),
		notify.WithExecutor(exec),
		notify.WithHooks(o.hooks),
		notify.WithLogger(log),
	)
	c.st.Store(c.build(o.cfg, nil, o.ext))
	return c
}

// build assembles a snapshot, migrating descriptors from prev.
func (c *Container) build(cfg apis.Config, prev apis.Registry, ext any) *state {
	reg := c.bld.BuildRegistry(cfg, prev, ext)
	if reg == nil {
		panic(ErrNilRegistry)
	}
	if c.frozen.Load() {
		reg.Pin()
	}
	beans := c.bld.BuildResolver(cfg, reg, component.Bean, c.hooks)
	observers := c.bld.BuildResolver(cfg, reg, component.Observer, c.hooks)
	if beans == nil || observers == nil {
		panic(ErrNilResolver)
	}
	return &state{cfg: cfg, ext: ext, reg: reg, beans: beans, observers: observers}
}

// Register adds descriptors in order. It stops at the first failure.
func (c *Container) Register(ds ...*component.Descriptor) error {
	if c.frozen.Load() {
		return ErrFrozen
	}
	reg := c.st.Load().reg
	for _, d := range ds {
		if err := reg.Register(d); err != nil {
			if errors.Is(err, registry.ErrPinned) {
				return fmt.Errorf("%w: %w", ErrFrozen, err)
			}
			return err
		}
	}
	return nil
}

// Freeze ends registration. Every specialization chain is walked once, so a
// cycle or a missing target is reported here instead of at resolution time.
func (c *Container) Freeze() error {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	s := c.st.Load()
	var merr *multierror.Error
	for _, kind := range []component.Kind{component.Bean, component.Observer} {
		for _, d := range s.reg.Entries(kind) {
			if d.Specializes() == "" {
				continue
			}
			if _, err := s.reg.MostSpecializing(d.Specializes()); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("%s: %w", d.ID(), err))
			}
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return err
	}
	s.reg.Pin()
	c.frozen.Store(true)
	c.log.Info().Int("descriptors", s.reg.Count()).Msg("container frozen")
	return nil
}

// Metrics returns the collector the container built for itself, or nil
// when hooks were supplied with WithHooks.
func (c *Container) Metrics() *metrics.Collector { return c.metrics }

// Frozen reports whether Freeze succeeded.
func (c *Container) Frozen() bool { return c.frozen.Load() }

// Resolve returns the components matching t and tags.
func (c *Container) Resolve(t *types.Type, tags ...qualifier.Tag) (*resolved.Set, error) {
	return c.st.Load().beans.Resolve(resolver.NewLookup(t, tags...))
}

// ResolveObservers returns the observers of an event of runtime type t
// fired with tags.
func (c *Container) ResolveObservers(t *types.Type, tags ...qualifier.Tag) (*resolved.Set, error) {
	return c.st.Load().observers.Resolve(resolver.NewEvent(t, tags...))
}

// Instance returns the single component matching t and tags, realized in
// its scope. Without tags it looks up the Default component.
func (c *Container) Instance(ctx context.Context, t *types.Type, tags ...qualifier.Tag) (any, error) {
	if len(tags) == 0 {
		tags = []qualifier.Tag{qualifier.Default}
	}
	set, err := c.Resolve(t, tags...)
	if err != nil {
		return nil, err
	}
	switch set.Len() {
	case 0:
		return nil, fmt.Errorf("%w: %s %s", ErrUnsatisfied, t, qualifier.NewSet(tags...))
	case 1:
		return c.scopes.Get(ctx, set.All()[0])
	default:
		ids := make([]string, 0, set.Len())
		for _, d := range set.All() {
			ids = append(ids, d.ID())
		}
		return nil, fmt.Errorf("%w: %s %s matches %v", ErrAmbiguous, t, qualifier.NewSet(tags...), ids)
	}
}

// Fire delivers payload as an event of runtime type t to immediate and
// deferred observers.
func (c *Container) Fire(ctx context.Context, t *types.Type, payload any, tags ...qualifier.Tag) error {
	return c.fire(ctx, resolver.NewEvent(t, tags...), payload, "Container.Fire")
}

// FireAsync delivers payload to asynchronous observers in the background.
// Resolution failures complete the returned future immediately.
func (c *Container) FireAsync(ctx context.Context, t *types.Type, payload any, tags ...qualifier.Tag) *notify.Future {
	return c.fireAsync(ctx, resolver.NewEvent(t, tags...), payload, "Container.FireAsync")
}

// FireValue is Fire with the runtime type taken from payload.
func (c *Container) FireValue(ctx context.Context, payload any, tags ...qualifier.Tag) error {
	t, err := TypeOf(payload)
	if err != nil {
		return err
	}
	return c.fire(ctx, resolver.NewEvent(t, tags...), payload, "Container.FireValue")
}

// TypeOf returns the runtime type of payload: its declared type when it
// implements types.Typed, otherwise the normalized Go type.
func TypeOf(payload any) (*types.Type, error) {
	if payload == nil {
		return nil, ErrNilPayload
	}
	if typed, ok := payload.(types.Typed); ok {
		if t := typed.DeclaredType(); t != nil {
			return t, nil
		}
	}
	return ureflect.Normalize(reflect.TypeOf(payload))
}

func (c *Container) fire(ctx context.Context, req apis.Request, payload any, origin string) error {
	if c.closed.Load() {
		return ErrShutdown
	}
	set, err := c.st.Load().observers.Resolve(req)
	if err != nil {
		return err
	}
	return c.notifier.NotifySync(ctx, set, payload, c.metadata(set, req, origin))
}

func (c *Container) fireAsync(ctx context.Context, req apis.Request, payload any, origin string) *notify.Future {
	if c.closed.Load() {
		return notify.Failed(ErrShutdown)
	}
	set, err := c.st.Load().observers.Resolve(req)
	if err != nil {
		return notify.Failed(err)
	}
	return c.notifier.NotifyAsync(ctx, set, payload, c.metadata(set, req, origin), nil)
}

// metadata is only built when some observer asks for it.
func (c *Container) metadata(set *resolved.Set, req apis.Request, origin string) *metadata.Metadata {
	if !set.MetadataRequired() {
		return nil
	}
	return metadata.New(req.Type, req.Qualifiers, origin)
}

// Event returns a facade firing events of type t with tags.
func (c *Container) Event(t *types.Type, tags ...qualifier.Tag) *Event {
	return newEvent(c, t, tags)
}

// RegisterScope declares a scope context.
func (c *Container) RegisterScope(name string, opts ...scope.ContextOption) error {
	_, err := c.scopes.Register(name, opts...)
	return err
}

// Scopes returns the registered scope tags.
func (c *Container) Scopes() []string { return c.scopes.Scopes() }

// ActivateContext activates the context of name and fires the Initialized
// lifecycle event. Bound contexts are carried by the returned context.
func (c *Container) ActivateContext(ctx context.Context, name string) (context.Context, error) {
	sc, ok := c.scopes.Context(name)
	if !ok {
		return ctx, fmt.Errorf("%w: %s", scope.ErrUnknownScope, name)
	}
	ctx, err := sc.Activate(ctx)
	if err != nil {
		return ctx, err
	}
	id, _ := sc.ActivationID(ctx)
	c.log.Debug().Str("scope", name).Str("activation", id).Msg("scope context activated")
	ev := ContextEvent{Scope: name, Activation: id}
	if err := c.fire(ctx, resolver.NewPrivilegedEvent(ContextLifecycle, Initialized(name)), ev, "Container.ActivateContext"); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// DeactivateContext deactivates the context of name, disposing its
// instances, and fires the Destroyed lifecycle event.
func (c *Container) DeactivateContext(ctx context.Context, name string) error {
	sc, ok := c.scopes.Context(name)
	if !ok {
		return fmt.Errorf("%w: %s", scope.ErrUnknownScope, name)
	}
	id, _ := sc.ActivationID(ctx)
	if err := sc.Deactivate(ctx); err != nil {
		return err
	}
	c.log.Debug().Str("scope", name).Str("activation", id).Msg("scope context deactivated")
	ev := ContextEvent{Scope: name, Activation: id}
	return c.fire(ctx, resolver.NewPrivilegedEvent(ContextLifecycle, Destroyed(name)), ev, "Container.DeactivateContext")
}

// Destroy disposes the stored instance of d in its active context.
func (c *Container) Destroy(ctx context.Context, d *component.Descriptor) error {
	return c.scopes.Destroy(ctx, d)
}

// Config returns the current configuration.
func (c *Container) Config() apis.Config { return c.st.Load().cfg }

// SetConfig rebuilds the registry and resolvers for cfg, migrating every
// registered descriptor. Scope and executor settings are fixed at New.
func (c *Container) SetConfig(cfg apis.Config) {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	old := c.st.Load()
	c.st.Store(c.build(cfg, old.reg, old.ext))
	c.gen.Add(1)
	c.log.Debug().Bool("strict", cfg.Strict).Msg("configuration replaced")
}

// Clear drops every memoized resolution.
func (c *Container) Clear() {
	s := c.st.Load()
	s.beans.Clear()
	s.observers.Clear()
	c.gen.Add(1)
}

// Shutdown deactivates every active context, firing their Destroyed events,
// and stops the owned executor after queued deliveries drain. Failures are
// collected.
func (c *Container) Shutdown(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrShutdown
	}
	var merr *multierror.Error
	for _, name := range c.scopes.Scopes() {
		sc, _ := c.scopes.Context(name)
		if sc == nil || !sc.Active(ctx) {
			continue
		}
		id, _ := sc.ActivationID(ctx)
		if err := sc.Deactivate(ctx); err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		ev := ContextEvent{Scope: name, Activation: id}
		req := resolver.NewPrivilegedEvent(ContextLifecycle, Destroyed(name))
		set, err := c.st.Load().observers.Resolve(req)
		if err == nil {
			err = c.notifier.NotifySync(ctx, set, ev, c.metadata(set, req, "Container.Shutdown"))
		}
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if c.pool != nil {
		c.pool.Close()
	}
	c.log.Info().Msg("container shut down")
	return merr.ErrorOrNil()
}
