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

// Package notify delivers payloads to resolved observers under three
// disciplines.
//
// Immediate observers run on the caller's goroutine and stop at the first
// failure. Deferred observers are registered with the active transaction and
// run at their phase; with no transaction they run like immediate ones.
// Asynchronous observers run serially inside one background task, every
// failure is collected and the returned Future reports them together.
//
// Request metadata is pushed onto the context before a bucket is entered,
// so observers that fire nested requests see the whole chain.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/component"
	"dirpx.dev/inject/executor"
	"dirpx.dev/inject/metadata"
	"dirpx.dev/inject/resolved"
)

// Option configures a Notifier.
type Option func(*Notifier)

// WithTransactions sets the transaction capability used for deferred delivery.
func WithTransactions(tx apis.TransactionServices) Option {
	return func(n *Notifier) { n.tx = tx }
}

// WithExecutor sets the default executor for asynchronous delivery.
func WithExecutor(e apis.Executor) Option {
	return func(n *Notifier) {
		if e != nil {
			n.exec = e
		}
	}
}

// WithHooks sets the observability hooks.
func WithHooks(h apis.Hooks) Option {
	return func(n *Notifier) {
		if h != nil {
			n.hooks = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(n *Notifier) { n.log = l }
}

// Notifier dispatches payloads to resolved sets.
type Notifier struct {
	tx    apis.TransactionServices
	exec  apis.Executor
	hooks apis.Hooks
	log   zerolog.Logger
}

// New constructs a Notifier. Without WithExecutor it uses executor.Default;
// without WithTransactions no transaction is ever active.
func New(opts ...Option) *Notifier {
	n := &Notifier{hooks: apis.NopHooks{}, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(n)
	}
	if n.exec == nil {
		n.exec = executor.Default()
	}
	return n
}

// NotifySync delivers to the immediate bucket and then the deferred bucket,
// in order, on the calling goroutine. The first failure stops delivery and is
// returned as a *DeliveryError. Deferred observers are handed to the active
// transaction when there is one; see NotifyDeferred.
func (n *Notifier) NotifySync(ctx context.Context, set *resolved.Set, payload any, md *metadata.Metadata) error {
	if set.IsEmpty() {
		return nil
	}
	if err := n.serial(metadata.Push(ctx, md), set.Immediate(), payload, md); err != nil {
		return err
	}
	return n.NotifyDeferred(ctx, set, payload, md)
}

// NotifyDeferred registers the deferred bucket with the active transaction
// as one synchronization. With no active transaction the bucket is delivered
// immediately with fail-fast semantics.
func (n *Notifier) NotifyDeferred(ctx context.Context, set *resolved.Set, payload any, md *metadata.Metadata) error {
	deferred := set.Deferred()
	if len(deferred) == 0 {
		return nil
	}
	if n.tx == nil || !n.tx.IsTransactionActive(ctx) {
		return n.serial(metadata.Push(ctx, md), deferred, payload, md)
	}
	s := newSynchronization(n, context.WithoutCancel(ctx), deferred, payload, md)
	if err := n.tx.RegisterSynchronization(ctx, s); err != nil {
		return fmt.Errorf("inject(notify): register synchronization: %w", err)
	}
	return nil
}

// NotifyAsync schedules the asynchronous bucket as one task on exec, or on
// the notifier's executor when exec is nil. The future completes with
// payload when every observer succeeded, otherwise with an *AggregateError.
// An empty bucket yields a future that is already complete.
func (n *Notifier) NotifyAsync(ctx context.Context, set *resolved.Set, payload any, md *metadata.Metadata, exec apis.Executor) *Future {
	async := set.Async()
	if len(async) == 0 {
		return completed(payload, nil)
	}
	if exec == nil {
		exec = n.exec
	}
	md = md.AsAsync()
	base := metadata.Push(context.WithoutCancel(ctx), md)
	f := newFuture()
	err := exec.Submit(func() {
		if !f.start() {
			return
		}
		var c collector
		for _, d := range async {
			c.add(n.deliver(base, d, payload, md))
		}
		err := c.result()
		if err != nil {
			n.log.Warn().Err(err).Int("observers", len(async)).Msg("asynchronous delivery failed")
			f.finish(nil, err)
			return
		}
		f.finish(payload, nil)
	})
	if err != nil {
		f.fail(fmt.Errorf("inject(notify): schedule asynchronous delivery: %w", err))
	}
	return f
}

// serial delivers ds in order and stops at the first failure.
func (n *Notifier) serial(ctx context.Context, ds []*component.Descriptor, payload any, md *metadata.Metadata) error {
	for _, d := range ds {
		if err := n.deliver(ctx, d, payload, md); err != nil {
			n.log.Debug().Err(err).Str("observer", d.ID()).Msg("synchronous delivery failed")
			return err
		}
	}
	return nil
}

// deliver invokes one observer, converting errors and panics into a
// *DeliveryError.
func (n *Notifier) deliver(ctx context.Context, d *component.Descriptor, payload any, md *metadata.Metadata) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &DeliveryError{Observer: d.ID(), Delivery: d.Delivery(), Err: fmt.Errorf("panic: %v", r)}
		}
		n.hooks.Delivered(d.Delivery(), err)
	}()
	var arg *metadata.Metadata
	if d.NeedsMetadata() {
		arg = md
	}
	if err := d.Notify(ctx, payload, arg); err != nil {
		return &DeliveryError{Observer: d.ID(), Delivery: d.Delivery(), Err: err}
	}
	return nil
}
