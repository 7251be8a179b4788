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

package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/component"
	"dirpx.dev/inject/metadata"
	"dirpx.dev/inject/notify"
	"dirpx.dev/inject/qualifier"
	"dirpx.dev/inject/resolved"
	"dirpx.dev/inject/txn"
	"dirpx.dev/inject/types"
)

var event = types.MustDeclare("OrderPlaced")

// journal records observer invocations in order.
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, id)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

func recording(j *journal, id string, fail error) component.Handler {
	return func(context.Context, any, *metadata.Metadata) error {
		j.add(id)
		return fail
	}
}

func set(ds ...*component.Descriptor) *resolved.Set { return resolved.Partition(ds) }

// goExecutor runs every task on a fresh goroutine.
var goExecutor = apis.ExecutorFunc(func(task func()) error {
	go task()
	return nil
})

// parked holds tasks until release is called.
type parked struct {
	mu    sync.Mutex
	tasks []func()
}

func (p *parked) Submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, task)
	return nil
}

func (p *parked) release() {
	p.mu.Lock()
	tasks := p.tasks
	p.tasks = nil
	p.mu.Unlock()
	for _, task := range tasks {
		task()
	}
}

func wait(t *testing.T, f *notify.Future) (any, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.Wait(ctx)
}

func TestNotifySyncEmptySetIsNoop(t *testing.T) {
	n := notify.New(notify.WithExecutor(goExecutor))
	assert.NoError(t, n.NotifySync(context.Background(), resolved.Empty, "payload", nil))
}

func TestNotifySyncStopsAtFirstFailure(t *testing.T) {
	j := &journal{}
	boom := errors.New("boom")
	s := set(
		component.MustObserver("first", event, recording(j, "first", nil)),
		component.MustObserver("second", event, recording(j, "second", boom)),
		component.MustObserver("third", event, recording(j, "third", nil)),
	)

	err := notify.New(notify.WithExecutor(goExecutor)).NotifySync(context.Background(), s, "payload", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, notify.ErrDelivery)

	var de *notify.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "second", de.Observer)
	assert.Equal(t, component.Immediate, de.Delivery)
	assert.Equal(t, []string{"first", "second"}, j.list())
}

func TestNotifySyncRecoversPanics(t *testing.T) {
	s := set(component.MustObserver("panicky", event, func(context.Context, any, *metadata.Metadata) error {
		panic("kaboom")
	}))

	err := notify.New(notify.WithExecutor(goExecutor)).NotifySync(context.Background(), s, nil, nil)
	var de *notify.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "panicky", de.Observer)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestNotifySyncSkipsAsyncObservers(t *testing.T) {
	j := &journal{}
	s := set(
		component.MustObserver("sync", event, recording(j, "sync", nil)),
		component.MustObserver("async", event, recording(j, "async", nil), component.WithAsync()),
	)
	require.NoError(t, notify.New(notify.WithExecutor(goExecutor)).NotifySync(context.Background(), s, nil, nil))
	assert.Equal(t, []string{"sync"}, j.list())
}

func TestNotifyAsyncCollectsAllFailures(t *testing.T) {
	j := &journal{}
	boom := errors.New("boom")
	s := set(
		component.MustObserver("failing", event, recording(j, "failing", boom), component.WithAsync()),
		component.MustObserver("succeeding", event, recording(j, "succeeding", nil), component.WithAsync()),
	)

	f := notify.New().NotifyAsync(context.Background(), s, "payload", nil, goExecutor)
	v, err := wait(t, f)
	require.Error(t, err)
	assert.Nil(t, v)

	var agg *notify.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Equal(t, 1, agg.Len())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"failing", "succeeding"}, j.list())
}

func TestNotifyAsyncCompletesWithPayload(t *testing.T) {
	j := &journal{}
	s := set(component.MustObserver("async", event, recording(j, "async", nil), component.WithAsync()))

	v, err := wait(t, notify.New().NotifyAsync(context.Background(), s, "payload", nil, goExecutor))
	require.NoError(t, err)
	assert.Equal(t, "payload", v)
	assert.Equal(t, []string{"async"}, j.list())
}

func TestNotifyAsyncEmptyBucketIsComplete(t *testing.T) {
	f := notify.New(notify.WithExecutor(goExecutor)).NotifyAsync(context.Background(), resolved.Empty, "payload", nil, nil)
	select {
	case <-f.Done():
	default:
		t.Fatal("future for an empty bucket should already be complete")
	}
	v, err := wait(t, f)
	require.NoError(t, err)
	assert.Equal(t, "payload", v)
}

func TestNotifyAsyncCancelBeforeStart(t *testing.T) {
	j := &journal{}
	exec := &parked{}
	s := set(component.MustObserver("async", event, recording(j, "async", nil), component.WithAsync()))

	f := notify.New().NotifyAsync(context.Background(), s, "payload", nil, exec)
	assert.True(t, f.Cancel())
	assert.True(t, f.Cancelled())
	assert.False(t, f.Cancel())

	exec.release()
	_, err := wait(t, f)
	assert.ErrorIs(t, err, notify.ErrCancelled)
	assert.Empty(t, j.list())
}

func TestNotifyAsyncCancelAfterCompletion(t *testing.T) {
	exec := &parked{}
	s := set(component.MustObserver("async", event, func(context.Context, any, *metadata.Metadata) error { return nil }, component.WithAsync()))

	f := notify.New().NotifyAsync(context.Background(), s, "payload", nil, exec)
	exec.release()
	assert.False(t, f.Cancel())
	assert.False(t, f.Cancelled())
	assert.NoError(t, f.Err())
}

func TestNotifyAsyncSubmitFailure(t *testing.T) {
	full := errors.New("queue full")
	exec := apis.ExecutorFunc(func(func()) error { return full })
	s := set(component.MustObserver("async", event, func(context.Context, any, *metadata.Metadata) error { return nil }, component.WithAsync()))

	_, err := wait(t, notify.New().NotifyAsync(context.Background(), s, nil, nil, exec))
	assert.ErrorIs(t, err, full)
}

func TestNotifyAsyncMarksMetadataAsync(t *testing.T) {
	var got *metadata.Metadata
	s := set(component.MustObserver("async", event, func(_ context.Context, _ any, md *metadata.Metadata) error {
		got = md
		return nil
	}, component.WithAsync(), component.WithMetadata()))
	md := metadata.New(event, qualifier.NewSet(qualifier.Any), "test")

	_, err := wait(t, notify.New().NotifyAsync(context.Background(), s, nil, md, goExecutor))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Async)
	assert.Equal(t, md.ID, got.ID)
	assert.False(t, md.Async)
}

func TestNotifyDeferredWithoutTransactionRunsImmediately(t *testing.T) {
	j := &journal{}
	s := set(component.MustObserver("deferred", event, recording(j, "deferred", nil), component.WithPhase(component.AfterSuccess)))

	n := notify.New(notify.WithTransactions(txn.NewManager()), notify.WithExecutor(goExecutor))
	require.NoError(t, n.NotifySync(context.Background(), s, nil, nil))
	assert.Equal(t, []string{"deferred"}, j.list())
}

func TestNotifyDeferredRunsAtPhase(t *testing.T) {
	j := &journal{}
	s := set(
		component.MustObserver("immediate", event, recording(j, "immediate", nil)),
		component.MustObserver("before", event, recording(j, "before", nil), component.WithPhase(component.BeforeCompletion)),
		component.MustObserver("after", event, recording(j, "after", nil), component.WithPhase(component.AfterCompletion)),
		component.MustObserver("success", event, recording(j, "success", nil), component.WithPhase(component.AfterSuccess)),
		component.MustObserver("failure", event, recording(j, "failure", nil), component.WithPhase(component.AfterFailure)),
	)

	tm := txn.NewManager()
	n := notify.New(notify.WithTransactions(tm), notify.WithExecutor(goExecutor))
	ctx, tx := tm.Begin(context.Background())

	require.NoError(t, n.NotifySync(ctx, s, nil, nil))
	assert.Equal(t, []string{"immediate"}, j.list())

	require.NoError(t, tx.Commit())
	assert.Equal(t, []string{"immediate", "before", "after", "success"}, j.list())
}

func TestNotifyDeferredRollback(t *testing.T) {
	j := &journal{}
	s := set(
		component.MustObserver("before", event, recording(j, "before", nil), component.WithPhase(component.BeforeCompletion)),
		component.MustObserver("success", event, recording(j, "success", nil), component.WithPhase(component.AfterSuccess)),
		component.MustObserver("failure", event, recording(j, "failure", nil), component.WithPhase(component.AfterFailure)),
	)

	tm := txn.NewManager()
	n := notify.New(notify.WithTransactions(tm), notify.WithExecutor(goExecutor))
	ctx, tx := tm.Begin(context.Background())
	require.NoError(t, n.NotifyDeferred(ctx, s, nil, nil))
	assert.Empty(t, j.list())

	require.NoError(t, tx.Rollback())
	assert.Equal(t, []string{"failure"}, j.list())
}

func TestNotifyDeferredBeforeCompletionFailureRollsBack(t *testing.T) {
	j := &journal{}
	boom := errors.New("boom")
	s := set(
		component.MustObserver("before", event, recording(j, "before", boom), component.WithPhase(component.BeforeCompletion)),
		component.MustObserver("success", event, recording(j, "success", nil), component.WithPhase(component.AfterSuccess)),
		component.MustObserver("failure", event, recording(j, "failure", nil), component.WithPhase(component.AfterFailure)),
	)

	tm := txn.NewManager()
	n := notify.New(notify.WithTransactions(tm), notify.WithExecutor(goExecutor))
	ctx, tx := tm.Begin(context.Background())
	require.NoError(t, n.NotifyDeferred(ctx, s, nil, nil))

	err := tx.Commit()
	assert.ErrorIs(t, err, txn.ErrRolledBack)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, apis.StatusRolledBack, tx.Status())
	assert.Equal(t, []string{"before", "failure"}, j.list())
}

func TestNotifyDeferredAfterCompletionCollectsFailures(t *testing.T) {
	j := &journal{}
	boom := errors.New("boom")
	s := set(
		component.MustObserver("a", event, recording(j, "a", boom), component.WithPhase(component.AfterCompletion)),
		component.MustObserver("b", event, recording(j, "b", boom), component.WithPhase(component.AfterSuccess)),
	)

	tm := txn.NewManager()
	n := notify.New(notify.WithTransactions(tm), notify.WithExecutor(goExecutor))
	ctx, tx := tm.Begin(context.Background())
	require.NoError(t, n.NotifyDeferred(ctx, s, nil, nil))

	err := tx.Commit()
	assert.ErrorIs(t, err, txn.ErrSynchronization)
	var agg *notify.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Equal(t, 2, agg.Len())
	assert.Equal(t, []string{"a", "b"}, j.list())
}

func TestNotifyDeferredRunsAfterCallerCancels(t *testing.T) {
	var sawErr error
	s := set(component.MustObserver("after", event, func(ctx context.Context, _ any, _ *metadata.Metadata) error {
		sawErr = ctx.Err()
		return nil
	}, component.WithPhase(component.AfterSuccess)))

	tm := txn.NewManager()
	n := notify.New(notify.WithTransactions(tm), notify.WithExecutor(goExecutor))
	parent, cancel := context.WithCancel(context.Background())
	ctx, tx := tm.Begin(parent)
	require.NoError(t, n.NotifyDeferred(ctx, s, nil, nil))
	cancel()

	require.NoError(t, tx.Commit())
	assert.NoError(t, sawErr)
}

func TestMetadataOnlyForObserversThatAskForIt(t *testing.T) {
	var with, without *metadata.Metadata
	s := set(
		component.MustObserver("with", event, func(_ context.Context, _ any, md *metadata.Metadata) error {
			with = md
			return nil
		}, component.WithMetadata()),
		component.MustObserver("without", event, func(_ context.Context, _ any, md *metadata.Metadata) error {
			without = md
			return nil
		}),
	)
	md := metadata.New(event, qualifier.NewSet(qualifier.Any), "test")

	require.NoError(t, notify.New(notify.WithExecutor(goExecutor)).NotifySync(context.Background(), s, nil, md))
	assert.Same(t, md, with)
	assert.Nil(t, without)
}

func TestNestedFiresStackMetadata(t *testing.T) {
	inner := types.MustDeclare("InvoiceIssued")
	n := notify.New(notify.WithExecutor(goExecutor))
	outerMD := metadata.New(event, qualifier.NewSet(qualifier.Any), "outer")
	innerMD := metadata.New(inner, qualifier.NewSet(qualifier.Any), "inner")

	var depth int
	var stack []*metadata.Metadata
	innerSet := set(component.MustObserver("inner", inner, func(ctx context.Context, _ any, _ *metadata.Metadata) error {
		depth = metadata.Depth(ctx)
		stack = metadata.Stack(ctx)
		return nil
	}))
	outerSet := set(component.MustObserver("outer", event, func(ctx context.Context, _ any, _ *metadata.Metadata) error {
		return n.NotifySync(ctx, innerSet, nil, innerMD)
	}))

	ctx := context.Background()
	require.NoError(t, n.NotifySync(ctx, outerSet, nil, outerMD))
	assert.Equal(t, 2, depth)
	require.Len(t, stack, 2)
	assert.Same(t, innerMD, stack[0])
	assert.Same(t, outerMD, stack[1])
	assert.Nil(t, metadata.Current(ctx))
}

type countingHooks struct {
	apis.NopHooks
	mu     sync.Mutex
	ok     int
	failed int
}

func (h *countingHooks) Delivered(_ component.Delivery, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.failed++
		return
	}
	h.ok++
}

func TestHooksSeeEveryDelivery(t *testing.T) {
	h := &countingHooks{}
	s := set(
		component.MustObserver("ok", event, func(context.Context, any, *metadata.Metadata) error { return nil }),
		component.MustObserver("bad", event, func(context.Context, any, *metadata.Metadata) error { return errors.New("bad") }),
	)
	_ = notify.New(notify.WithHooks(h), notify.WithExecutor(goExecutor)).NotifySync(context.Background(), s, nil, nil)
	assert.Equal(t, 1, h.ok)
	assert.Equal(t, 1, h.failed)
}
