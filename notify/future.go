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

package notify

import (
	"context"
	"sync/atomic"
)

const (
	statePending int32 = iota
	stateRunning
	stateCancelled
	stateDone
)

// Future is the handle of one asynchronous delivery run. It completes with
// the fired payload, or with an AggregateError listing every failure.
type Future struct {
	state atomic.Int32
	done  chan struct{}
	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// completed returns a future that is already done.
func completed(value any, err error) *Future {
	f := newFuture()
	f.state.Store(stateDone)
	f.value, f.err = value, err
	close(f.done)
	return f
}

// Failed returns a future that is already done with err.
func Failed(err error) *Future { return completed(nil, err) }

// start moves a pending future to running. It fails once cancelled.
func (f *Future) start() bool {
	return f.state.CompareAndSwap(statePending, stateRunning)
}

// finish completes a running future.
func (f *Future) finish(value any, err error) {
	f.value, f.err = value, err
	f.state.Store(stateDone)
	close(f.done)
}

// fail completes a future whose task never ran.
func (f *Future) fail(err error) {
	if f.state.CompareAndSwap(statePending, stateDone) {
		f.err = err
		close(f.done)
	}
}

// Cancel prevents delivery if the background task has not started yet and
// reports whether it did. In-flight deliveries are never interrupted.
func (f *Future) Cancel() bool {
	if !f.state.CompareAndSwap(statePending, stateCancelled) {
		return false
	}
	f.err = ErrCancelled
	close(f.done)
	return true
}

// Done is closed once the future completes.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the future completes or ctx ends.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Err returns the completion error, or nil while pending.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Cancelled reports whether Cancel won before delivery started.
func (f *Future) Cancelled() bool { return f.state.Load() == stateCancelled }
