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

package executor_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/executor"
)

func TestPool_RunsAllTasks(t *testing.T) {
	p := executor.New(apis.Config{AsyncWorkers: 4, AsyncQueueSize: 128})
	var n atomic.Int64
	var wg sync.WaitGroup
	wg.Add(100)
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Submit(func() { n.Add(1); wg.Done() }))
	}
	wg.Wait()
	p.Close()
	assert.Equal(t, int64(100), n.Load())
}

func TestPool_CloseDrainsAndRejects(t *testing.T) {
	p := executor.New(apis.Config{AsyncWorkers: 1, AsyncQueueSize: 8})
	var n atomic.Int64
	for i := 0; i < 8; i++ {
		require.NoError(t, p.Submit(func() { n.Add(1) }))
	}
	p.Close()
	assert.Equal(t, int64(8), n.Load())
	assert.ErrorIs(t, p.Submit(func() {}), executor.ErrClosed)
	p.Close()
}

func TestPool_QueueFull(t *testing.T) {
	p := executor.New(apis.Config{AsyncWorkers: 1, AsyncQueueSize: 1})
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, p.Submit(func() { close(started); <-release }))
	<-started
	require.NoError(t, p.Submit(func() {}))
	assert.ErrorIs(t, p.Submit(func() {}), executor.ErrQueueFull)
	close(release)
	p.Close()
}

func TestPool_RateLimited(t *testing.T) {
	p := executor.New(apis.Config{AsyncWorkers: 1, AsyncQueueSize: 8, AsyncRatePerSecond: 0.001, AsyncBurst: 1})
	defer p.Close()
	require.NoError(t, p.Submit(func() {}))
	assert.ErrorIs(t, p.Submit(func() {}), executor.ErrRateLimited)
}

func TestPool_RecoversPanics(t *testing.T) {
	p := executor.New(apis.Config{AsyncWorkers: 1, AsyncQueueSize: 4})
	done := make(chan struct{})
	require.NoError(t, p.Submit(func() { panic("boom") }))
	require.NoError(t, p.Submit(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task after panic did not run")
	}
	p.Close()
}

func TestPool_NilTask(t *testing.T) {
	p := executor.New(apis.Config{AsyncWorkers: 1})
	defer p.Close()
	assert.ErrorIs(t, p.Submit(nil), executor.ErrNilTask)
}

func TestDefault_Shared(t *testing.T) {
	assert.Same(t, executor.Default(), executor.Default())
	done := make(chan struct{})
	require.NoError(t, executor.Default().Submit(func() { close(done) }))
	<-done
}
