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

// Package executor provides the background task pool used for asynchronous
// delivery.
package executor

import (
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/config"
)

var (
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("inject(executor): pool closed")
	// ErrQueueFull is returned when the pending queue is at capacity.
	ErrQueueFull = errors.New("inject(executor): queue full")
	// ErrRateLimited is returned when admission exceeds the configured rate.
	ErrRateLimited = errors.New("inject(executor): rate limited")
	// ErrNilTask is returned for a nil task.
	ErrNilTask = errors.New("inject(executor): nil task")
)

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used for recovered task panics.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pool) { p.log = l }
}

// Pool is a fixed set of workers draining a bounded queue.
type Pool struct {
	tasks   chan func()
	limiter *rate.Limiter
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// Ensure Pool implements apis.Executor.
var _ apis.Executor = (*Pool)(nil)

// New starts a pool sized from cfg. Non-positive sizes fall back to defaults.
func New(cfg apis.Config, opts ...Option) *Pool {
	workers := cfg.AsyncWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queue := cfg.AsyncQueueSize
	if queue <= 0 {
		queue = config.DefaultAsyncQueueSize
	}
	p := &Pool{tasks: make(chan func(), queue), log: zerolog.Nop()}
	if cfg.AsyncRatePerSecond > 0 {
		burst := cfg.AsyncBurst
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.AsyncRatePerSecond), burst)
	}
	for _, opt := range opts {
		opt(p)
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

// Submit queues task without blocking.
func (p *Pool) Submit(task func()) error {
	if task == nil {
		return ErrNilTask
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if p.limiter != nil && !p.limiter.Allow() {
		return ErrRateLimited
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting tasks, runs the queued ones and waits for workers.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) work() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Msg("background task panicked")
		}
	}()
	task()
}

var (
	defaultOnce sync.Once
	defaultPool *Pool
)

// Default returns the shared pool, started on first use with default sizing.
func Default() *Pool {
	defaultOnce.Do(func() {
		defaultPool = New(config.DefaultConfig())
	})
	return defaultPool
}
