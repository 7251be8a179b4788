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

package scope_test

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/config"
	"dirpx.dev/inject/scope"
)

type widget struct{ n int64 }

func TestStore_ConcurrentFirstAccessConstructsOnce(t *testing.T) {
	s := scope.NewStore("app", true, 8, nil, zerolog.Nop())
	var calls atomic.Int64
	create := func(context.Context) (any, error) {
		n := calls.Add(1)
		runtime.Gosched()
		return &widget{n: n}, nil
	}

	workers := runtime.GOMAXPROCS(0) * 8
	got := make([]any, workers)
	start := make(chan struct{})
	wg := sync.WaitGroup{}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(i int) {
			defer wg.Done()
			<-start
			inst, err := s.Get(context.Background(), "w", create, nil)
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			got[i] = inst
		}(w)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, inst := range got {
		assert.Same(t, got[0], inst)
	}
	assert.Equal(t, 1, s.Len())
}

func TestStore_SingleThreadedCaches(t *testing.T) {
	s := scope.NewStore("app", false, 0, nil, zerolog.Nop())
	var calls int
	create := func(context.Context) (any, error) { calls++; return &widget{}, nil }

	a, err := s.Get(context.Background(), "w", create, nil)
	require.NoError(t, err)
	b, err := s.Get(context.Background(), "w", create, nil)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)
}

func TestStore_FailuresStoreNothing(t *testing.T) {
	s := scope.NewStore("app", true, 4, nil, zerolog.Nop())
	boom := errors.New("boom")

	_, err := s.Get(context.Background(), "e", func(context.Context) (any, error) { return nil, boom }, nil)
	assert.ErrorIs(t, err, boom)

	inst, err := s.Get(context.Background(), "n", func(context.Context) (any, error) { return nil, nil }, nil)
	assert.NoError(t, err)
	assert.Nil(t, inst)
	assert.Equal(t, 0, s.Len())
}

func TestStore_DestroyDisposesOnce(t *testing.T) {
	s := scope.NewStore("app", true, 4, nil, zerolog.Nop())
	var disposed atomic.Int64
	dispose := func(any) { disposed.Add(1) }
	_, err := s.Get(context.Background(), "w", func(context.Context) (any, error) { return &widget{}, nil }, dispose)
	require.NoError(t, err)

	s.Destroy("w")
	s.Destroy("w")
	s.Destroy("absent")
	assert.Equal(t, int64(1), disposed.Load())
	_, ok := s.Instance("w")
	assert.False(t, ok)
}

func TestStore_ClearInInsertionOrder(t *testing.T) {
	s := scope.NewStore("app", true, 4, nil, zerolog.Nop())
	var order []string
	for _, id := range []string{"c", "a", "d", "b"} {
		id := id
		_, err := s.Get(context.Background(), id,
			func(context.Context) (any, error) { return id, nil },
			func(inst any) { order = append(order, inst.(string)) })
		require.NoError(t, err)
	}
	s.Destroy("d")

	s.Clear()
	assert.Equal(t, []string{"d", "c", "a", "b"}, order)
	assert.Equal(t, 0, s.Len())
}

func TestStore_DisposerPanicDoesNotStopClear(t *testing.T) {
	s := scope.NewStore("app", false, 0, nil, zerolog.Nop())
	var disposed []string
	for i := 0; i < 3; i++ {
		id := fmt.Sprint(i)
		_, err := s.Get(context.Background(), id,
			func(context.Context) (any, error) { return id, nil },
			func(inst any) {
				if inst == "1" {
					panic("dispose failed")
				}
				disposed = append(disposed, inst.(string))
			})
		require.NoError(t, err)
	}
	s.Clear()
	assert.Equal(t, []string{"0", "2"}, disposed)
}

// hookCounter counts instance hooks.
type hookCounter struct {
	apis.NopHooks
	created, destroyed atomic.Int64
}

func (h *hookCounter) InstanceCreated(string)   { h.created.Add(1) }
func (h *hookCounter) InstanceDestroyed(string) { h.destroyed.Add(1) }

func TestStore_Hooks(t *testing.T) {
	h := &hookCounter{}
	s := scope.NewStore("app", true, 2, h, zerolog.Nop())
	for _, id := range []string{"a", "b"} {
		_, err := s.Get(context.Background(), id, func(context.Context) (any, error) { return &widget{}, nil }, nil)
		require.NoError(t, err)
	}
	s.Destroy("a")
	s.Clear()
	assert.Equal(t, int64(2), h.created.Load())
	assert.Equal(t, int64(2), h.destroyed.Load())
}

// nestedGet realizes outer whose constructor realizes inner in the same store.
func nestedGet(t *testing.T, s *scope.Store, outer, inner string) {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		_, err := s.Get(context.Background(), outer, func(ctx context.Context) (any, error) {
			dep, err := s.Get(ctx, inner, func(context.Context) (any, error) { return &widget{n: 2}, nil }, nil)
			if err != nil {
				return nil, err
			}
			return []any{dep}, nil
		}, nil)
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("nested Get(%q) inside constructor of %q did not return", inner, outer)
	}
	_, ok := s.Instance(inner)
	assert.True(t, ok)
	_, ok = s.Instance(outer)
	assert.True(t, ok)
}

func TestStore_NestedConstructionSingleShard(t *testing.T) {
	nestedGet(t, scope.NewStore("app", true, 1, nil, zerolog.Nop()), "service.A", "service.B")
}

func TestStore_NestedConstructionSameShard(t *testing.T) {
	const shards = config.DefaultLockStripes
	outer := "service.A"
	inner := ""
	for i := 0; ; i++ {
		id := fmt.Sprintf("service.B%d", i)
		if xxhash.Sum64String(id)%shards == xxhash.Sum64String(outer)%shards {
			inner = id
			break
		}
	}
	nestedGet(t, scope.NewStore("app", true, shards, nil, zerolog.Nop()), outer, inner)
}

func TestStore_CircularConstruction(t *testing.T) {
	for _, multithreaded := range []bool{true, false} {
		s := scope.NewStore("app", multithreaded, 4, nil, zerolog.Nop())
		var create func(ctx context.Context) (any, error)
		create = func(ctx context.Context) (any, error) {
			return s.Get(ctx, "loop", create, nil)
		}

		_, err := s.Get(context.Background(), "loop", create, nil)
		var circ *scope.CircularConstructionError
		require.ErrorAs(t, err, &circ, "multithreaded=%v", multithreaded)
		assert.Equal(t, "loop", circ.ID)
		assert.Equal(t, 0, s.Len())
	}
}

func TestStore_CloseDuringConstruction(t *testing.T) {
	s := scope.NewStore("app", true, 4, nil, zerolog.Nop())
	entered := make(chan struct{})
	release := make(chan struct{})
	var disposed atomic.Int64

	done := make(chan error, 1)
	go func() {
		_, err := s.Get(context.Background(), "slow", func(context.Context) (any, error) {
			close(entered)
			<-release
			return &widget{}, nil
		}, func(any) { disposed.Add(1) })
		done <- err
	}()

	<-entered
	s.Close()
	close(release)
	err := <-done

	assert.ErrorIs(t, err, scope.ErrContextNotActive)
	assert.Equal(t, int64(1), disposed.Load())
	assert.True(t, s.Closed())
	assert.Equal(t, 0, s.Len())

	var ran bool
	_, err = s.Get(context.Background(), "late", func(context.Context) (any, error) { ran = true; return &widget{}, nil }, nil)
	assert.ErrorIs(t, err, scope.ErrContextNotActive)
	assert.False(t, ran)
}
