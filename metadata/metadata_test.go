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

package metadata_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/inject/metadata"
	"dirpx.dev/inject/qualifier"
	"dirpx.dev/inject/types"
)

var event = types.MustDeclare("Event")

func TestNew(t *testing.T) {
	qs := qualifier.NewSet(qualifier.Any)
	md := metadata.New(event, qs, "origin")
	other := metadata.New(event, qs, "origin")

	assert.NotEmpty(t, md.ID)
	assert.NotEqual(t, md.ID, other.ID)
	assert.True(t, md.Type.Equal(event))
	assert.True(t, md.Qualifiers.Equal(qs))
	assert.Equal(t, "origin", md.Origin)
	assert.False(t, md.FiredAt.IsZero())
	assert.False(t, md.Async)
}

func TestAsAsync(t *testing.T) {
	md := metadata.New(event, qualifier.NewSet(), "")
	cp := md.AsAsync()
	assert.True(t, cp.Async)
	assert.False(t, md.Async)
	assert.Equal(t, md.ID, cp.ID)

	var none *metadata.Metadata
	assert.Nil(t, none.AsAsync())
}

func TestStack(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, metadata.Current(ctx))
	assert.Zero(t, metadata.Depth(ctx))
	assert.Empty(t, metadata.Stack(ctx))

	outer := metadata.New(event, qualifier.NewSet(), "outer")
	inner := metadata.New(event, qualifier.NewSet(), "inner")

	c1 := metadata.Push(ctx, outer)
	c2 := metadata.Push(c1, inner)
	assert.Same(t, inner, metadata.Current(c2))
	assert.Equal(t, 2, metadata.Depth(c2))
	assert.Equal(t, []*metadata.Metadata{inner, outer}, metadata.Stack(c2))

	// Dropping the derived context restores the previous top.
	assert.Same(t, outer, metadata.Current(c1))
	assert.Equal(t, 1, metadata.Depth(c1))

	assert.Equal(t, c2, metadata.Push(c2, nil))
}

func TestStack_IndependentAcrossGoroutines(t *testing.T) {
	base := metadata.Push(context.Background(), metadata.New(event, qualifier.NewSet(), "base"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			md := metadata.New(event, qualifier.NewSet(), "worker")
			ctx := metadata.Push(base, md)
			if metadata.Current(ctx) != md || metadata.Depth(ctx) != 2 {
				t.Errorf("unexpected stack: depth=%d", metadata.Depth(ctx))
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, metadata.Depth(base))
}
