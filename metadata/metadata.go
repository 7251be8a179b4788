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

// Package metadata carries request metadata through nested notifications.
//
// The current metadata is a stack threaded through context.Context: Push
// returns a derived context with md on top, and the previous top becomes
// visible again as soon as the caller drops the derived context. There is no
// goroutine-local or global state, so concurrent deliveries never share a
// stack and every exit path pops by construction.
package metadata

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dirpx.dev/inject/qualifier"
	"dirpx.dev/inject/types"
)

// Metadata describes one fired request.
type Metadata struct {
	// ID uniquely identifies the fire.
	ID string
	// Type is the runtime type the request was resolved with.
	Type *types.Type
	// Qualifiers are the tags the request was fired with.
	Qualifiers qualifier.Set
	// Origin names the firing site, if known.
	Origin string
	// FiredAt is when the request was created.
	FiredAt time.Time
	// Async is set for asynchronous fires.
	Async bool
}

// New creates metadata for a fire of t with tags qs.
func New(t *types.Type, qs qualifier.Set, origin string) *Metadata {
	return &Metadata{
		ID:         uuid.NewString(),
		Type:       t,
		Qualifiers: qs,
		Origin:     origin,
		FiredAt:    time.Now().UTC(),
	}
}

// AsAsync returns a copy of md flagged asynchronous.
func (md *Metadata) AsAsync() *Metadata {
	if md == nil {
		return nil
	}
	cp := *md
	cp.Async = true
	return &cp
}

type frame struct {
	md     *Metadata
	parent *frame
	depth  int
}

type stackKey struct{}

// Push returns ctx with md on top of the metadata stack. A nil md leaves
// ctx unchanged.
func Push(ctx context.Context, md *Metadata) context.Context {
	if md == nil {
		return ctx
	}
	parent, _ := ctx.Value(stackKey{}).(*frame)
	depth := 1
	if parent != nil {
		depth = parent.depth + 1
	}
	return context.WithValue(ctx, stackKey{}, &frame{md: md, parent: parent, depth: depth})
}

// Current returns the metadata on top of the stack, or nil.
func Current(ctx context.Context) *Metadata {
	if f, ok := ctx.Value(stackKey{}).(*frame); ok {
		return f.md
	}
	return nil
}

// Depth returns the number of metadata frames on the stack.
func Depth(ctx context.Context) int {
	if f, ok := ctx.Value(stackKey{}).(*frame); ok {
		return f.depth
	}
	return 0
}

// Stack returns the metadata frames from the top down.
func Stack(ctx context.Context) []*Metadata {
	f, _ := ctx.Value(stackKey{}).(*frame)
	var out []*Metadata
	for ; f != nil; f = f.parent {
		out = append(out, f.md)
	}
	return out
}
