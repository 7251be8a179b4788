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
	"sync"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/notify"
	"dirpx.dev/inject/qualifier"
	"dirpx.dev/inject/resolved"
	"dirpx.dev/inject/resolver"
	"dirpx.dev/inject/strategy"
	"dirpx.dev/inject/types"
)

// ErrNotSubtype is returned by Select for a type outside the facade's type.
var ErrNotSubtype = errors.New("inject: selected type is not a subtype")

// Event fires events of one type and tag set. Payloads implementing
// types.Typed are fired with their declared type, others with the facade's
// type. The resolved observers are cached per runtime type.
type Event struct {
	c    *Container
	t    *types.Type
	tags []qualifier.Tag

	cache sync.Map // map[string]eventEntry
}

// eventEntry is valid while the snapshot and the clear generation match.
type eventEntry struct {
	st  *state
	gen uint64
	set *resolved.Set
}

func newEvent(c *Container, t *types.Type, tags []qualifier.Tag) *Event {
	return &Event{c: c, t: t, tags: append([]qualifier.Tag(nil), tags...)}
}

// Type returns the facade's event type.
func (e *Event) Type() *types.Type { return e.t }

// Qualifiers returns the tags every fire carries, Any included.
func (e *Event) Qualifiers() qualifier.Set { return resolver.NewEvent(e.t, e.tags...).Qualifiers }

// Fire delivers payload to immediate and deferred observers.
func (e *Event) Fire(ctx context.Context, payload any) error {
	if e.c.closed.Load() {
		return ErrShutdown
	}
	req := e.request(payload)
	set, err := e.observers(req)
	if err != nil {
		return err
	}
	return e.c.notifier.NotifySync(ctx, set, payload, e.c.metadata(set, req, "Event.Fire"))
}

// FireAsync delivers payload to asynchronous observers in the background.
func (e *Event) FireAsync(ctx context.Context, payload any) *notify.Future {
	if e.c.closed.Load() {
		return notify.Failed(ErrShutdown)
	}
	req := e.request(payload)
	set, err := e.observers(req)
	if err != nil {
		return notify.Failed(err)
	}
	return e.c.notifier.NotifyAsync(ctx, set, payload, e.c.metadata(set, req, "Event.FireAsync"), nil)
}

// Select returns a facade for subtype with additional tags. subtype must
// have the facade's type in its closure under event assignability.
func (e *Event) Select(subtype *types.Type, tags ...qualifier.Tag) (*Event, error) {
	if subtype == nil {
		subtype = e.t
	}
	if !covers(e.t, subtype) {
		return nil, fmt.Errorf("%w: %s is not a %s", ErrNotSubtype, subtype, e.t)
	}
	all := make([]qualifier.Tag, 0, len(e.tags)+len(tags))
	all = append(all, e.tags...)
	all = append(all, tags...)
	return newEvent(e.c, subtype, all), nil
}

var events = strategy.NewEventStrategy()

// covers reports whether some member of sub's closure satisfies t.
func covers(t, sub *types.Type) bool {
	for _, s := range types.Closure(sub) {
		if events.Matches(t, s) {
			return true
		}
	}
	return false
}

func (e *Event) request(payload any) apis.Request {
	t := e.t
	if typed, ok := payload.(types.Typed); ok {
		if dt := typed.DeclaredType(); dt != nil {
			t = dt
		}
	}
	return resolver.NewEvent(t, e.tags...)
}

func (e *Event) observers(req apis.Request) (*resolved.Set, error) {
	st, gen := e.c.st.Load(), e.c.gen.Load()
	key := req.Type.Key()
	if v, ok := e.cache.Load(key); ok {
		if ent := v.(eventEntry); ent.st == st && ent.gen == gen {
			return ent.set, nil
		}
	}
	set, err := st.observers.Resolve(req)
	if err != nil {
		return nil, err
	}
	if st.reg.Pinned() {
		e.cache.Store(key, eventEntry{st: st, gen: gen, set: set})
	}
	return set, nil
}
