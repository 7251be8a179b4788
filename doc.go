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

// Package inject provides typesafe component resolution and event
// notification.
//
// A Container holds component and observer descriptors. Components are
// looked up by a type and a set of qualifying tags; observers are notified
// when an event of a matching runtime type is fired with matching tags.
// Matching is structural and generics-aware: parameterized types, type
// variables, wildcards and arrays follow two distinct assignability
// policies, one for component lookups and one for events.
//
// # Design
//
// The core of the container is a read-mostly snapshot (state). The snapshot
// holds:
//
//   - Config: strict event checking, executor sizing, lock striping and
//     logging level.
//
//   - Registry: the ordered descriptor pool. It is append-only until the
//     container is frozen, at which point it is pinned.
//
//   - Two resolvers built by the Builder: one for component lookups and one
//     for events. Both memoize results per request and collapse concurrent
//     identical resolutions into one computation.
//
// Readers load the snapshot atomically and never take locks on the hot
// path. SetConfig takes a build lock, migrates the registered descriptors
// into a new snapshot and publishes it.
//
// # Delivery
//
// Fire delivers to immediate observers on the calling goroutine, then to
// transactional observers: with an active transaction (see WithTransactions
// and package txn) they run at their phase, otherwise right away. The first
// failure stops synchronous delivery. FireAsync runs asynchronous observers
// serially in one background task and reports every failure at once
// through the returned notify.Future.
//
// # Scopes
//
// Components declare a scope tag. RegisterScope declares a context for a
// tag; ActivateContext and DeactivateContext bracket its lifetime and fire
// ContextLifecycle events qualified Initialized or Destroyed. Instances are
// constructed at most once per activation and disposed in construction
// order when the context ends. The dependent scope never stores.
//
// # Usage
//
//	c := inject.New(inject.WithLogger(logging.New(logging.ProfileRuntime)))
//	_ = c.RegisterScope("request", scope.WithBound())
//	_ = c.Register(
//		component.MustBean("repo", component.WithClosureOf(repoType), component.WithScope("request"),
//			component.WithConstructor(newRepo)),
//		component.MustObserver("audit", orderPlaced, audit),
//	)
//	if err := c.Freeze(); err != nil {
//		return err
//	}
//	ctx, _ = c.ActivateContext(ctx, "request")
//	repo, err := c.Instance(ctx, repoType)
//	err = c.Fire(ctx, orderPlaced, order)
package inject
