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

package apis

import (
	"strconv"

	"dirpx.dev/inject/qualifier"
	"dirpx.dev/inject/resolved"
	"dirpx.dev/inject/types"
)

// Request is a (type, tags) pair: a lookup or an event's runtime type and tags.
// Requests compare structurally through Key.
type Request struct {
	// Type is the requested or fired type.
	Type *types.Type
	// Qualifiers are the requested tags. Any is implied.
	Qualifiers qualifier.Set
	// Lenient skips the event-type check. Only privileged origins set it.
	Lenient bool
}

// Key returns the structural cache key of r. The type key is
// length-prefixed so it cannot absorb part of the tag key.
func (r Request) Key() string {
	t := "<nil>"
	if r.Type != nil {
		t = r.Type.Key()
	}
	k := strconv.Itoa(len(t)) + ":" + t + "@" + r.Qualifiers.Key()
	if r.Lenient {
		k = "!" + k
	}
	return k
}

// Resolver selects matching descriptors for a request.
// Implementations memoize results per Request.Key.
type Resolver interface {
	// Resolve returns the partitioned set of descriptors matching req.
	Resolve(req Request) (*resolved.Set, error)
	// Clear drops every memoized result.
	Clear()
}
