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

package resolver

import (
	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/qualifier"
	"dirpx.dev/inject/types"
)

// NewLookup builds a component lookup request. Any is always implied.
func NewLookup(t *types.Type, tags ...qualifier.Tag) apis.Request {
	return apis.Request{Type: t, Qualifiers: requestTags(tags)}
}

// NewEvent builds the request of an event fired with runtime type t.
func NewEvent(t *types.Type, tags ...qualifier.Tag) apis.Request {
	return apis.Request{Type: t, Qualifiers: requestTags(tags)}
}

// NewPrivilegedEvent builds an event request that bypasses the event-type
// check. Only the runtime itself fires such events.
func NewPrivilegedEvent(t *types.Type, tags ...qualifier.Tag) apis.Request {
	r := NewEvent(t, tags...)
	r.Lenient = true
	return r
}

// requestTags never adds Default: it only appears when the caller asks for it.
func requestTags(tags []qualifier.Tag) qualifier.Set {
	return qualifier.NewSet(tags...).With(qualifier.Any)
}
