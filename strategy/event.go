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

package strategy

import (
	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/types"
)

// NewEventStrategy creates the assignability policy for observer resolution.
// required is the observed type and candidate a member of the event type closure.
func NewEventStrategy() apis.Strategy {
	return &matcher{name: "event", rules: eventRules{}}
}

// eventRules are the observer rules.
type eventRules struct{}

// Ensure eventRules implements rules.
var _ rules = eventRules{}

// rawArguments: a raw observed type accepts any parameterization, a
// parameterized observed type never accepts a raw event.
func (eventRules) rawArguments(required, _ []*types.Type) bool {
	return len(required) == 0
}

func (eventRules) wildcard(m *matcher, w, candidate *types.Type, depth int) bool {
	return m.within([]*types.Type{candidate}, w.LowerBounds(), w.Bounds(), depth)
}

// variable accepts any candidate within the variable's upper bounds.
func (eventRules) variable(m *matcher, v, candidate *types.Type, depth int) bool {
	return m.within([]*types.Type{candidate}, nil, v.Bounds(), depth)
}

// arrays are covariant in their element type.
func (eventRules) arrays(m *matcher, required, candidate *types.Type, depth int) bool {
	return m.assignable(required.Elem(), candidate.Elem(), depth)
}
