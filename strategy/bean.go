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

// NewBeanStrategy creates the assignability policy for component lookups.
func NewBeanStrategy() apis.Strategy {
	return &matcher{name: "bean", rules: beanRules{}}
}

// beanRules are the lookup rules.
type beanRules struct{}

// Ensure beanRules implements rules.
var _ rules = beanRules{}

// rawArguments accepts a raw use against a parameterized one only when the
// parameterized side's arguments are all the top type or unbounded variables.
func (beanRules) rawArguments(required, candidate []*types.Type) bool {
	if len(required) == 0 {
		return topOrUnbounded(candidate)
	}
	return topOrUnbounded(required)
}

func (beanRules) wildcard(m *matcher, w, candidate *types.Type, depth int) bool {
	if candidate.Kind() == types.KindVariable {
		// Variable bounds inside the wildcard, or the wildcard's upper
		// bounds inside the variable's.
		if m.within(candidate.Bounds(), w.LowerBounds(), w.Bounds(), depth) {
			return true
		}
		return m.within(w.Bounds(), nil, candidate.Bounds(), depth)
	}
	return m.within([]*types.Type{candidate}, w.LowerBounds(), w.Bounds(), depth)
}

// variable never matches an actual type.
func (beanRules) variable(m *matcher, v, candidate *types.Type, depth int) bool {
	if candidate.Kind() != types.KindVariable {
		return false
	}
	return m.within(v.Bounds(), nil, candidate.Bounds(), depth)
}

// arrays requires identical element types.
func (beanRules) arrays(_ *matcher, required, candidate *types.Type, _ int) bool {
	return required.Elem().Equal(candidate.Elem())
}
