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

// Package strategy implements the assignability policies used to decide
// whether a candidate type satisfies a required type.
//
// Two policies exist. The bean policy serves component lookups: arrays match
// only with identical element types, and raw and parameterized uses of the
// same generic class meet when every argument is the top type or an unbounded
// variable. The event policy serves observer resolution: arrays are
// covariant, a raw observed type accepts any parameterization and a type
// variable in the observed type accepts any actual type within its bounds.
//
// Both share one recursive matcher and differ only in the rules it consults.
// Results are memoized per (required, candidate) key.
package strategy

import (
	"sync"

	"dirpx.dev/inject/types"
)

// maxDepth bounds recursion through self-referencing bounds such as
// T extends Comparable<T>.
const maxDepth = 32

// rules is the policy-specific part of the matcher.
type rules interface {
	// rawArguments decides a match when exactly one side has no type arguments.
	rawArguments(required, candidate []*types.Type) bool
	// wildcard matches a wildcard required argument against a candidate argument.
	wildcard(m *matcher, w, candidate *types.Type, depth int) bool
	// variable matches a type variable required argument against a candidate argument.
	variable(m *matcher, v, candidate *types.Type, depth int) bool
	// arrays matches two array types.
	arrays(m *matcher, required, candidate *types.Type, depth int) bool
}

// matcher walks two types under a set of rules.
type matcher struct {
	name  string
	rules rules
	// memo caches Matches results by key.
	memo sync.Map // key: cacheKey, val: bool
}

// cacheKey identifies one Matches query structurally.
type cacheKey struct {
	required  string
	candidate string
}

// Name returns the policy name.
func (m *matcher) Name() string { return m.name }

// Matches reports whether candidate satisfies required at the top level:
// equal raw identity and matching arguments, or matching arrays.
func (m *matcher) Matches(required, candidate *types.Type) bool {
	if required == nil || candidate == nil {
		return false
	}
	key := cacheKey{required: required.Key(), candidate: candidate.Key()}
	if v, ok := m.memo.Load(key); ok {
		return v.(bool)
	}
	ok := m.matches(required, candidate, 0)
	m.memo.Store(key, ok)
	return ok
}

func (m *matcher) matches(required, candidate *types.Type, depth int) bool {
	if depth > maxDepth {
		return false
	}
	if required.Equal(candidate) {
		return true
	}
	switch required.Kind() {
	case types.KindArray:
		if candidate.Kind() != types.KindArray {
			return false
		}
		return m.rules.arrays(m, required, candidate, depth+1)
	case types.KindClass:
		if candidate.Kind() != types.KindClass || required.Name() != candidate.Name() {
			return false
		}
		return m.arguments(required, candidate, depth+1)
	case types.KindVariable:
		return m.rules.variable(m, required, candidate, depth+1)
	}
	return false
}

// arguments compares the type arguments of two uses of the same class.
func (m *matcher) arguments(required, candidate *types.Type, depth int) bool {
	ra, ca := required.Args(), candidate.Args()
	if len(ra) == 0 && len(ca) == 0 {
		return true
	}
	if len(ra) == 0 || len(ca) == 0 {
		return m.rules.rawArguments(ra, ca)
	}
	if len(ra) != len(ca) {
		return false
	}
	for i := range ra {
		if !m.parameter(ra[i], ca[i], depth) {
			return false
		}
	}
	return true
}

// parameter matches one required type argument against the candidate's.
func (m *matcher) parameter(required, candidate *types.Type, depth int) bool {
	if required.Equal(candidate) {
		return true
	}
	switch required.Kind() {
	case types.KindClass, types.KindArray:
		switch candidate.Kind() {
		case types.KindClass, types.KindArray:
			return m.matches(required, candidate, depth)
		case types.KindVariable:
			return m.within([]*types.Type{required}, nil, candidate.Bounds(), depth)
		}
		return false
	case types.KindWildcard:
		return m.rules.wildcard(m, required, candidate, depth)
	case types.KindVariable:
		return m.rules.variable(m, required, candidate, depth)
	}
	return false
}

// assignable reports whether a value of other can be used where required is
// expected, following supertypes of other.
func (m *matcher) assignable(required, other *types.Type, depth int) bool {
	if depth > maxDepth {
		return false
	}
	if required.IsObject() || required.Equal(other) {
		return true
	}
	switch required.Kind() {
	case types.KindVariable:
		return m.within([]*types.Type{other}, nil, required.Bounds(), depth+1)
	case types.KindWildcard:
		return m.within([]*types.Type{other}, required.LowerBounds(), required.Bounds(), depth+1)
	}
	switch other.Kind() {
	case types.KindVariable, types.KindWildcard:
		for _, b := range other.Bounds() {
			if m.assignable(required, b, depth+1) {
				return true
			}
		}
		return false
	}
	for _, s := range types.Closure(other) {
		if m.matches(required, s, depth+1) {
			return true
		}
	}
	return false
}

// within reports whether the intersection of ts lies inside [lower, upper]:
// every upper bound is satisfied by some member and every lower bound is
// assignable to all members.
func (m *matcher) within(ts, lower, upper []*types.Type, depth int) bool {
	for _, u := range upper {
		ok := false
		for _, t := range ts {
			if m.assignable(u, t, depth) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, l := range lower {
		for _, t := range ts {
			if !m.assignable(t, l, depth) {
				return false
			}
		}
	}
	return true
}

// topOrUnbounded reports whether every type is the top type or an unbounded variable.
func topOrUnbounded(ts []*types.Type) bool {
	for _, t := range ts {
		if t.IsObject() || t.IsUnboundedVariable() {
			continue
		}
		return false
	}
	return true
}
