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

package types

// Substitute replaces type variables in t by the bindings keyed by variable name.
// Unbound variables are left in place.
func Substitute(t *Type, bind map[string]*Type) *Type {
	if t == nil || len(bind) == 0 {
		return t
	}
	switch t.kind {
	case KindVariable:
		if r, ok := bind[t.name]; ok {
			return r
		}
		return t
	case KindWildcard:
		return wildcard(substituteAll(t.upper, bind), substituteAll(t.lower, bind))
	case KindArray:
		return ArrayOf(Substitute(t.elem, bind))
	case KindClass:
		if len(t.args) == 0 {
			return t
		}
		return parameterized(t.Raw(), substituteAll(t.args, bind))
	}
	return t
}

func substituteAll(ts []*Type, bind map[string]*Type) []*Type {
	if len(ts) == 0 {
		return nil
	}
	out := make([]*Type, len(ts))
	for i, t := range ts {
		out[i] = Substitute(t, bind)
	}
	return out
}

// Closure returns t followed by all of its transitive supertypes in
// breadth-first order, ending with Object. Duplicates are removed by key.
// Type variables and wildcards contribute their bounds' closures.
func Closure(t *Type) []*Type {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []*Type
	queue := []*Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, ok := seen[cur.key]; ok {
			continue
		}
		seen[cur.key] = struct{}{}
		if cur.kind == KindClass || cur.kind == KindArray || cur == t {
			out = append(out, cur)
		}
		switch cur.kind {
		case KindClass:
			queue = append(queue, cur.Supers()...)
		case KindVariable, KindWildcard:
			queue = append(queue, cur.upper...)
		}
	}
	if _, ok := seen[ObjectName]; !ok {
		out = append(out, Object)
	}
	return out
}

// ContainsUnresolved reports whether t contains a type variable, a wildcard,
// or a generic class used raw. Such types are never valid event types.
func ContainsUnresolved(t *Type) bool {
	switch t.kind {
	case KindVariable, KindWildcard:
		return true
	case KindArray:
		return ContainsUnresolved(t.elem)
	case KindClass:
		if t.IsRaw() {
			return true
		}
		for _, a := range t.args {
			if ContainsUnresolved(a) {
				return true
			}
		}
	}
	return false
}
