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

package qualifier

import (
	"sort"
	"strconv"
	"strings"
)

// Set is an immutable, insertion-ordered set of tags.
type Set struct {
	tags  []Tag
	index map[string]struct{}
	key   string
}

// NewSet builds a set from tags, dropping duplicates and zero tags.
func NewSet(tags ...Tag) Set {
	s := Set{}
	for _, t := range tags {
		if t.IsZero() {
			continue
		}
		if s.index == nil {
			s.index = make(map[string]struct{}, len(tags))
		}
		if _, ok := s.index[t.key]; ok {
			continue
		}
		s.index[t.key] = struct{}{}
		s.tags = append(s.tags, t)
	}
	s.key = setKey(s.tags)
	return s
}

// Of collects tags from declarers.
func Of(ds ...Declarer) Set {
	tags := make([]Tag, 0, len(ds))
	for _, d := range ds {
		if d != nil {
			tags = append(tags, d.Qualifier())
		}
	}
	return NewSet(tags...)
}

// With returns a new set with tags added.
func (s Set) With(tags ...Tag) Set {
	all := make([]Tag, 0, len(s.tags)+len(tags))
	all = append(all, s.tags...)
	all = append(all, tags...)
	return NewSet(all...)
}

// Tags returns the tags in insertion order.
func (s Set) Tags() []Tag {
	out := make([]Tag, len(s.tags))
	copy(out, s.tags)
	return out
}

// Len returns the number of tags.
func (s Set) Len() int { return len(s.tags) }

// Contains reports whether the set holds a tag equal to t.
// Any is contained in every set.
func (s Set) Contains(t Tag) bool {
	if t.key == AnyName {
		return true
	}
	_, ok := s.index[t.key]
	return ok
}

// ContainsAll reports whether every tag of o is in s.
func (s Set) ContainsAll(o Set) bool {
	for _, t := range o.tags {
		if !s.Contains(t) {
			return false
		}
	}
	return true
}

// Explicit reports whether the set holds a tag other than Any and Named.
func (s Set) Explicit() bool {
	for _, t := range s.tags {
		if t.name != AnyName && t.name != NamedName {
			return true
		}
	}
	return false
}

// WithImplicit returns the descriptor-side form of s: Any is always added,
// and Default is added when s declares no explicit tag.
func (s Set) WithImplicit() Set {
	if s.Explicit() {
		return s.With(Any)
	}
	return s.With(Any, Default)
}

// Key returns an order-independent canonical key.
func (s Set) Key() string { return s.key }

// Equal reports whether s and o hold the same tags.
func (s Set) Equal(o Set) bool { return s.key == o.key }

// String returns the tags in insertion order.
func (s Set) String() string {
	parts := make([]string, len(s.tags))
	for i, t := range s.tags {
		parts[i] = t.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// setKey length-prefixes each sorted tag key, so no tag key can span two.
func setKey(tags []Tag) string {
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, len(tags))
	for i, t := range tags {
		keys[i] = t.key
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}
