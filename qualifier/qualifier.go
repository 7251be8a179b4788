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

// Package qualifier models qualifying tags.
//
// A Tag is a symbolic name plus the attribute values that take part in
// equality ("binding" attributes). Attributes a Model declares non-binding
// are dropped when the tag is built, so two tags differing only in a
// non-binding attribute are equal. Tags and Sets are immutable values and
// compare through their canonical keys.
//
// Two built-in tags exist: Any, implicitly carried by every descriptor and
// every request, and Default, carried by bean descriptors that declare no
// other tag.
package qualifier

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

const (
	// AnyName is the name of the Any tag.
	AnyName = "Any"
	// DefaultName is the name of the Default tag.
	DefaultName = "Default"
	// NamedName is the name of the Named tag.
	NamedName = "Named"
)

var (
	// Any matches everything and is always implicitly present.
	Any = Tag{name: AnyName, key: AnyName}
	// Default is carried by bean descriptors that declare no other tag.
	Default = Tag{name: DefaultName, key: DefaultName}
)

// Attr is a single attribute value of a tag.
type Attr struct {
	Name  string
	Value any
}

// Declarer is implemented by component-declaration collaborators that
// produce their own tag without runtime introspection.
type Declarer interface {
	Qualifier() Tag
}

// Tag is an immutable qualifying tag.
type Tag struct {
	name  string
	attrs []Attr
	key   string
}

// New constructs a tag whose attributes are all binding.
func New(name string, attrs ...Attr) Tag {
	return NewModel(name).Tag(attrs...)
}

// Named constructs the Named tag carrying value.
func Named(value string) Tag {
	return New(NamedName, Attr{Name: "value", Value: value})
}

// Name returns the tag identity.
func (t Tag) Name() string { return t.name }

// Attrs returns the binding attributes in declaration order.
func (t Tag) Attrs() []Attr {
	out := make([]Attr, len(t.attrs))
	copy(out, t.attrs)
	return out
}

// Value returns the binding attribute named name.
func (t Tag) Value(name string) (any, bool) {
	for _, a := range t.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// Key returns the canonical key. Attribute order does not affect it.
func (t Tag) Key() string { return t.key }

// Equal reports whether t and o have the same name and binding attributes.
func (t Tag) Equal(o Tag) bool { return t.key == o.key }

// IsZero reports whether t is the zero Tag.
func (t Tag) IsZero() bool { return t.name == "" }

// String returns a readable form such as Loud(level=2).
func (t Tag) String() string {
	if len(t.attrs) == 0 {
		return t.name
	}
	parts := make([]string, len(t.attrs))
	for i, a := range t.attrs {
		parts[i] = fmt.Sprintf("%s=%v", a.Name, a.Value)
	}
	return t.name + "(" + strings.Join(parts, ",") + ")"
}

// Model describes a tag kind: its name and which attributes are non-binding.
type Model struct {
	name       string
	nonBinding map[string]struct{}
}

// NewModel declares a tag kind. Attributes listed in nonBinding never
// participate in equality.
func NewModel(name string, nonBinding ...string) Model {
	m := Model{name: name}
	if len(nonBinding) > 0 {
		m.nonBinding = make(map[string]struct{}, len(nonBinding))
		for _, n := range nonBinding {
			m.nonBinding[n] = struct{}{}
		}
	}
	return m
}

// Name returns the tag identity the model produces.
func (m Model) Name() string { return m.name }

// Binding reports whether attribute attr participates in equality.
func (m Model) Binding(attr string) bool {
	_, skip := m.nonBinding[attr]
	return !skip
}

// Tag builds a tag, dropping non-binding attributes. When the same attribute
// is given twice the last value wins.
func (m Model) Tag(attrs ...Attr) Tag {
	switch m.name {
	case AnyName:
		return Any
	case DefaultName:
		return Default
	}
	kept := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		if !m.Binding(a.Name) {
			continue
		}
		replaced := false
		for i := range kept {
			if kept[i].Name == a.Name {
				kept[i].Value = a.Value
				replaced = true
				break
			}
		}
		if !replaced {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	return Tag{name: m.name, attrs: kept, key: tagKey(m.name, kept)}
}

func tagKey(name string, attrs []Attr) string {
	if len(attrs) == 0 {
		return token(name)
	}
	sorted := make([]Attr, len(attrs))
	copy(sorted, attrs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	var b strings.Builder
	b.WriteString(token(name))
	b.WriteByte('(')
	for i, a := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		// The type keeps 1 and "1" apart; the quoted value keeps separators
		// inside values from forming other keys.
		b.WriteString(token(a.Name))
		b.WriteByte('=')
		b.WriteString(token(fmt.Sprintf("%T", a.Value)))
		b.WriteByte(':')
		b.WriteString(strconv.Quote(fmt.Sprint(a.Value)))
	}
	b.WriteByte(')')
	return b.String()
}

// token returns s unchanged when it holds no key metacharacter, and quoted
// otherwise. Unquoted tokens never contain a quote, so both forms stay apart.
func token(s string) string {
	if s == "" || strings.ContainsAny(s, "()=,:|\"`") || strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return strconv.Quote(s)
	}
	return s
}
