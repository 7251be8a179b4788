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

import (
	"strings"
)

// Kind classifies the structure of a Type.
type Kind uint8

const (
	// KindClass is a named type, raw or parameterized.
	KindClass Kind = iota
	// KindVariable is a type variable placeholder with upper bounds.
	KindVariable
	// KindWildcard is a wildcard with upper and lower bounds.
	KindWildcard
	// KindArray is an array over a component type.
	KindArray
)

// String returns a short, stable name for k.
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindVariable:
		return "variable"
	case KindWildcard:
		return "wildcard"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// ObjectName is the raw identity of the universal top type.
const ObjectName = "object"

// Object is the universal top type. Every class and array type is assignable to it.
var Object = &Type{kind: KindClass, name: ObjectName, key: ObjectName}

// Typed is implemented by payloads that declare their own runtime type.
type Typed interface {
	DeclaredType() *Type
}

// Type is an immutable, structurally comparable type description.
type Type struct {
	kind Kind
	name string

	// params are the type variables declared by a generic class.
	params []*Type
	// args are the actual type arguments; empty for raw and non-generic classes.
	args []*Type
	// supers are the direct supertypes, expressed over params.
	supers []*Type
	// decl is the generic declaration a parameterized class was built from.
	decl *Type

	upper []*Type
	lower []*Type
	elem  *Type

	key string
}

// Kind reports the structural kind of t.
func (t *Type) Kind() Kind { return t.kind }

// Name returns the raw identity of a class or the name of a type variable.
// Wildcards and arrays have no name.
func (t *Type) Name() string { return t.name }

// Key returns the canonical structural key. Two types are equal iff their keys are equal.
func (t *Type) Key() string { return t.key }

// String returns the canonical key.
func (t *Type) String() string { return t.key }

// Equal reports structural equality.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.key == o.key
}

// Args returns the actual type arguments of a parameterized class.
func (t *Type) Args() []*Type { return clone(t.args) }

// Params returns the type variables declared by a generic class.
func (t *Type) Params() []*Type { return clone(t.params) }

// Bounds returns the upper bounds of a type variable or wildcard.
// An unbounded variable or wildcard reports [Object].
func (t *Type) Bounds() []*Type { return clone(t.upper) }

// LowerBounds returns the lower bounds of a wildcard.
func (t *Type) LowerBounds() []*Type { return clone(t.lower) }

// Elem returns the component type of an array, or nil.
func (t *Type) Elem() *Type { return t.elem }

// IsParameterized reports whether t is a class with actual type arguments.
func (t *Type) IsParameterized() bool { return t.kind == KindClass && len(t.args) > 0 }

// IsGeneric reports whether t is a class declaring type parameters.
func (t *Type) IsGeneric() bool { return t.kind == KindClass && len(t.params) > 0 }

// IsRaw reports whether t is a generic class used without type arguments.
func (t *Type) IsRaw() bool { return t.IsGeneric() && len(t.args) == 0 }

// IsObject reports whether t is the universal top type.
func (t *Type) IsObject() bool {
	return t.kind == KindClass && t.name == ObjectName && len(t.args) == 0
}

// IsActual reports whether t is a class or an array, as opposed to a
// variable or wildcard placeholder.
func (t *Type) IsActual() bool { return t.kind == KindClass || t.kind == KindArray }

// IsUnboundedVariable reports whether t is a type variable bounded only by Object.
func (t *Type) IsUnboundedVariable() bool {
	if t.kind != KindVariable {
		return false
	}
	return len(t.upper) == 0 || (len(t.upper) == 1 && t.upper[0].IsObject())
}

// Raw returns the raw form of a class: the generic declaration for a
// parameterized type and t itself otherwise.
func (t *Type) Raw() *Type {
	if t.decl != nil {
		return t.decl
	}
	return t
}

// Supers returns the direct supertypes of a class with the actual type
// arguments of t substituted for the declared parameters. A raw use of a
// generic class sees erased supertypes.
func (t *Type) Supers() []*Type {
	if t.kind != KindClass || len(t.supers) == 0 {
		return nil
	}
	out := make([]*Type, 0, len(t.supers))
	switch {
	case len(t.args) > 0:
		bind := make(map[string]*Type, len(t.params))
		for i, p := range t.params {
			bind[p.name] = t.args[i]
		}
		for _, s := range t.supers {
			out = append(out, Substitute(s, bind))
		}
	case len(t.params) > 0:
		for _, s := range t.supers {
			out = append(out, s.Raw())
		}
	default:
		out = append(out, t.supers...)
	}
	return out
}

func clone(ts []*Type) []*Type {
	if len(ts) == 0 {
		return nil
	}
	out := make([]*Type, len(ts))
	copy(out, ts)
	return out
}

func classKey(name string, args []*Type) string {
	if len(args) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.key)
	}
	b.WriteByte('>')
	return b.String()
}

func boundsKey(sep string, bounds []*Type) string {
	if len(bounds) == 0 || (len(bounds) == 1 && bounds[0].IsObject()) {
		return ""
	}
	parts := make([]string, len(bounds))
	for i, b := range bounds {
		parts[i] = b.key
	}
	return sep + strings.Join(parts, " & ")
}

func variableKey(name string, upper []*Type) string {
	return "$" + name + boundsKey(" extends ", upper)
}

func wildcardKey(upper, lower []*Type) string {
	return "?" + boundsKey(" extends ", upper) + boundsKey(" super ", lower)
}
