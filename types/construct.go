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
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// ErrTypeResolution is the sentinel wrapped by every TypeResolutionError.
var ErrTypeResolution = errors.New("inject(types): type resolution failed")

// TypeResolutionError reports a type description that cannot be turned into a Type.
type TypeResolutionError struct {
	// Type is the textual form of the offending description.
	Type string
	// Reason explains what could not be resolved.
	Reason string
}

// Error implements the error interface.
func (e *TypeResolutionError) Error() string {
	return "inject(types): cannot resolve " + strconv.Quote(e.Type) + ": " + e.Reason
}

// Unwrap returns ErrTypeResolution so callers can use errors.Is.
func (e *TypeResolutionError) Unwrap() error { return ErrTypeResolution }

func resolutionError(t, reason string) error {
	return &TypeResolutionError{Type: t, Reason: reason}
}

// Option configures a class declaration.
type Option func(*declaration)

type declaration struct {
	params []*Type
	supers []*Type
}

// WithParams declares the type variables of a generic class, in order.
func WithParams(params ...*Type) Option {
	return func(d *declaration) { d.params = append(d.params, params...) }
}

// WithSupers declares the direct supertypes of a class. Supertypes may
// reference the declared type variables.
func WithSupers(supers ...*Type) Option {
	return func(d *declaration) { d.supers = append(d.supers, supers...) }
}

// Declare constructs a class type with the given raw identity.
//
// It fails with a TypeResolutionError when the name is empty or holds a key
// metacharacter, a parameter is not a uniquely and validly named type
// variable, or a supertype is not a class or references a type variable the
// declaration does not declare.
func Declare(name string, opts ...Option) (*Type, error) {
	if name == "" {
		return nil, resolutionError(name, "empty type name")
	}
	if !validName(name) {
		return nil, resolutionError(strconv.Quote(name), "type name contains a reserved character")
	}
	var d declaration
	for _, opt := range opts {
		opt(&d)
	}

	seen := make(map[string]struct{}, len(d.params))
	for i, p := range d.params {
		if p == nil || p.kind != KindVariable {
			return nil, resolutionError(name, "parameter "+strconv.Itoa(i)+" is not a type variable")
		}
		if !validName(p.name) {
			return nil, resolutionError(name, "type parameter "+strconv.Quote(p.name)+" contains a reserved character")
		}
		if _, dup := seen[p.name]; dup {
			return nil, resolutionError(name, "duplicate type parameter "+strconv.Quote(p.name))
		}
		seen[p.name] = struct{}{}
	}
	for i, s := range d.supers {
		if s == nil || s.kind != KindClass {
			return nil, resolutionError(name, "supertype "+strconv.Itoa(i)+" is not a class")
		}
		if v, ok := freeVariable(s, seen); ok {
			return nil, resolutionError(name, "supertype "+s.key+" references undeclared type variable "+strconv.Quote(v))
		}
	}

	t := &Type{
		kind:   KindClass,
		name:   name,
		params: clone(d.params),
		supers: clone(d.supers),
		key:    name,
	}
	return t, nil
}

// MustDeclare is like Declare but panics on error.
func MustDeclare(name string, opts ...Option) *Type {
	t, err := Declare(name, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Parameterize applies actual type arguments to a generic declaration.
// The argument count must match the declared parameter count.
func Parameterize(decl *Type, args ...*Type) (*Type, error) {
	if decl == nil {
		return nil, resolutionError("<nil>", "nil declaration")
	}
	decl = decl.Raw()
	if decl.kind != KindClass {
		return nil, resolutionError(decl.key, "only classes can be parameterized")
	}
	if len(args) != len(decl.params) {
		return nil, resolutionError(decl.key, "expected "+strconv.Itoa(len(decl.params))+
			" type arguments, got "+strconv.Itoa(len(args)))
	}
	for i, a := range args {
		if a == nil {
			return nil, resolutionError(decl.key, "type argument "+strconv.Itoa(i)+" is nil")
		}
		if v, ok := invalidVariable(a); ok {
			return nil, resolutionError(decl.key, "type variable "+strconv.Quote(v)+" contains a reserved character")
		}
	}
	return parameterized(decl, clone(args)), nil
}

// MustParameterize is like Parameterize but panics on error.
func MustParameterize(decl *Type, args ...*Type) *Type {
	t, err := Parameterize(decl, args...)
	if err != nil {
		panic(err)
	}
	return t
}

func parameterized(decl *Type, args []*Type) *Type {
	return &Type{
		kind:   KindClass,
		name:   decl.name,
		params: decl.params,
		args:   args,
		supers: decl.supers,
		decl:   decl,
		key:    classKey(decl.name, args),
	}
}

// Var constructs a type variable. Without bounds the variable is bounded by Object.
func Var(name string, bounds ...*Type) *Type {
	upper := nonNil(bounds)
	if len(upper) == 0 {
		upper = []*Type{Object}
	}
	return &Type{kind: KindVariable, name: name, upper: upper, key: variableKey(name, upper)}
}

// Wildcard constructs the unbounded wildcard.
func Wildcard() *Type {
	return wildcard(nil, nil)
}

// WildcardExtends constructs a wildcard with upper bounds.
func WildcardExtends(upper ...*Type) *Type {
	return wildcard(nonNil(upper), nil)
}

// WildcardSuper constructs a wildcard with lower bounds.
func WildcardSuper(lower ...*Type) *Type {
	return wildcard(nil, nonNil(lower))
}

func wildcard(upper, lower []*Type) *Type {
	if len(upper) == 0 {
		upper = []*Type{Object}
	}
	return &Type{kind: KindWildcard, upper: upper, lower: lower, key: wildcardKey(upper, lower)}
}

// ArrayOf constructs an array type over elem.
func ArrayOf(elem *Type) *Type {
	if elem == nil {
		elem = Object
	}
	return &Type{kind: KindArray, elem: elem, key: elem.key + "[]"}
}

func nonNil(ts []*Type) []*Type {
	out := make([]*Type, 0, len(ts))
	for _, t := range ts {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// freeVariable reports the first type variable in t whose name is not bound.
func freeVariable(t *Type, bound map[string]struct{}) (string, bool) {
	switch t.kind {
	case KindVariable:
		if _, ok := bound[t.name]; !ok {
			return t.name, true
		}
	case KindWildcard:
		for _, b := range append(clone(t.upper), t.lower...) {
			if v, ok := freeVariable(b, bound); ok {
				return v, true
			}
		}
	case KindArray:
		return freeVariable(t.elem, bound)
	case KindClass:
		for _, a := range t.args {
			if v, ok := freeVariable(a, bound); ok {
				return v, true
			}
		}
	}
	return "", false
}

// validName reports whether name is usable inside canonical keys.
func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "<>,[]?$&\"'") && strings.IndexFunc(name, unicode.IsSpace) < 0
}

// invalidVariable finds a type variable in t whose name is not valid.
func invalidVariable(t *Type) (string, bool) {
	switch t.kind {
	case KindVariable:
		if !validName(t.name) {
			return t.name, true
		}
		for _, b := range t.upper {
			if v, ok := invalidVariable(b); ok {
				return v, true
			}
		}
	case KindWildcard:
		for _, b := range append(clone(t.upper), t.lower...) {
			if v, ok := invalidVariable(b); ok {
				return v, true
			}
		}
	case KindArray:
		return invalidVariable(t.elem)
	case KindClass:
		for _, a := range t.args {
			if v, ok := invalidVariable(a); ok {
				return v, true
			}
		}
	}
	return "", false
}
