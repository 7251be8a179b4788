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

// Package reflect bridges Go runtime types into the inject type model.
package reflect

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"dirpx.dev/inject/types"
)

var (
	// ErrReflectNilType is returned when a nil reflect.Type is provided.
	ErrReflectNilType = errors.New("inject(reflect): nil reflect.Type provided")
	// ErrReflectTypeNotNamed indicates that the provided type (after unwrapping
	// pointers and element types) is not a named type (e.g., anonymous struct,
	// func, map, chan).
	ErrReflectTypeNotNamed = errors.New("inject(reflect): type has no name")
)

// cache maps reflect.Type to *types.Type.
var cache sync.Map

// Normalize converts a Go runtime type into a class or array type.
//
// Conversion policy:
//   - ptr                 -> Normalize(Elem())
//   - slice/array         -> types.ArrayOf(Normalize(Elem()))
//   - empty interface     -> types.Object
//   - named type          -> class named "pkgpath.Name" (builtins by bare name)
//   - instantiated generic -> TypeResolutionError; Go does not expose the
//     type arguments, so such payloads must implement types.Typed.
//   - anything else       -> ErrReflectTypeNotNamed
//
// Results are cached per reflect.Type.
func Normalize(t reflect.Type) (*types.Type, error) {
	if t == nil {
		return nil, ErrReflectNilType
	}
	if v, ok := cache.Load(t); ok {
		return v.(*types.Type), nil
	}
	out, err := normalize(t)
	if err != nil {
		return nil, err
	}
	v, _ := cache.LoadOrStore(t, out)
	return v.(*types.Type), nil
}

func normalize(t reflect.Type) (*types.Type, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		elem, err := Normalize(t.Elem())
		if err != nil {
			return nil, err
		}
		return types.ArrayOf(elem), nil
	case reflect.Interface:
		if t.Name() == "" && t.NumMethod() == 0 {
			return types.Object, nil
		}
	}

	name := t.Name()
	if name == "" {
		return nil, ErrReflectTypeNotNamed
	}
	if strings.ContainsRune(name, '[') {
		return nil, &types.TypeResolutionError{
			Type:   t.String(),
			Reason: "type arguments of an instantiated generic type cannot be recovered; implement types.Typed",
		}
	}
	if pkg := t.PkgPath(); pkg != "" {
		name = pkg + "." + name
	}
	return types.Declare(name)
}
