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
	"errors"
	"sync"

	"dirpx.dev/inject/types"
)

// ErrInvalidEventType is wrapped by every InvalidEventTypeError.
var ErrInvalidEventType = errors.New("inject(resolver): invalid event type")

// InvalidEventTypeError reports an event type that may not be fired.
type InvalidEventTypeError struct {
	Type   *types.Type
	Reason string
}

func (e *InvalidEventTypeError) Error() string {
	return ErrInvalidEventType.Error() + ": " + e.Type.String() + ": " + e.Reason
}

func (e *InvalidEventTypeError) Unwrap() error { return ErrInvalidEventType }

// CheckEventType validates t as a runtime event type: it must not contain
// unresolved type variables or wildcards, and it must not be assignable to
// any of the reserved types.
func CheckEventType(t *types.Type, reserved ...*types.Type) error {
	if t == nil {
		return &InvalidEventTypeError{Type: types.Object, Reason: "nil type"}
	}
	if types.ContainsUnresolved(t) {
		return &InvalidEventTypeError{Type: t, Reason: "contains an unresolved type variable or wildcard"}
	}
	if len(reserved) == 0 {
		return nil
	}
	for _, s := range types.Closure(t) {
		for _, r := range reserved {
			if s.Raw().Name() == r.Raw().Name() && !s.IsObject() {
				return &InvalidEventTypeError{Type: t, Reason: "assignable to reserved type " + r.String()}
			}
		}
	}
	return nil
}

// checker memoizes CheckEventType per type key.
type checker struct {
	strict   bool
	reserved []*types.Type
	cache    sync.Map // map[string]error (nil stored as okResult)
}

// okResult marks a type that passed the check.
type okResult struct{}

func (c *checker) check(t *types.Type) error {
	if t == nil {
		return CheckEventType(nil)
	}
	if v, ok := c.cache.Load(t.Key()); ok {
		if err, bad := v.(error); bad {
			return err
		}
		return nil
	}
	var err error
	if c.strict {
		err = CheckEventType(t, c.reserved...)
	} else {
		err = CheckEventType(t)
	}
	if err != nil {
		c.cache.Store(t.Key(), err)
		return err
	}
	c.cache.Store(t.Key(), okResult{})
	return nil
}
