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

package scope

import (
	"errors"
)

var (
	// ErrContextNotActive is wrapped by ContextNotActiveError.
	ErrContextNotActive = errors.New("inject(scope): context not active")
	// ErrNoStoreAvailable is wrapped by NoStoreAvailableError.
	ErrNoStoreAvailable = errors.New("inject(scope): no store available")
	// ErrAlreadyActive is returned when activating an active context.
	ErrAlreadyActive = errors.New("inject(scope): context already active")
	// ErrUnknownScope is returned for scope tags with no registered context.
	ErrUnknownScope = errors.New("inject(scope): unknown scope")
	// ErrDuplicateScope is returned when registering a scope tag twice.
	ErrDuplicateScope = errors.New("inject(scope): duplicate scope")
	// ErrCircularConstruction is wrapped by CircularConstructionError.
	ErrCircularConstruction = errors.New("inject(scope): circular construction")
)

// ContextNotActiveError reports access to a scope with no active context.
type ContextNotActiveError struct {
	Scope string
}

func (e *ContextNotActiveError) Error() string {
	return ErrContextNotActive.Error() + ": " + e.Scope
}

func (e *ContextNotActiveError) Unwrap() error { return ErrContextNotActive }

// NoStoreAvailableError reports an active context whose store has not been
// materialized.
type NoStoreAvailableError struct {
	Scope string
}

func (e *NoStoreAvailableError) Error() string {
	return ErrNoStoreAvailable.Error() + ": " + e.Scope
}

func (e *NoStoreAvailableError) Unwrap() error { return ErrNoStoreAvailable }

// CircularConstructionError reports an identity realized again by its own
// constructor.
type CircularConstructionError struct {
	Scope string
	ID    string
}

func (e *CircularConstructionError) Error() string {
	return ErrCircularConstruction.Error() + ": " + e.Scope + "/" + e.ID
}

func (e *CircularConstructionError) Unwrap() error { return ErrCircularConstruction }
