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

package apis

import "dirpx.dev/inject/component"

// Registry is the descriptor pool consulted by resolvers.
// It is append-only until Reset and keeps registration order.
type Registry interface {
	// Register appends d. Re-registering the same descriptor is a no-op;
	// a different descriptor under an existing identity is a conflict.
	Register(d *component.Descriptor) error
	// Lookup returns the descriptor registered under id.
	Lookup(id string) (*component.Descriptor, bool)
	// Entries returns a snapshot of descriptors of the given kind in registration order.
	Entries(kind component.Kind) []*component.Descriptor
	// Count returns the number of registered descriptors.
	Count() int
	// Version increases on every change to the pool.
	Version() uint64
	// Reset clears all descriptors and unpins the pool.
	Reset()
	// Pin rejects further registrations.
	Pin()
	// Pinned reports whether the pool rejects registrations.
	Pinned() bool
	// MostSpecializing follows the specialization chain starting at id and
	// returns its last element.
	MostSpecializing(id string) (*component.Descriptor, error)
}
