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

// Package resolved holds the immutable result of resolving a request: the
// matched descriptors split into delivery buckets.
package resolved

import (
	"fmt"

	"dirpx.dev/inject/component"
)

// Empty is the shared result with no candidates.
var Empty = &Set{}

// Set is an immutable, partitioned resolution result. Every matched
// descriptor is in exactly one bucket, chosen by its delivery discipline.
// Within a bucket descriptors keep registration order.
type Set struct {
	all              []*component.Descriptor
	immediate        []*component.Descriptor
	deferred         []*component.Descriptor
	async            []*component.Descriptor
	metadataRequired bool
}

// Partition buckets ds by delivery discipline. An unknown discipline is a
// discovery-phase bug and panics.
func Partition(ds []*component.Descriptor) *Set {
	if len(ds) == 0 {
		return Empty
	}
	s := &Set{all: make([]*component.Descriptor, 0, len(ds))}
	for _, d := range ds {
		switch d.Delivery() {
		case component.Immediate:
			s.immediate = append(s.immediate, d)
		case component.Deferred:
			s.deferred = append(s.deferred, d)
		case component.Async:
			s.async = append(s.async, d)
		default:
			panic(fmt.Sprintf("inject(resolved): %s has invalid delivery %s", d, d.Delivery()))
		}
		if d.NeedsMetadata() {
			s.metadataRequired = true
		}
		s.all = append(s.all, d)
	}
	return s
}

// All returns every matched descriptor in registration order.
func (s *Set) All() []*component.Descriptor { return clone(s.all) }

// Immediate returns the synchronous bucket.
func (s *Set) Immediate() []*component.Descriptor { return clone(s.immediate) }

// Deferred returns the transaction-deferred bucket.
func (s *Set) Deferred() []*component.Descriptor { return clone(s.deferred) }

// Async returns the asynchronous bucket.
func (s *Set) Async() []*component.Descriptor { return clone(s.async) }

// MetadataRequired reports whether any candidate wants request metadata.
func (s *Set) MetadataRequired() bool { return s.metadataRequired }

// Len returns the number of matched descriptors.
func (s *Set) Len() int { return len(s.all) }

// IsEmpty reports whether nothing matched.
func (s *Set) IsEmpty() bool { return len(s.all) == 0 }

// Filter returns the subset of s accepted by keep, re-partitioned.
func (s *Set) Filter(keep func(*component.Descriptor) bool) *Set {
	out := make([]*component.Descriptor, 0, len(s.all))
	for _, d := range s.all {
		if keep(d) {
			out = append(out, d)
		}
	}
	return Partition(out)
}

func clone(ds []*component.Descriptor) []*component.Descriptor {
	if len(ds) == 0 {
		return nil
	}
	out := make([]*component.Descriptor, len(ds))
	copy(out, ds)
	return out
}
