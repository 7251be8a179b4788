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

// Hooks receives engine events for observability.
// Implementations must be safe for concurrent use and must not block.
type Hooks interface {
	// Resolved is called once per Resolve with whether the memo served it.
	Resolved(kind component.Kind, hit bool)
	// Delivered is called once per observer invocation.
	Delivered(delivery component.Delivery, err error)
	// InstanceCreated is called when a scope stores a new instance.
	InstanceCreated(scope string)
	// InstanceDestroyed is called when a stored instance is disposed.
	InstanceDestroyed(scope string)
}

// NopHooks ignores every event.
type NopHooks struct{}

var _ Hooks = NopHooks{}

func (NopHooks) Resolved(component.Kind, bool) {}
func (NopHooks) Delivered(component.Delivery, error) {}
func (NopHooks) InstanceCreated(string) {}
func (NopHooks) InstanceDestroyed(string) {}
