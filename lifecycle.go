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

package inject

import (
	"dirpx.dev/inject/qualifier"
	"dirpx.dev/inject/types"
)

// ContextLifecycle is the reserved type of scope lifecycle events. Only the
// container fires it; user fires of any type assignable to it are rejected
// while strict checking is on.
var ContextLifecycle = types.MustDeclare("dirpx.dev/inject.ContextLifecycle")

// Lifecycle qualifier models. The scope attribute is binding, so observers
// can watch a single scope.
var (
	InitializedModel = qualifier.NewModel("Initialized")
	DestroyedModel   = qualifier.NewModel("Destroyed")
)

// Initialized qualifies the event fired after scope is activated.
func Initialized(scope string) qualifier.Tag {
	return InitializedModel.Tag(qualifier.Attr{Name: "scope", Value: scope})
}

// Destroyed qualifies the event fired after scope is deactivated.
func Destroyed(scope string) qualifier.Tag {
	return DestroyedModel.Tag(qualifier.Attr{Name: "scope", Value: scope})
}

// ContextEvent is the payload of lifecycle events.
type ContextEvent struct {
	// Scope is the scope tag of the context.
	Scope string
	// Activation identifies the activation that started or ended.
	Activation string
}

// DeclaredType implements types.Typed.
func (ContextEvent) DeclaredType() *types.Type { return ContextLifecycle }
