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

// Package scope manages per-scope instance storage.
//
// A Manager holds one Context per scope tag. A Context is either shared
// (one activation process-wide) or bound (activations carried by
// context.Context). Each activation owns a Store mapping identities to live
// instances; lazy contexts create the store only on Materialize. Accessing a
// scope with no activation fails with ContextNotActiveError, an activation
// without a store with NoStoreAvailableError.
package scope
