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

// Package types models declared types structurally.
//
// A *Type is the canonical description of a type as the resolution engine
// sees it: a raw identity with ordered type arguments, a type variable with
// upper bounds, a wildcard with upper and lower bounds, or an array over a
// component type. Types are immutable once constructed and compare by value
// through Key, never by pointer identity.
//
// Class types may declare type parameters and direct supertypes expressed
// over those parameters. Parameterizing a declaration substitutes the actual
// arguments into its supertypes, so Closure of List<String> yields
// Collection<String> rather than Collection<E>.
package types
