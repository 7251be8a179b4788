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

package component

import (
	"fmt"
	"strings"
)

// Delivery is the delivery discipline a descriptor declares for notifications.
//
// # Values
//
//   - Immediate: delivered synchronously on the firing goroutine.
//   - Deferred: delivered at a transaction boundary, or immediately when no
//     transaction is active.
//   - Async: delivered serially inside one background task.
//
// Every matched descriptor lands in exactly one resolved bucket, chosen by
// this marker alone.
type Delivery int

const (
	// Immediate delivery on the caller's goroutine.
	Immediate Delivery = iota
	// Deferred delivery at a transaction phase.
	Deferred
	// Async delivery on a background executor.
	Async
)

// String returns "Immediate", "Deferred", "Async", or "Unknown(<n>)".
func (d Delivery) String() string {
	switch d {
	case Immediate:
		return "Immediate"
	case Deferred:
		return "Deferred"
	case Async:
		return "Async"
	default:
		return fmt.Sprintf("Unknown(%d)", int(d))
	}
}

// Valid reports whether d is a defined value.
func (d Delivery) Valid() bool { return d >= Immediate && d <= Async }

// ParseDelivery parses a delivery discipline, case-insensitively.
func ParseDelivery(s string) (Delivery, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IMMEDIATE":
		return Immediate, nil
	case "DEFERRED":
		return Deferred, nil
	case "ASYNC":
		return Async, nil
	case "":
		return Immediate, fmt.Errorf("inject(component): empty delivery")
	default:
		return Immediate, fmt.Errorf("inject(component): unknown delivery %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler. Unknown values fail.
func (d Delivery) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("inject(component): cannot marshal unknown delivery %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. On failure d is unchanged.
func (d *Delivery) UnmarshalText(text []byte) error {
	v, err := ParseDelivery(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Phase is the transaction phase a deferred descriptor is notified in.
type Phase int

const (
	// InProgress is the phase of immediate and async descriptors.
	InProgress Phase = iota
	// BeforeCompletion runs before the transaction completes.
	BeforeCompletion
	// AfterCompletion runs after the transaction completes, whatever the outcome.
	AfterCompletion
	// AfterSuccess runs after a successful commit.
	AfterSuccess
	// AfterFailure runs after a rollback.
	AfterFailure
)

var phaseNames = [...]string{"InProgress", "BeforeCompletion", "AfterCompletion", "AfterSuccess", "AfterFailure"}

// String returns the phase name or "Unknown(<n>)".
func (p Phase) String() string {
	if p.Valid() {
		return phaseNames[p]
	}
	return fmt.Sprintf("Unknown(%d)", int(p))
}

// Valid reports whether p is a defined value.
func (p Phase) Valid() bool { return p >= InProgress && p <= AfterFailure }

// Before reports whether p runs before transaction completion.
func (p Phase) Before() bool { return p == BeforeCompletion }

// ParsePhase parses a phase name, case-insensitively.
func ParsePhase(s string) (Phase, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return InProgress, fmt.Errorf("inject(component): empty phase")
	}
	for i, n := range phaseNames {
		if strings.EqualFold(n, trimmed) {
			return Phase(i), nil
		}
	}
	return InProgress, fmt.Errorf("inject(component): unknown phase %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("inject(component): cannot marshal unknown phase %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	v, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Role is the closed set of roles a descriptor can play, fixed at construction.
type Role int

const (
	// Plain descriptors take part in lookups and notifications.
	Plain Role = iota
	// Specialized descriptors (interceptor- or decorator-like) never satisfy lookups.
	Specialized
)

// String returns "Plain", "Specialized", or "Unknown(<n>)".
func (r Role) String() string {
	switch r {
	case Plain:
		return "Plain"
	case Specialized:
		return "Specialized"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// Kind distinguishes injectable components from observers.
type Kind int

const (
	// Bean descriptors are realized as instances through a scope.
	Bean Kind = iota
	// Observer descriptors receive notifications.
	Observer
)

// String returns "Bean", "Observer", or "Unknown(<n>)".
func (k Kind) String() string {
	switch k {
	case Bean:
		return "Bean"
	case Observer:
		return "Observer"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}
