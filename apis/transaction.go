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

import (
	"context"
	"fmt"
)

// Status is the outcome of a completed transaction.
type Status int

const (
	// StatusCommitted reports a successful commit.
	StatusCommitted Status = iota + 1
	// StatusRolledBack reports a rollback.
	StatusRolledBack
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusCommitted:
		return "Committed"
	case StatusRolledBack:
		return "RolledBack"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Synchronization is invoked around the completion of a transaction.
type Synchronization interface {
	// BeforeCompletion runs before the outcome is decided. An error forces rollback.
	BeforeCompletion() error
	// AfterCompletion runs once the outcome is known.
	AfterCompletion(status Status) error
}

// TransactionServices is the transaction capability the notifier consumes.
// The transaction in effect is the one carried by ctx.
type TransactionServices interface {
	// IsTransactionActive reports whether ctx carries an active transaction.
	IsTransactionActive(ctx context.Context) bool
	// RegisterSynchronization attaches s to the active transaction of ctx.
	RegisterSynchronization(ctx context.Context, s Synchronization) error
}
