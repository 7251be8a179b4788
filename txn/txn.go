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

// Package txn provides a local transaction manager: transactions are carried
// by context.Context and run registered synchronizations at completion.
package txn

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"dirpx.dev/inject/apis"
)

var (
	// ErrNoTransaction is returned when ctx carries no active transaction.
	ErrNoTransaction = errors.New("inject(txn): no active transaction")
	// ErrCompleted is returned when a transaction is used after completion.
	ErrCompleted = errors.New("inject(txn): transaction already completed")
	// ErrRolledBack is returned by Commit when a before-completion callback failed.
	ErrRolledBack = errors.New("inject(txn): transaction rolled back")
	// ErrSynchronization wraps after-completion callback failures.
	ErrSynchronization = errors.New("inject(txn): synchronization failed")
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// Manager begins transactions and answers the notifier's transaction queries.
type Manager struct {
	log zerolog.Logger
}

// Ensure Manager implements apis.TransactionServices.
var _ apis.TransactionServices = (*Manager)(nil)

// NewManager constructs a Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type txKey struct{}

// Begin starts a transaction and returns a context carrying it.
func (m *Manager) Begin(ctx context.Context) (context.Context, *Tx) {
	tx := &Tx{id: uuid.NewString(), log: m.log}
	m.log.Debug().Str("tx", tx.id).Msg("transaction begun")
	return context.WithValue(ctx, txKey{}, tx), tx
}

// From returns the transaction carried by ctx, if any.
func From(ctx context.Context) (*Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*Tx)
	return tx, ok
}

// IsTransactionActive reports whether ctx carries a transaction that has not completed.
func (m *Manager) IsTransactionActive(ctx context.Context) bool {
	tx, ok := From(ctx)
	return ok && tx.Active()
}

// RegisterSynchronization attaches s to the active transaction of ctx.
func (m *Manager) RegisterSynchronization(ctx context.Context, s apis.Synchronization) error {
	tx, ok := From(ctx)
	if !ok {
		return ErrNoTransaction
	}
	return tx.Register(s)
}

// Tx is a single local transaction.
type Tx struct {
	id  string
	log zerolog.Logger

	mu     sync.Mutex
	done   bool
	status apis.Status
	syncs  []apis.Synchronization
}

// ID returns the transaction identifier.
func (tx *Tx) ID() string { return tx.id }

// Active reports whether the transaction has not completed.
func (tx *Tx) Active() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return !tx.done
}

// Status returns the outcome, or zero while active.
func (tx *Tx) Status() apis.Status {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.status
}

// Register attaches s. Synchronizations run in registration order.
func (tx *Tx) Register(s apis.Synchronization) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return fmt.Errorf("%w: %s", ErrCompleted, tx.id)
	}
	tx.syncs = append(tx.syncs, s)
	return nil
}

// Commit runs before-completion callbacks, then after-completion callbacks
// with the outcome. A failing before-completion callback turns the commit
// into a rollback and is returned wrapped in ErrRolledBack. After-completion
// failures do not change the outcome; they are logged and returned wrapped
// in ErrSynchronization.
func (tx *Tx) Commit() error {
	syncs, err := tx.complete()
	if err != nil {
		return err
	}
	status := apis.StatusCommitted
	var before error
	for _, s := range syncs {
		if err := s.BeforeCompletion(); err != nil {
			before = err
			status = apis.StatusRolledBack
			break
		}
	}
	after := tx.finish(syncs, status)
	if before != nil {
		err := fmt.Errorf("%w: %s: %w", ErrRolledBack, tx.id, before)
		if after != nil {
			return multierror.Append(err, after)
		}
		return err
	}
	return after
}

// Rollback runs after-completion callbacks with StatusRolledBack.
func (tx *Tx) Rollback() error {
	syncs, err := tx.complete()
	if err != nil {
		return err
	}
	return tx.finish(syncs, apis.StatusRolledBack)
}

func (tx *Tx) complete() ([]apis.Synchronization, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return nil, fmt.Errorf("%w: %s", ErrCompleted, tx.id)
	}
	tx.done = true
	syncs := tx.syncs
	tx.syncs = nil
	return syncs, nil
}

func (tx *Tx) finish(syncs []apis.Synchronization, status apis.Status) error {
	tx.mu.Lock()
	tx.status = status
	tx.mu.Unlock()

	var merr *multierror.Error
	for _, s := range syncs {
		if err := s.AfterCompletion(status); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	tx.log.Debug().Str("tx", tx.id).Stringer("status", status).Int("synchronizations", len(syncs)).Msg("transaction completed")
	if merr == nil {
		return nil
	}
	tx.log.Warn().Str("tx", tx.id).Err(merr).Msg("after-completion synchronization failed")
	return fmt.Errorf("%w: %w", ErrSynchronization, merr)
}
