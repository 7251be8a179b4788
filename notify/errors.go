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

package notify

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"dirpx.dev/inject/component"
)

var (
	// ErrDelivery is wrapped by every DeliveryError.
	ErrDelivery = errors.New("inject(notify): delivery failed")
	// ErrCancelled completes a future cancelled before delivery started.
	ErrCancelled = errors.New("inject(notify): notification cancelled")
)

// DeliveryError is the failure of one observer invocation.
type DeliveryError struct {
	// Observer is the failing observer's identity.
	Observer string
	// Delivery is the discipline it was invoked under.
	Delivery component.Delivery
	// Err is the handler's error, or the recovered panic.
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("inject(notify): observer %s (%s) failed: %v", e.Observer, e.Delivery, e.Err)
}

// Unwrap exposes both ErrDelivery and the handler's error.
func (e *DeliveryError) Unwrap() []error { return []error{ErrDelivery, e.Err} }

// AggregateError collects every failure of one asynchronous or
// after-completion delivery run.
type AggregateError struct {
	errs *multierror.Error
}

func (e *AggregateError) Error() string { return e.errs.Error() }

// Errors returns the collected failures in delivery order.
func (e *AggregateError) Errors() []error {
	out := make([]error, len(e.errs.Errors))
	copy(out, e.errs.Errors)
	return out
}

// Len returns the number of collected failures.
func (e *AggregateError) Len() int { return e.errs.Len() }

// Unwrap exposes the collected failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error { return e.Errors() }

// collector accumulates failures into an AggregateError.
type collector struct {
	errs *multierror.Error
}

func (c *collector) add(err error) {
	if err != nil {
		c.errs = multierror.Append(c.errs, err)
	}
}

// result returns nil when nothing failed.
func (c *collector) result() error {
	if c.errs == nil || c.errs.Len() == 0 {
		return nil
	}
	return &AggregateError{errs: c.errs}
}
