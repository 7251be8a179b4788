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
	"context"

	"dirpx.dev/inject/apis"
	"dirpx.dev/inject/component"
	"dirpx.dev/inject/metadata"
)

// synchronization carries every deferred notification of one fire.
type synchronization struct {
	n       *Notifier
	ctx     context.Context
	payload any
	md      *metadata.Metadata
	before  []*component.Descriptor
	after   []*component.Descriptor
}

// Ensure synchronization implements apis.Synchronization.
var _ apis.Synchronization = (*synchronization)(nil)

func newSynchronization(n *Notifier, ctx context.Context, ds []*component.Descriptor, payload any, md *metadata.Metadata) *synchronization {
	s := &synchronization{n: n, ctx: metadata.Push(ctx, md), payload: payload, md: md}
	for _, d := range ds {
		if d.Phase().Before() {
			s.before = append(s.before, d)
		} else {
			s.after = append(s.after, d)
		}
	}
	return s
}

// BeforeCompletion delivers before-completion observers, failing fast.
func (s *synchronization) BeforeCompletion() error {
	return s.n.serial(s.ctx, s.before, s.payload, s.md)
}

// AfterCompletion delivers the observers whose phase matches status and
// collects every failure.
func (s *synchronization) AfterCompletion(status apis.Status) error {
	var c collector
	for _, d := range s.after {
		if !runsOn(d.Phase(), status) {
			continue
		}
		c.add(s.n.deliver(s.ctx, d, s.payload, s.md))
	}
	err := c.result()
	if err != nil {
		s.n.log.Warn().Err(err).Stringer("status", status).Msg("after-completion delivery failed")
	}
	return err
}

func runsOn(p component.Phase, status apis.Status) bool {
	switch p {
	case component.AfterCompletion:
		return true
	case component.AfterSuccess:
		return status == apis.StatusCommitted
	case component.AfterFailure:
		return status == apis.StatusRolledBack
	}
	return false
}
