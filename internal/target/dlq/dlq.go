// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package dlq applies the parse-error policy to lines that cannot be
// flattened. Rejected lines are either skipped and counted, or their
// original text is published to a dead-letter topic.
package dlq

import (
	"context"
	"strconv"
	"sync"

	"github.com/mcslender97/textjson/internal/flatten"
	"github.com/mcslender97/textjson/internal/target/publish"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Attribute names attached to dead-letter messages.
const (
	AttrError     = "error"
	AttrErrorKind = "errorKind"
	AttrFile      = "file"
	AttrLine      = "line"
	AttrRunID     = "runId"
)

// Entry describes a rejected line.
type Entry struct {
	Err  *flatten.ParseError
	File string // The location of the input file.
	Line int    // One-based line number.
	Text []byte // The original line.
}

// Router handles rejected lines. It is safe for concurrent use.
type Router struct {
	publisher publish.Publisher // Nil if lines are skipped.
	runID     string

	mu struct {
		sync.Mutex
		counts map[flatten.Kind]int64
	}
}

// New constructs a Router. If publisher is nil, rejected lines are
// skipped.
func New(publisher publish.Publisher, runID string) *Router {
	ret := &Router{publisher: publisher, runID: runID}
	ret.mu.counts = make(map[flatten.Kind]int64)
	return ret
}

// Route counts the entry and either logs it or publishes it to the
// dead-letter topic. An error is returned only if the dead-letter
// message could not be published.
func (r *Router) Route(ctx context.Context, e *Entry) error {
	kind := e.Err.Kind.String()
	parseErrors.WithLabelValues(kind).Inc()
	r.mu.Lock()
	r.mu.counts[e.Err.Kind]++
	r.mu.Unlock()

	if r.publisher == nil {
		log.WithFields(log.Fields{
			"file": e.File,
			"kind": kind,
			"line": e.Line,
		}).WithError(e.Err).Warn("skipping line")
		return nil
	}

	msg := publish.Message{
		Data: e.Text,
		Attributes: map[string]string{
			AttrError:     e.Err.Error(),
			AttrErrorKind: kind,
			AttrFile:      e.File,
			AttrLine:      strconv.Itoa(e.Line),
			AttrRunID:     r.runID,
		},
	}
	if err := r.publisher.Publish(ctx, msg); err != nil {
		return errors.Wrapf(err, "could not route %s:%d to the dead-letter topic", e.File, e.Line)
	}
	routed.Inc()
	return nil
}

// Flush waits for all dead-letter messages to be delivered.
func (r *Router) Flush(ctx context.Context) error {
	if r.publisher == nil {
		return nil
	}
	return r.publisher.Flush(ctx)
}

// Counts returns the number of rejected lines by kind.
func (r *Router) Counts() map[flatten.Kind]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make(map[flatten.Kind]int64, len(r.mu.counts))
	for k, v := range r.mu.counts {
		ret[k] = v
	}
	return ret
}

// Routing returns true if rejected lines are published.
func (r *Router) Routing() bool {
	return r.publisher != nil
}

// RunID returns the identifier attached to dead-letter messages.
func (r *Router) RunID() string {
	return r.runID
}
