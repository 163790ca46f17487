// Copyright 2024 The graphd Authors
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

package qctx

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Context wraps a context.Context with the query-scoped state every
// executor needs: the query's own Execution Context, a structured logger
// carrying query/space identity, and a cooperative cancellation flag that
// is checked explicitly rather than relying solely on ctx.Done().
type Context struct {
	context.Context

	queryID string
	spaceID string
	log     *logrus.Entry

	ec *ExecutionContext

	cancelled atomic.Bool
	mu        sync.Mutex
	cancelMsg string

	startedAt time.Time
	deadline  time.Time

	partialSuccessAllowed bool
	partialSuccess        atomic.Bool
}

// Option configures a Context at construction time, a functional-options
// constructor for the request context type.
type Option func(*Context)

// WithQueryID sets the query identifier attached to every log line.
func WithQueryID(id string) Option {
	return func(c *Context) { c.queryID = id }
}

// WithSpaceID sets the graph space identifier attached to every log line.
func WithSpaceID(id string) Option {
	return func(c *Context) { c.spaceID = id }
}

// WithLogger overrides the base logger used to derive the per-query entry.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Context) { c.log = l.WithFields(logrus.Fields{}) }
}

// WithDeadline sets the wall-clock deadline after which IsCancelled
// reports true even absent an explicit Cancel call.
func WithDeadline(d time.Time) Option {
	return func(c *Context) { c.deadline = d }
}

// WithMemoryBudget caps the bytes the query's Execution Context will
// accept; 0 (the default) means unlimited.
func WithMemoryBudget(bytes int64) Option {
	return func(c *Context) { c.ec = NewExecutionContext(bytes) }
}

// WithPartialSuccessAllowed controls whether a GetNeighbors response whose
// storage completeness is below 100 but above 0 is accepted as a
// partial-success result rather than failed outright.
func WithPartialSuccessAllowed(allowed bool) Option {
	return func(c *Context) { c.partialSuccessAllowed = allowed }
}

// New builds a query-scoped Context over parent, applying opts in order.
func New(parent context.Context, opts ...Option) *Context {
	c := &Context{
		Context:   parent,
		log:       logrus.StandardLogger().WithFields(logrus.Fields{}),
		ec:        NewExecutionContext(0),
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithFields(logrus.Fields{
		"query_id": c.queryID,
		"space_id": c.spaceID,
	})
	return c
}

// Empty builds a Context with no identity and no deadline, for tests and
// standalone tools.
func Empty() *Context {
	return New(context.Background())
}

// QueryID returns the identifier this Context was constructed with.
func (c *Context) QueryID() string { return c.queryID }

// SpaceID returns the graph space identifier this Context was constructed with.
func (c *Context) SpaceID() string { return c.spaceID }

// Log returns the structured logger carrying this query's identity fields.
func (c *Context) Log() *logrus.Entry { return c.log }

// ExecutionContext returns the query's named/versioned Result store.
func (c *Context) ExecutionContext() *ExecutionContext { return c.ec }

// Cancel marks the query cancelled with reason, observed by subsequent
// IsCancelled calls from any executor sharing this Context.
func (c *Context) Cancel(reason string) {
	c.mu.Lock()
	c.cancelMsg = reason
	c.mu.Unlock()
	c.cancelled.Store(true)
}

// IsCancelled reports whether Cancel was called, the parent
// context.Context was cancelled, or the configured deadline has passed.
func (c *Context) IsCancelled() bool {
	if c.cancelled.Load() {
		return true
	}
	if !c.deadline.IsZero() && time.Now().After(c.deadline) {
		return true
	}
	select {
	case <-c.Context.Done():
		return true
	default:
		return false
	}
}

// CancelReason returns the message passed to Cancel, or "" if the query
// was not explicitly cancelled via this Context (it may still have expired
// via deadline or parent context).
func (c *Context) CancelReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelMsg
}

// Elapsed returns the wall-clock duration since this Context was built.
func (c *Context) Elapsed() time.Duration { return time.Since(c.startedAt) }

// PartialSuccessAllowed reports the query's configured policy toward
// incomplete storage responses.
func (c *Context) PartialSuccessAllowed() bool { return c.partialSuccessAllowed }

// MarkPartialSuccess records that at least one operator in this query
// accepted an incomplete storage response, surfaced to the client as a
// query-wide flag alongside the final result.
func (c *Context) MarkPartialSuccess() { c.partialSuccess.Store(true) }

// HasPartialSuccess reports whether MarkPartialSuccess was ever called
// during this query's execution.
func (c *Context) HasPartialSuccess() bool { return c.partialSuccess.Load() }
