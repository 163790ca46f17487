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

// Package graphd is the top-level façade a service shell drives: it takes
// an already-built plan.Graph and a set of seed variables, and produces
// the root Result plus the observability and partial-success signals the
// core must export. It owns none of the concerns treated as external
// collaborators (parsing, DDL, auth, session lifecycle, wire encoding) —
// those are assumed to live upstream of Engine.Query and are not modeled
// here.
package graphd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/vesoft-inc/graphd/config"
	"github.com/vesoft-inc/graphd/exec"
	"github.com/vesoft-inc/graphd/metrics"
	"github.com/vesoft-inc/graphd/plan"
	"github.com/vesoft-inc/graphd/qctx"
	"github.com/vesoft-inc/graphd/status"
	"github.com/vesoft-inc/graphd/value"
)

// Engine wires the execution driver (G/H/I) to the Execution Context (D)
// over one fixed set of external collaborators, and tracks every query it
// currently has in flight so operators can inspect or cancel it.
type Engine struct {
	deps   exec.Deps
	config config.Config
	tracer opentracing.Tracer

	metrics *metrics.Registry
	plans   *metrics.PlanRegistry

	mu        sync.Mutex
	processes map[string]*Process
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithTracer attaches the opentracing.Tracer every query's executors open
// spans against. Omitted, an Engine defaults to opentracing.NoopTracer{}.
func WithTracer(tracer opentracing.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// Process is a running query's admin-visible state, the rough equivalent
// of a SQL engine's process-list row: enough to show what's running and
// to cancel it by id.
type Process struct {
	QueryID   string
	SpaceID   string
	StartedAt time.Time
	qc        *qctx.Context
}

// Elapsed reports how long the query has been running.
func (p *Process) Elapsed() time.Duration { return time.Since(p.StartedAt) }

// New builds an Engine over the given collaborators and default
// per-query configuration. reg and plans may be nil, in which case
// queries run unobserved and their plans aren't exposed for debugging.
func New(deps exec.Deps, cfg config.Config, reg *metrics.Registry, plans *metrics.PlanRegistry, opts ...Option) *Engine {
	e := &Engine{
		deps:      deps,
		config:    cfg,
		tracer:    opentracing.NoopTracer{},
		metrics:   reg,
		plans:     plans,
		processes: make(map[string]*Process),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewDefault builds an Engine with config.Default() and no observability
// wired in; callers that want metrics/tracing should use New directly.
func NewDefault(deps exec.Deps) *Engine {
	return New(deps, config.Default(), nil, nil)
}

// QueryRequest names everything one call to Query needs beyond the plan
// itself: the identity a Process is tracked under, the space the plan's
// leaf operators read from, and the seed variables its Start nodes read
// on their first execution.
type QueryRequest struct {
	QueryID string
	SpaceID string
	Graph   *plan.Graph
	Seed    map[string]value.Value
}

// Query runs graph to completion and returns the Result published at its
// root node's output variable. The returned error, when non-nil, is
// always one of the status kinds; the caller is expected to inspect it
// with status.Is rather than string-match it.
//
// Exactly one Process is registered for the lifetime of the call, keyed
// by req.QueryID; Processes and Kill observe it until Query returns.
func (e *Engine) Query(ctx context.Context, req QueryRequest) (qctx.Result, error) {
	if req.Graph == nil {
		return qctx.Result{}, status.Internal.New("query request has a nil plan graph")
	}
	root := req.Graph.Node(req.Graph.Root())
	if root == nil {
		return qctx.Result{}, status.Internal.New("plan graph has no root node")
	}

	deadline := time.Now().Add(e.config.QueryDeadline)
	qc := qctx.New(ctx,
		qctx.WithQueryID(req.QueryID),
		qctx.WithSpaceID(req.SpaceID),
		qctx.WithDeadline(deadline),
		qctx.WithMemoryBudget(e.config.QueryMemoryBudgetBytes),
		qctx.WithPartialSuccessAllowed(e.config.PartialSuccess == config.PartialSuccessAllow),
	)

	for name, v := range req.Seed {
		if err := qc.ExecutionContext().SetValue(name, v); err != nil {
			return qctx.Result{}, status.Internal.New(fmt.Sprintf("seeding variable %q: %s", name, err))
		}
	}

	e.register(req.QueryID, req.SpaceID, qc)
	defer e.unregister(req.QueryID)

	if e.plans != nil {
		e.plans.Register(req.QueryID, req.Graph)
		defer e.plans.Unregister(req.QueryID)
	}

	driver := exec.NewDriver(req.Graph, qc, e.deps, e.config.Workers,
		exec.WithMetrics(e.metrics),
		exec.WithTracer(e.tracer),
	)
	if err := driver.Run(); err != nil {
		if qc.IsCancelled() {
			return qctx.Result{}, status.Cancelled.New(qc.CancelReason())
		}
		return qctx.Result{}, errors.Wrap(err, root.Kind.String())
	}

	res, ok := qc.ExecutionContext().GetResult(root.OutputVar)
	if !ok {
		return qctx.Result{}, status.Internal.New(fmt.Sprintf("root node published no result under %q", root.OutputVar))
	}
	return res, nil
}

// Kill cancels the named in-flight query. It returns false if no query
// with that id is currently running. Cancellation is cooperative: the
// query's executors observe it at their next await boundary rather than
// stopping immediately.
func (e *Engine) Kill(queryID string) bool {
	e.mu.Lock()
	p, ok := e.processes[queryID]
	e.mu.Unlock()
	if !ok {
		return false
	}
	p.qc.Cancel("killed by admin request")
	return true
}

// Processes returns a snapshot of every query currently running.
func (e *Engine) Processes() []Process {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Process, 0, len(e.processes))
	for _, p := range e.processes {
		out = append(out, *p)
	}
	return out
}

// Close cancels every query still running. It does not block for them
// to observe the cancellation; callers that need that should poll
// Processes until it's empty.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.processes {
		p.qc.Cancel("engine closed")
	}
	return nil
}

func (e *Engine) register(queryID, spaceID string, qc *qctx.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.processes[queryID] = &Process{
		QueryID:   queryID,
		SpaceID:   spaceID,
		StartedAt: time.Now(),
		qc:        qc,
	}
}

func (e *Engine) unregister(queryID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.processes, queryID)
}
