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

// Package exec builds and schedules one executor per plan node, reading
// inputs from the query's Execution Context by variable name and
// publishing one Result back. Scheduling is parallel by default across
// independent branches: every node's executor runs in its own goroutine,
// blocking only on its own dependencies' completion and a bounded work
// pool slot, never on a global lock over Execution Context — dependency
// edges alone make Context access happens-before safe.
package exec

import (
	"fmt"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/vesoft-inc/graphd/expreval"
	"github.com/vesoft-inc/graphd/meta"
	"github.com/vesoft-inc/graphd/metrics"
	"github.com/vesoft-inc/graphd/plan"
	"github.com/vesoft-inc/graphd/qctx"
	"github.com/vesoft-inc/graphd/schema"
	"github.com/vesoft-inc/graphd/status"
	"github.com/vesoft-inc/graphd/storage"
)

// Deps bundles the external collaborators every executor may call
// through; a single struct keeps operator constructors from each growing
// their own parameter list as new collaborators are wired in.
type Deps struct {
	Storage storage.Client
	Schema  schema.Catalog
	Meta    meta.Client
}

// Driver walks one plan.Graph, building and scheduling its executors.
// A Driver is single-use: build one per query, discard after Run returns.
type Driver struct {
	graph   *plan.Graph
	qc      *qctx.Context
	deps    Deps
	workers int64

	metrics *metrics.Registry
	tracer  opentracing.Tracer

	mu   sync.Mutex
	done map[plan.NodeID]chan struct{}
	errs map[plan.NodeID]error
}

// Option configures a Driver at construction time, beyond the required
// graph/qctx/deps/workers arguments.
type Option func(*Driver)

// WithMetrics attaches a Registry that every executed node reports its
// duration and row count to. Omitted, metrics are simply not recorded.
func WithMetrics(reg *metrics.Registry) Option {
	return func(d *Driver) { d.metrics = reg }
}

// WithTracer attaches the opentracing.Tracer used to open one span per
// executor. Omitted, a Driver defaults to opentracing.NoopTracer{}, so
// span calls are always safe to make unconditionally in runNode.
func WithTracer(tracer opentracing.Tracer) Option {
	return func(d *Driver) { d.tracer = tracer }
}

// NewDriver builds a Driver over graph, scheduling at most workers node
// bodies concurrently (the bounded task runner of the concurrency model).
// workers <= 0 means unbounded.
func NewDriver(graph *plan.Graph, qc *qctx.Context, deps Deps, workers int, opts ...Option) *Driver {
	if workers <= 0 {
		workers = 1 << 20 // effectively unbounded
	}
	d := &Driver{
		graph:   graph,
		qc:      qc,
		deps:    deps,
		workers: int64(workers),
		tracer:  opentracing.NoopTracer{},
		done:    make(map[plan.NodeID]chan struct{}),
		errs:    make(map[plan.NodeID]error),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run schedules every node reachable from the root via Deps edges and
// blocks until the root node publishes (or fails). It returns the root's
// error, if any; the published Result itself is read back from
// qc.ExecutionContext() by the caller under the root node's OutputVar.
//
// Loop/Select body subplans are deliberately excluded from this pass: a
// body node is reachable only through its owning control-flow node's
// LoopBody/ThenBody/ElseBody field, never through a Deps edge, so it never
// appears in the reachable set here and is instead run directly by
// runSubplan when (and if, and however many times) its owner decides to.
func (d *Driver) Run() error {
	d.graph.Wire()
	sem := semaphore.NewWeighted(d.workers)
	ids := d.reachableFromRoot()

	var wg sync.WaitGroup
	for id := range ids {
		d.mu.Lock()
		d.done[id] = make(chan struct{})
		d.mu.Unlock()
	}

	for id := range ids {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.runNode(id, sem)
		}()
	}
	wg.Wait()

	return d.errFor(d.graph.Root())
}

// reachableFromRoot walks Deps edges transitively from the graph's root,
// the top-level plan proper as opposed to any control-flow body subplan.
func (d *Driver) reachableFromRoot() map[plan.NodeID]bool {
	seen := make(map[plan.NodeID]bool)
	var visit func(id plan.NodeID)
	visit = func(id plan.NodeID) {
		if id == 0 || seen[id] {
			return
		}
		seen[id] = true
		for _, dep := range d.graph.Node(id).Deps {
			visit(dep)
		}
	}
	visit(d.graph.Root())
	return seen
}

// runNode awaits id's dependencies, then (absent cancellation or a
// dependency failure) acquires a work-pool slot and executes id's body.
//
// A panic from n's body (or anything it calls) is recovered here and
// turned into a status.Internal error for this node alone, so one buggy
// executor fails its query instead of taking down the process.
func (d *Driver) runNode(id plan.NodeID, sem *semaphore.Weighted) {
	n := d.graph.Node(id)
	defer close(d.done[id])
	defer func() {
		if r := recover(); r != nil {
			d.setErr(id, status.Internal.New(fmt.Sprintf("%s(#%d): panic: %v", n.Kind.String(), id, r)))
		}
	}()

	for _, dep := range n.Deps {
		<-d.done[dep]
	}

	if d.qc.IsCancelled() {
		d.setErr(id, status.Cancelled.New(d.qc.CancelReason()))
		return
	}

	for _, dep := range n.Deps {
		if depErr := d.errFor(dep); depErr != nil {
			// Propagate the failure without running this node's body,
			// wrapped with this node's own kind so the message trail
			// names every hop it crossed.
			d.setErr(id, errors.Wrapf(depErr, "%s(#%d)", n.Kind.String(), id))
			return
		}
	}

	if err := sem.Acquire(d.qc, 1); err != nil {
		d.setErr(id, status.Cancelled.New(err.Error()))
		return
	}
	defer sem.Release(1)

	ev := expreval.New(d.qc.ExecutionContext())

	span := metrics.StartExecutorSpan(d.tracer, n.Kind.String(), n.OutputVar)
	started := time.Now()
	err := d.dispatch(n, ev)
	rows := d.rowsPublished(n)
	metrics.FinishExecutorSpan(span, rows, err)
	if d.metrics != nil {
		d.metrics.ObserveExecutor(n.Kind.String(), time.Since(started), rows)
	}

	if err != nil {
		d.setErr(id, err)
	}
}

// rowsPublished looks up the row count an executor's own Result.Stats
// reported. Most operator kinds don't populate Stats today, and an unset
// Stats reads the same as a genuine zero rows; rowsPublished returns -1 in
// both cases so the executor_rows_total counter is simply left untouched
// rather than recording a misleading zero.
func (d *Driver) rowsPublished(n *plan.Node) int {
	res, ok := d.qc.ExecutionContext().GetResult(n.OutputVar)
	if !ok || res.Stats().Rows == 0 {
		return -1
	}
	return res.Stats().Rows
}

func (d *Driver) setErr(id plan.NodeID, err error) {
	d.mu.Lock()
	d.errs[id] = err
	d.mu.Unlock()
}

func (d *Driver) errFor(id plan.NodeID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errs[id]
}

// dispatch routes n to its kind-specific executor function.
func (d *Driver) dispatch(n *plan.Node, ev *expreval.Context) error {
	switch n.Kind {
	case plan.KindStart:
		return execStart(d, n)
	case plan.KindFilter:
		return execFilter(d, n, ev)
	case plan.KindProject:
		return execProject(d, n, ev)
	case plan.KindLimit:
		return execLimit(d, n)
	case plan.KindJoin:
		return execJoin(d, n, ev)
	case plan.KindGetNeighbors:
		return execGetNeighbors(d, n)
	case plan.KindVarSteps:
		return execVarSteps(d, n)
	case plan.KindLoop:
		return execLoop(d, n, ev)
	case plan.KindSelect:
		return execSelect(d, n, ev)
	default:
		return status.Internal.New("unknown plan node kind")
	}
}
