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

// Package qctx implements the Execution Context: the per-query,
// single-threaded key/value store of named, versioned Results that plan
// nodes read and write, plus the query-scoped Context that threads a
// deadline, cancellation flag and logger through every executor.
package qctx

import (
	"github.com/vesoft-inc/graphd/iterator"
	"github.com/vesoft-inc/graphd/value"
)

// State is the execution state of a Result.
type State int

const (
	StateUnexecuted State = iota
	StatePartialSuccess
	StateSuccess
)

func (s State) String() string {
	switch s {
	case StateUnexecuted:
		return "unexecuted"
	case StatePartialSuccess:
		return "partial-success"
	case StateSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Stats carries the optional structured per-result statistics: rows
// produced and per-host RPC latency. Only Rows is surfaced through the
// observability hooks in the metrics package; no executor fills LatencyMS
// or HostLatency.
type Stats struct {
	Rows        int
	LatencyMS   int64
	HostLatency map[string]int64
}

// IterFactory builds a fresh iterator positioned at begin over a Result's
// value. Each call to Result.Iter returns a new one; the Result itself
// keeps the factory, not a live iterator.
type IterFactory func() iterator.Iterator

// Result is the atomic publication unit of a plan node: one owned Value, a
// State with an optional message, and a default iterator factory chosen
// from the value's shape.
type Result struct {
	val     value.Value
	state   State
	message string
	stats   Stats
	factory IterFactory
}

// NewEmptyResult returns an unexecuted Result with no value and no
// iterator factory.
func NewEmptyResult() Result {
	return Result{state: StateUnexecuted}
}

// NewResult builds a successful Result from a Value alone, picking a
// default iterator factory from the value's Kind.
func NewResult(v value.Value) Result {
	return Result{val: v, state: StateSuccess, factory: defaultFactory(v)}
}

// NewResultWithIter builds a Result from an explicit (Value, State,
// iterator factory) triple, the third constructor alongside NewEmptyResult
// and NewResult.
func NewResultWithIter(v value.Value, state State, factory IterFactory) Result {
	return Result{val: v, state: state, factory: factory}
}

// WithMessage attaches a free-text message to a Result (builder-style,
// used by operators constructing a partial-success/failure Result).
func (r Result) WithMessage(msg string) Result {
	r.message = msg
	return r
}

// WithStats attaches structured stats to a Result.
func (r Result) WithStats(s Stats) Result {
	r.stats = s
	return r
}

func (r Result) Value() value.Value { return r.val }
func (r Result) State() State       { return r.state }
func (r Result) Message() string    { return r.message }
func (r Result) Stats() Stats       { return r.stats }

// Iter returns a fresh iterator positioned at begin over this Result's
// value; the Result retains the factory so subsequent calls each build a
// new one rather than sharing cursor state.
func (r Result) Iter() iterator.Iterator {
	if r.factory == nil {
		return iterator.NewDefault(r.val)
	}
	return r.factory()
}

func defaultFactory(v value.Value) IterFactory {
	switch v.Kind() {
	case value.KindDataSet:
		ds, _ := v.AsDataSet()
		return func() iterator.Iterator { return iterator.NewSequential(ds) }
	default:
		return func() iterator.Iterator { return iterator.NewDefault(v) }
	}
}
