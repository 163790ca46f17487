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

package plan

import (
	"github.com/vesoft-inc/graphd/expr"
	"github.com/vesoft-inc/graphd/storage"
)

// NewStart registers a node with no dependencies that simply republishes
// an externally supplied value under outputVar — the entry point feeding
// a plan's leaf operators (e.g. a literal id-list driving GetNeighbors).
func NewStart(g *Graph, outputVar string) NodeID {
	return g.Add(Node{Kind: KindStart, OutputVar: outputVar})
}

// NewFilter registers a Filter node reading inputVar, erasing rows where
// predicate evaluates false/null-non-bad. stable selects stable vs
// unstable erase.
func NewFilter(g *Graph, input NodeID, inputVar, outputVar string, predicate expr.Expression, stable bool) NodeID {
	return g.Add(Node{
		Kind:      KindFilter,
		OutputVar: outputVar,
		InputVars: []string{inputVar},
		Deps:      []NodeID{input},
		Predicate: predicate,
		Stable:    stable,
	})
}

// NewProject registers a Project node building a new DataSet with cols,
// each evaluated per input row by the corresponding exprs entry.
func NewProject(g *Graph, input NodeID, inputVar, outputVar string, cols []string, exprs []expr.Expression) NodeID {
	return g.Add(Node{
		Kind:         KindProject,
		OutputVar:    outputVar,
		InputVars:    []string{inputVar},
		Deps:         []NodeID{input},
		ProjectCols:  cols,
		ProjectExprs: exprs,
	})
}

// NewLimit registers a Limit node applying erase_range(0, offset) then
// erase_range(count, end) to inputVar's iterator, both saturating.
func NewLimit(g *Graph, input NodeID, inputVar, outputVar string, offset, count int) NodeID {
	return g.Add(Node{
		Kind:      KindLimit,
		OutputVar: outputVar,
		InputVars: []string{inputVar},
		Deps:      []NodeID{input},
		Offset:    offset,
		Count:     count,
	})
}

// NewJoin registers a hash-Join node over leftVar and rightVar, keyed by
// the paired hash-key expression lists (evaluated row-by-row to build the
// probe/build keys).
func NewJoin(g *Graph, left, right NodeID, leftVar, rightVar, outputVar string, leftKeys, rightKeys []expr.Expression) NodeID {
	return g.Add(Node{
		Kind:          KindJoin,
		OutputVar:     outputVar,
		InputVars:     []string{leftVar, rightVar},
		Deps:          []NodeID{left, right},
		LeftHashKeys:  leftKeys,
		RightHashKeys: rightKeys,
	})
}

// GetNeighborsParams groups the less-common GetNeighbors parameters so
// NewGetNeighbors doesn't take an unreadable dozen-argument list.
type GetNeighborsParams struct {
	Space       int64
	EdgeTypes   []int64
	Direction   storage.Direction
	StatProps   []string
	VertexProps map[int64][]string
	EdgeProps   map[int64][]string
	Dedup       bool
}

// NewGetNeighbors registers a GetNeighbors leaf operator expanding the
// id-set named by inputVar.
func NewGetNeighbors(g *Graph, input NodeID, inputVar, outputVar string, p GetNeighborsParams) NodeID {
	return g.Add(Node{
		Kind:        KindGetNeighbors,
		OutputVar:   outputVar,
		InputVars:   []string{inputVar},
		Deps:        []NodeID{input},
		Space:       p.Space,
		EdgeTypes:   p.EdgeTypes,
		Direction:   p.Direction,
		StatProps:   p.StatProps,
		VertexProps: p.VertexProps,
		EdgeProps:   p.EdgeProps,
		Dedup:       p.Dedup,
	})
}

// NewVarSteps registers a bounded variable-length traversal over steps
// rounds of GetNeighbors, each seeded by the previous step's distinct dst
// ids. unionSteps controls whether every step's rows are unioned into the
// final result or only the last step's are kept.
func NewVarSteps(g *Graph, input NodeID, inputVar, outputVar string, p GetNeighborsParams, steps int, unionSteps bool) NodeID {
	return g.Add(Node{
		Kind:        KindVarSteps,
		OutputVar:   outputVar,
		InputVars:   []string{inputVar},
		Deps:        []NodeID{input},
		Space:       p.Space,
		EdgeTypes:   p.EdgeTypes,
		Direction:   p.Direction,
		StatProps:   p.StatProps,
		VertexProps: p.VertexProps,
		EdgeProps:   p.EdgeProps,
		Dedup:       p.Dedup,
		Steps:       steps,
		UnionSteps:  unionSteps,
	})
}

// NewLoop registers a Loop control-flow node: while predicate evaluated
// against inputVar is true, run the body subplan (rooted at body) to
// completion, then re-evaluate. body's own output variable is not
// registered in the Execution Context ahead of time: it first appears
// when the body runs, and the driver does not check for undefined
// variables before the first iteration.
func NewLoop(g *Graph, input NodeID, inputVar, outputVar string, predicate expr.Expression, body NodeID) NodeID {
	return g.Add(Node{
		Kind:      KindLoop,
		OutputVar: outputVar,
		InputVars: []string{inputVar},
		Deps:      []NodeID{input},
		Predicate: predicate,
		LoopBody:  body,
	})
}

// NewSelect registers a Select (if/else) control-flow node: predicate is
// evaluated once against inputVar, then control passes to thenBody or
// elseBody, whose terminal result is republished under outputVar.
func NewSelect(g *Graph, input NodeID, inputVar, outputVar string, predicate expr.Expression, thenBody, elseBody NodeID) NodeID {
	return g.Add(Node{
		Kind:      KindSelect,
		OutputVar: outputVar,
		InputVars: []string{inputVar},
		Deps:      []NodeID{input},
		Predicate: predicate,
		ThenBody:  thenBody,
		ElseBody:  elseBody,
	})
}
