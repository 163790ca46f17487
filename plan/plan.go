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

// Package plan declares the immutable descriptors of the query DAG: one
// Node per operation, held in a Graph-owned arena and referenced
// everywhere else by NodeID rather than by pointer. Plan nodes and
// executors naturally form a cyclic object graph (a node points at its
// dependencies, an executor points back at its node and its query
// context); an arena plus index avoids that cycle without raw parent/child
// pointers in the Node tree.
package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vesoft-inc/graphd/expr"
	"github.com/vesoft-inc/graphd/storage"
)

// NodeID indexes a Node within a Graph's arena. The zero value is never a
// valid id; Graph.Add returns ids starting at 1 so a missing NodeID field
// in a partially built node reads as "unset" rather than "root".
type NodeID int

// Kind identifies a plan node's operator, used for executor dispatch by
// the exec package.
type Kind int

const (
	KindUnknown Kind = iota
	KindStart
	KindFilter
	KindProject
	KindLimit
	KindJoin
	KindGetNeighbors
	KindVarSteps
	KindLoop
	KindSelect
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "Start"
	case KindFilter:
		return "Filter"
	case KindProject:
		return "Project"
	case KindLimit:
		return "Limit"
	case KindJoin:
		return "Join"
	case KindGetNeighbors:
		return "GetNeighbors"
	case KindVarSteps:
		return "VarSteps"
	case KindLoop:
		return "Loop"
	case KindSelect:
		return "Select"
	default:
		return "Unknown"
	}
}

// Node is one operation in the plan DAG. Fields beyond the common ones
// are populated according to Kind; exec's per-kind executors read the
// ones their kind defines and ignore the rest. Node is built once by
// NewXxx and never mutated afterward — the "immutable descriptor" of the
// glossary.
type Node struct {
	ID         NodeID
	Kind       Kind
	OutputVar  string
	InputVars  []string
	Deps       []NodeID // dependency node ids, sorted ascending
	Successors []NodeID // filled in by Graph.Wire, sorted ascending

	// Filter
	Predicate expr.Expression
	Stable    bool // stable erase vs unstable erase on predicate-false rows

	// Project
	ProjectCols  []string
	ProjectExprs []expr.Expression

	// Limit
	Offset int
	Count  int

	// Join
	LeftHashKeys  []expr.Expression
	RightHashKeys []expr.Expression

	// GetNeighbors / VarSteps
	Space       int64
	EdgeTypes   []int64
	Direction   storage.Direction
	StatProps   []string
	VertexProps map[int64][]string
	EdgeProps   map[int64][]string
	Dedup       bool
	Steps       int  // VarSteps only: bound on traversal depth
	UnionSteps  bool // VarSteps only: union every step's result

	// Loop
	LoopBody NodeID
	// Select
	ThenBody NodeID
	ElseBody NodeID
}

// Graph is the arena owning every Node of one plan, plus the root id.
type Graph struct {
	nodes []Node
	root  NodeID
}

// NewGraph returns an empty arena.
func NewGraph() *Graph { return &Graph{} }

// Add appends n to the arena, assigns it an id, and returns that id. Deps
// is sorted in place so NodeID ordering is stable for Graph.Wire and
// explain() output.
func (g *Graph) Add(n Node) NodeID {
	id := NodeID(len(g.nodes) + 1)
	n.ID = id
	sort.Slice(n.Deps, func(i, j int) bool { return n.Deps[i] < n.Deps[j] })
	g.nodes = append(g.nodes, n)
	return id
}

// Node returns the node stored at id. Panics on an id the arena never
// issued — a contract violation, not a recoverable Status.
func (g *Graph) Node(id NodeID) *Node {
	if int(id) < 1 || int(id) > len(g.nodes) {
		panic(fmt.Sprintf("plan: node id %d out of range", id))
	}
	return &g.nodes[id-1]
}

// SetRoot designates id as the plan's terminal node.
func (g *Graph) SetRoot(id NodeID) { g.root = id }

// Root returns the plan's terminal node id.
func (g *Graph) Root() NodeID { return g.root }

// Len returns the number of nodes in the arena.
func (g *Graph) Len() int { return len(g.nodes) }

// Wire populates every node's Successors from the Deps edges already
// recorded, so the driver can walk the DAG in either direction without a
// second pass over caller-supplied data. Call once after all Add calls
// complete and before execution starts.
func (g *Graph) Wire() {
	for i := range g.nodes {
		g.nodes[i].Successors = nil
	}
	for _, n := range g.nodes {
		for _, dep := range n.Deps {
			d := g.Node(dep)
			d.Successors = append(d.Successors, n.ID)
		}
	}
	for i := range g.nodes {
		sort.Slice(g.nodes[i].Successors, func(a, b int) bool {
			return g.nodes[i].Successors[a] < g.nodes[i].Successors[b]
		})
	}
}

// Explain renders a node's structured description: kind, id, output
// variable, inputs, and node-specific key/value parameters. It is the
// only externally visible form of the plan, used by the debug/plan HTTP
// endpoint.
type Explain struct {
	ID        NodeID            `json:"id"`
	Kind      string            `json:"kind"`
	OutputVar string            `json:"output_var"`
	InputVars []string          `json:"input_vars"`
	Deps      []NodeID          `json:"deps"`
	Params    map[string]string `json:"params,omitempty"`
}

// ExplainNode builds the Explain record for one node.
func (g *Graph) ExplainNode(id NodeID) Explain {
	n := g.Node(id)
	e := Explain{
		ID:        n.ID,
		Kind:      n.Kind.String(),
		OutputVar: n.OutputVar,
		InputVars: n.InputVars,
		Deps:      n.Deps,
		Params:    map[string]string{},
	}
	switch n.Kind {
	case KindFilter:
		e.Params["predicate"] = exprString(n.Predicate)
		e.Params["stable"] = fmt.Sprintf("%v", n.Stable)
	case KindProject:
		e.Params["columns"] = strings.Join(n.ProjectCols, ",")
	case KindLimit:
		e.Params["offset"] = fmt.Sprintf("%d", n.Offset)
		e.Params["count"] = fmt.Sprintf("%d", n.Count)
	case KindJoin:
		e.Params["left_keys"] = exprSliceString(n.LeftHashKeys)
		e.Params["right_keys"] = exprSliceString(n.RightHashKeys)
	case KindGetNeighbors:
		e.Params["space"] = fmt.Sprintf("%d", n.Space)
		e.Params["dedup"] = fmt.Sprintf("%v", n.Dedup)
	case KindVarSteps:
		e.Params["steps"] = fmt.Sprintf("%d", n.Steps)
		e.Params["union"] = fmt.Sprintf("%v", n.UnionSteps)
	case KindLoop:
		e.Params["body"] = fmt.Sprintf("%d", n.LoopBody)
	case KindSelect:
		e.Params["then"] = fmt.Sprintf("%d", n.ThenBody)
		e.Params["else"] = fmt.Sprintf("%d", n.ElseBody)
	}
	return e
}

// Explain renders the whole graph, root first then every other node in
// id order.
func (g *Graph) Explain() []Explain {
	out := make([]Explain, 0, len(g.nodes))
	if g.root != 0 {
		out = append(out, g.ExplainNode(g.root))
	}
	for _, n := range g.nodes {
		if n.ID == g.root {
			continue
		}
		out = append(out, g.ExplainNode(n.ID))
	}
	return out
}

func exprString(e expr.Expression) string {
	if e == nil {
		return ""
	}
	return e.String()
}

func exprSliceString(es []expr.Expression) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = exprString(e)
	}
	return strings.Join(parts, ",")
}
