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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vesoft-inc/graphd/expr"
)

func TestGraphWiringDepsAndSuccessors(t *testing.T) {
	g := NewGraph()
	start := NewStart(g, "ids")
	filter := NewFilter(g, start, "ids", "filtered", &expr.Literal{}, true)
	limit := NewLimit(g, filter, "filtered", "limited", 0, 10)
	g.SetRoot(limit)
	g.Wire()

	require.Equal(t, []NodeID{start}, g.Node(filter).Deps)
	require.Equal(t, []NodeID{filter}, g.Node(start).Successors)
	require.Equal(t, []NodeID{filter}, g.Node(limit).Deps)
	require.Equal(t, []NodeID{limit}, g.Node(filter).Successors)
	require.Empty(t, g.Node(limit).Successors)
	require.Equal(t, limit, g.Root())
}

func TestNodeOutOfRangePanics(t *testing.T) {
	g := NewGraph()
	NewStart(g, "ids")
	require.Panics(t, func() { g.Node(99) })
	require.Panics(t, func() { g.Node(0) })
}

func TestExplainRootFirst(t *testing.T) {
	g := NewGraph()
	start := NewStart(g, "ids")
	limit := NewLimit(g, start, "ids", "out", 1, 4)
	g.SetRoot(limit)
	g.Wire()

	ex := g.Explain()
	require.Len(t, ex, 2)
	require.Equal(t, limit, ex[0].ID)
	require.Equal(t, "Limit", ex[0].Kind)
	require.Equal(t, "1", ex[0].Params["offset"])
	require.Equal(t, "4", ex[0].Params["count"])
}

func TestJoinExplainParams(t *testing.T) {
	g := NewGraph()
	l := NewStart(g, "l")
	r := NewStart(g, "r")
	keys := []expr.Expression{&expr.InputProp{Prop: "vid"}}
	j := NewJoin(g, l, r, "l", "r", "joined", keys, keys)
	g.SetRoot(j)
	g.Wire()

	ex := g.ExplainNode(j)
	require.Equal(t, "$-.vid", ex.Params["left_keys"])
	require.Equal(t, []NodeID{l, r}, ex.Deps)
}
