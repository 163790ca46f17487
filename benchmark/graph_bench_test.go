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

package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/vesoft-inc/graphd"
	"github.com/vesoft-inc/graphd/config"
	"github.com/vesoft-inc/graphd/exec"
	"github.com/vesoft-inc/graphd/expr"
	"github.com/vesoft-inc/graphd/plan"
	"github.com/vesoft-inc/graphd/value"
)

// predicateFunc adapts a plain func to expr.Expression, the same stand-in
// for a full comparison-expression grammar used by the exec package's own
// tests.
type predicateFunc func(ctx expr.Context) (value.Value, error)

func (f predicateFunc) Eval(ctx expr.Context) (value.Value, error) { return f(ctx) }
func (f predicateFunc) String() string                             { return "predicateFunc" }
func (f predicateFunc) Children() []expr.Expression                { return nil }

func benchmarkEngine(g generatedSocialGraph, workers int) *graphd.Engine {
	cfg := config.Default()
	cfg.Workers = workers
	return graphd.New(exec.Deps{Storage: g.store, Schema: g.store}, cfg, nil, nil)
}

func runQuery(b *testing.B, e *graphd.Engine, queryID string, pg *plan.Graph, seedIDs []value.Value) {
	b.Helper()
	_, err := e.Query(context.Background(), graphd.QueryRequest{
		QueryID: queryID,
		SpaceID: "social",
		Graph:   pg,
		Seed:    map[string]value.Value{"ids": value.List(seedIDs)},
	})
	if err != nil {
		b.Fatal(err)
	}
}

// BenchmarkGetNeighbors expands the one-hop follow set of a fixed seed
// batch, the traversal this substrate spends most of its time on in
// production.
func BenchmarkGetNeighbors(b *testing.B) {
	g := generateSocialGraph(socialGraphParams{vertices: 5000, fanOut: 8, seed: 1})
	e := benchmarkEngine(g, 16)

	pg := plan.NewGraph()
	start := plan.NewStart(pg, "ids")
	neighbors := plan.NewGetNeighbors(pg, start, "ids", "neighbors", plan.GetNeighborsParams{
		Space:       g.space,
		EdgeTypes:   []int64{g.followType},
		VertexProps: map[int64][]string{g.personTag: {"name", "age"}},
		EdgeProps:   map[int64][]string{g.followType: {"since"}},
	})
	pg.SetRoot(neighbors)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		runQuery(b, e, "bench-neighbors", pg, g.seedIDs)
	}
}

// BenchmarkVarStepsMultiHop expands a 3-hop bounded traversal, exercising
// VarSteps' repeated re-seeding from the previous step's distinct dst ids.
func BenchmarkVarStepsMultiHop(b *testing.B) {
	g := generateSocialGraph(socialGraphParams{vertices: 2000, fanOut: 6, seed: 2})
	e := benchmarkEngine(g, 16)

	pg := plan.NewGraph()
	start := plan.NewStart(pg, "ids")
	steps := plan.NewVarSteps(pg, start, "ids", "reached", plan.GetNeighborsParams{
		Space:     g.space,
		EdgeTypes: []int64{g.followType},
		Dedup:     true,
	}, 3, true)
	pg.SetRoot(steps)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		runQuery(b, e, "bench-varsteps", pg, g.seedIDs[:8])
	}
}

// BenchmarkFilterProject expands one hop, erases edges older than a
// threshold year, and projects down to a two-column result, the shape a
// "who did I start following after 2018" query takes.
func BenchmarkFilterProject(b *testing.B) {
	g := generateSocialGraph(socialGraphParams{vertices: 5000, fanOut: 8, seed: 3})
	e := benchmarkEngine(g, 16)

	pg := plan.NewGraph()
	start := plan.NewStart(pg, "ids")
	neighbors := plan.NewGetNeighbors(pg, start, "ids", "neighbors", plan.GetNeighborsParams{
		Space:       g.space,
		EdgeTypes:   []int64{g.followType},
		VertexProps: map[int64][]string{g.personTag: {"name"}},
		EdgeProps:   map[int64][]string{g.followType: {"since"}},
	})

	pred := predicateFunc(func(ctx expr.Context) (value.Value, error) {
		since, _ := ctx.GetEdgeProp("follow", "since").AsInt()
		return value.Bool(since > 2018), nil
	})
	filtered := plan.NewFilter(pg, neighbors, "neighbors", "recent", pred, true)

	projected := plan.NewProject(pg, filtered, "recent", "out",
		[]string{"name", "since"},
		[]expr.Expression{
			&expr.TagProp{Tag: "person", Prop: "name"},
			&expr.EdgeProp{Edge: "follow", Prop: "since"},
		},
	)
	pg.SetRoot(projected)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		runQuery(b, e, "bench-filter-project", pg, g.seedIDs)
	}
}

func BenchmarkGetNeighborsWorkerScaling(b *testing.B) {
	g := generateSocialGraph(socialGraphParams{vertices: 5000, fanOut: 8, seed: 4})

	for _, workers := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			e := benchmarkEngine(g, workers)
			pg := plan.NewGraph()
			start := plan.NewStart(pg, "ids")
			neighbors := plan.NewGetNeighbors(pg, start, "ids", "neighbors", plan.GetNeighborsParams{
				Space:     g.space,
				EdgeTypes: []int64{g.followType},
			})
			pg.SetRoot(neighbors)

			b.ResetTimer()
			for n := 0; n < b.N; n++ {
				runQuery(b, e, fmt.Sprintf("bench-scaling-%d", workers), pg, g.seedIDs)
			}
		})
	}
}
