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

package graphd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vesoft-inc/graphd/config"
	"github.com/vesoft-inc/graphd/exec"
	"github.com/vesoft-inc/graphd/metrics"
	"github.com/vesoft-inc/graphd/plan"
	"github.com/vesoft-inc/graphd/qctx"
	"github.com/vesoft-inc/graphd/schema"
	"github.com/vesoft-inc/graphd/storage/memstore"
	"github.com/vesoft-inc/graphd/value"
)

func seedSocialSpace(t *testing.T) (*memstore.Store, int64, int64, int64) {
	t.Helper()
	store := memstore.NewStore()
	space := store.DefineSpace("social")
	person := store.DefineTag(space, "person", []schema.Column{
		{Name: "name", Type: schema.TypeString},
	})
	follow := store.DefineEdgeType(space, "follow", []schema.Column{
		{Name: "since", Type: schema.TypeInt},
	})
	store.PutVertex(space, "1", person, map[string]value.Value{"name": value.String("alice")})
	store.PutVertex(space, "2", person, map[string]value.Value{"name": value.String("bob")})
	store.PutEdge(space, "1", "2", follow, 0, map[string]value.Value{"since": value.Int(2020)})
	return store, space, person, follow
}

func neighborsGraph(space, person, follow int64) *plan.Graph {
	g := plan.NewGraph()
	start := plan.NewStart(g, "ids")
	neighbors := plan.NewGetNeighbors(g, start, "ids", "neighbors", plan.GetNeighborsParams{
		Space:       space,
		EdgeTypes:   []int64{follow},
		VertexProps: map[int64][]string{person: {"name"}},
		EdgeProps:   map[int64][]string{follow: {"since"}},
	})
	g.SetRoot(neighbors)
	return g
}

func TestEngineQueryProducesRootResult(t *testing.T) {
	store, space, person, follow := seedSocialSpace(t)
	deps := exec.Deps{Storage: store, Schema: store}
	e := New(deps, config.Default(), metrics.NewRegistry(), metrics.NewPlanRegistry())

	g := neighborsGraph(space, person, follow)

	res, err := e.Query(context.Background(), QueryRequest{
		QueryID: "q1",
		SpaceID: "social",
		Graph:   g,
		Seed:    map[string]value.Value{"ids": value.List([]value.Value{value.String("1")})},
	})
	require.NoError(t, err)
	require.Equal(t, qctx.StateSuccess, res.State())

	require.Empty(t, e.Processes())
}

func TestEngineQueryRejectsNilGraph(t *testing.T) {
	store, _, _, _ := seedSocialSpace(t)
	e := NewDefault(exec.Deps{Storage: store, Schema: store})
	_, err := e.Query(context.Background(), QueryRequest{QueryID: "q1", SpaceID: "social"})
	require.Error(t, err)
}

func TestEngineKillCancelsRegisteredProcess(t *testing.T) {
	store, _, _, _ := seedSocialSpace(t)
	e := NewDefault(exec.Deps{Storage: store, Schema: store})

	require.False(t, e.Kill("no-such-query"))

	qc := qctx.New(context.Background(), qctx.WithQueryID("q2"))
	e.register("q2", "social", qc)
	defer e.unregister("q2")

	require.True(t, e.Kill("q2"))
	require.True(t, qc.IsCancelled())
	require.Equal(t, "killed by admin request", qc.CancelReason())
}

func TestEngineCloseCancelsAllProcesses(t *testing.T) {
	store, _, _, _ := seedSocialSpace(t)
	e := NewDefault(exec.Deps{Storage: store, Schema: store})

	qc := qctx.New(context.Background(), qctx.WithQueryID("q3"))
	e.register("q3", "social", qc)

	require.NoError(t, e.Close())
	require.True(t, qc.IsCancelled())
	require.Len(t, e.Processes(), 1) // Close cancels in place, it does not unregister
}

func TestProcessElapsedAdvances(t *testing.T) {
	p := &Process{QueryID: "q1", StartedAt: time.Now().Add(-time.Second)}
	require.GreaterOrEqual(t, p.Elapsed(), time.Second)
}
