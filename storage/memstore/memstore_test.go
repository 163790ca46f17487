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

package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vesoft-inc/graphd/iterator"
	"github.com/vesoft-inc/graphd/schema"
	"github.com/vesoft-inc/graphd/storage"
	"github.com/vesoft-inc/graphd/value"
)

func seedFollowGraph(t *testing.T) (*Store, int64) {
	t.Helper()
	s := NewStore()
	space := s.DefineSpace("social")
	person := s.DefineTag(space, "person", []schema.Column{{Name: "name", Type: schema.TypeString}})
	follow := s.DefineEdgeType(space, "follow", []schema.Column{{Name: "since", Type: schema.TypeInt}})

	s.PutVertex(space, "1", person, map[string]value.Value{"name": value.String("alice")})
	s.PutVertex(space, "2", person, map[string]value.Value{"name": value.String("bob")})
	s.PutEdge(space, "1", "2", follow, 0, map[string]value.Value{"since": value.Int(2020)})
	return s, space
}

func TestGetNeighborsProducesNeighborsIterCompatibleDataSet(t *testing.T) {
	s, space := seedFollowGraph(t)
	followType, err := s.EdgeTypeByName(space, "follow")
	require.NoError(t, err)
	personTag, err := s.TagIDByName(space, "person")
	require.NoError(t, err)

	resp, err := s.GetNeighbors(context.Background(), storage.GetNeighborsRequest{
		Space:       space,
		Rows:        []value.Row{{value.String("1")}},
		EdgeTypes:   []int64{followType},
		Direction:   storage.DirectionOutbound,
		VertexProps: map[int64][]string{personTag: {"name"}},
		EdgeProps:   map[int64][]string{followType: {"since"}},
	})
	require.NoError(t, err)
	require.Equal(t, 100, resp.Completeness)
	require.Len(t, resp.Datasets, 1)

	it := iterator.NewNeighbors(resp.Datasets)
	require.True(t, it.Valid())

	vtx, err := it.GetVertex().AsVertex()
	require.NoError(t, err)
	require.Equal(t, "1", vtx.ID)

	edge, err := it.GetEdge().AsEdge()
	require.NoError(t, err)
	require.Equal(t, "1", edge.Src)
	require.Equal(t, "2", edge.Dst)
	require.Equal(t, "follow", edge.Name)

	since := it.GetEdgeProp("follow", "since")
	n, err := since.AsInt()
	require.NoError(t, err)
	require.Equal(t, int64(2020), n)

	name := it.GetTagProp("person", "name")
	s2, err := name.AsString()
	require.NoError(t, err)
	require.Equal(t, "alice", s2)

	it.Next()
	require.False(t, it.Valid())
}

func TestGetNeighborsInjectedFailureShortCircuitsData(t *testing.T) {
	s, space := seedFollowGraph(t)
	s.InjectGetNeighborsFailure(space, 50, map[int32]error{0: context.DeadlineExceeded})

	resp, err := s.GetNeighbors(context.Background(), storage.GetNeighborsRequest{
		Space: space,
		Rows:  []value.Row{{value.String("1")}},
	})
	require.NoError(t, err)
	require.Equal(t, 50, resp.Completeness)
	require.Len(t, resp.FailedParts, 1)
	require.Nil(t, resp.Datasets)

	// The injected failure is one-shot: the next call sees real data again.
	resp2, err := s.GetNeighbors(context.Background(), storage.GetNeighborsRequest{
		Space: space,
		Rows:  []value.Row{{value.String("1")}},
	})
	require.NoError(t, err)
	require.Equal(t, 100, resp2.Completeness)
}

func TestSchemaCatalogLookups(t *testing.T) {
	s, space := seedFollowGraph(t)

	gotSpace, err := s.SpaceIDByName("social")
	require.NoError(t, err)
	require.Equal(t, space, gotSpace)

	_, err = s.SpaceIDByName("nonexistent")
	require.Error(t, err)

	tagID, err := s.TagIDByName(space, "person")
	require.NoError(t, err)
	tagSchema, err := s.GetTagSchema(space, tagID)
	require.NoError(t, err)
	require.Equal(t, "person", tagSchema.Name)

	_, err = s.TagIDByName(space, "nonexistent")
	require.Error(t, err)
}

func TestAddAndDeleteVertexRoundTrip(t *testing.T) {
	s, space := seedFollowGraph(t)
	personTag, _ := s.TagIDByName(space, "person")

	_, err := s.AddVertices(context.Background(), storage.MutationRequest{
		Space: space,
		Rows: []value.Row{
			{value.String("3"), value.Int(personTag), value.Map(map[string]value.Value{"name": value.String("carol")})},
		},
	})
	require.NoError(t, err)

	resp, err := s.GetProps(context.Background(), storage.GetPropsRequest{
		Space:       space,
		Rows:        []value.Row{{value.String("3")}},
		VertexProps: map[int64][]string{personTag: {"name"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Datasets, 1)
	it := iterator.NewProperty(resp.Datasets[0])
	require.True(t, it.Valid())
	name := it.GetTagProp("person", "name")
	got, _ := name.AsString()
	require.Equal(t, "carol", got)

	_, err = s.DeleteVertices(context.Background(), storage.MutationRequest{
		Space: space,
		Rows:  []value.Row{{value.String("3")}},
	})
	require.NoError(t, err)

	s.mu.RLock()
	_, stillThere := s.spaces[space].vertices["3"]
	s.mu.RUnlock()
	require.False(t, stillThere)
}
