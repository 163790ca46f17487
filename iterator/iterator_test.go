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

package iterator

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vesoft-inc/graphd/row"
	"github.com/vesoft-inc/graphd/value"
)

func buildSequentialDataSet(n int) value.DataSet {
	rows := make([]value.Row, n)
	for i := 0; i < n; i++ {
		rows[i] = value.Row{value.Int(int64(i)), value.String(strconv.Itoa(i))}
	}
	return value.NewDataSet([]string{"col1", "col2"}, rows)
}

// scenario 1: sequential iterator round trip.
func TestSequentialRoundTrip(t *testing.T) {
	it := NewSequential(buildSequentialDataSet(10))
	require.Equal(t, 10, it.Size())

	i := 0
	for it.Valid() {
		r, ok := it.Row()
		require.True(t, ok)
		require.Equal(t, value.Int(int64(i)), r.Get(0))
		require.Equal(t, value.String(strconv.Itoa(i)), r.Get(1))
		it.Next()
		i++
	}
	require.Equal(t, 10, i)

	cp := it.Copy().Copy()
	require.Equal(t, 10, cp.Size())

	// Erase every row with even col1; remaining col1 values are [1,3,5,7,9].
	it2 := NewSequential(buildSequentialDataSet(10))
	it2.Reset(0)
	for it2.Valid() {
		v := it2.GetColumn("col1")
		n, err := v.AsInt()
		require.NoError(t, err)
		if n%2 == 0 {
			it2.Erase()
		} else {
			it2.Next()
		}
	}
	require.Equal(t, 5, it2.Size())
	it2.Reset(0)
	var remaining []int64
	for it2.Valid() {
		n, _ := it2.GetColumn("col1").AsInt()
		remaining = append(remaining, n)
		it2.Next()
	}
	require.Equal(t, []int64{1, 3, 5, 7, 9}, remaining)
}

func TestSequentialGetColumnPolicy(t *testing.T) {
	it := NewSequential(buildSequentialDataSet(3))
	require.Equal(t, NullValue, it.GetColumn("missing"))
	require.Equal(t, value.Int(0), it.GetColumn(0))
	require.Equal(t, value.Int(0), it.GetColumn(-2))
	require.Equal(t, NullBadType, it.GetColumn(5))
	require.Equal(t, NullBadType, it.GetColumn(-5))
}

func TestCopyStartsAtBegin(t *testing.T) {
	it := NewSequential(buildSequentialDataSet(5))
	it.Next()
	it.Next()
	cp := it.Copy()
	require.Equal(t, it.Size(), cp.Size())
	r, ok := cp.Row()
	require.True(t, ok)
	require.Equal(t, value.Int(0), r.Get(0))
}

func TestUnstableEraseDecreasesSizeByOne(t *testing.T) {
	it := NewSequential(buildSequentialDataSet(5))
	before := it.Size()
	it.UnstableErase()
	require.Equal(t, before-1, it.Size())
}

func TestEraseRangeSemantics(t *testing.T) {
	it := NewSequential(buildSequentialDataSet(5))
	it.EraseRange(3, 1) // a >= b: no-op
	require.Equal(t, 5, it.Size())

	it2 := NewSequential(buildSequentialDataSet(5))
	it2.EraseRange(2, 100) // b > size: erase [2, size)
	require.Equal(t, 2, it2.Size())
}

// scenario 2: GetNeighbors header validation.
func TestNeighborsHeaderValidation(t *testing.T) {
	ds := value.NewDataSet(
		[]string{colVid, colStats, "_tag:tag1:p1:p2", "_edge:+edge1:p1:p2:_dst:_type:_rank", colExpr},
		nil,
	)
	it := NewNeighbors([]value.DataSet{ds})
	require.True(t, it.valid)

	missingVid := value.NewDataSet([]string{colStats, colExpr, "_edge:+e:_dst:_type:_rank"}, nil)
	it2 := NewNeighbors([]value.DataSet{missingVid})
	require.False(t, it2.valid)

	badSign := value.NewDataSet([]string{colVid, colStats, colExpr, "_edge:e:_dst:_type:_rank"}, nil)
	it3 := NewNeighbors([]value.DataSet{badSign})
	require.False(t, it3.valid)
}

func TestNeighborsTraversal(t *testing.T) {
	header := []string{colVid, colStats, colExpr, "_tag:person:name", "_edge:+like:weight:_dst:_type:_rank"}
	edgeList := value.List([]value.Value{
		value.List([]value.Value{value.Float(0.9), value.String("2"), value.Int(10), value.Int(0)}),
		value.List([]value.Value{value.Float(0.1), value.String("3"), value.Int(10), value.Int(1)}),
	})
	rows := []value.Row{
		{value.String("1"), value.Int(100), value.Null(), value.List([]value.Value{value.String("alice")}), edgeList},
	}
	ds := value.NewDataSet(header, rows)
	it := NewNeighbors([]value.DataSet{ds})
	require.True(t, it.valid)

	count := 0
	for it.Valid() {
		v := it.GetVertex()
		vtx, err := v.AsVertex()
		require.NoError(t, err)
		require.Equal(t, "1", vtx.ID)

		e := it.GetEdge()
		edge, err := e.AsEdge()
		require.NoError(t, err)
		require.Equal(t, "1", edge.Src)
		require.Equal(t, "like", edge.Name)

		w := it.GetEdgeProp("like", "weight")
		require.NotEqual(t, NullValue, w)

		count++
		it.Next()
	}
	require.Equal(t, 2, count)
	require.Equal(t, 0, it.Size(), "neighbors iterator size() is always 0")
}

// scenario 3: join preserves column order, right side wins.
func TestJoinColumnOrderAndCollision(t *testing.T) {
	left := NewSequential(value.NewDataSet(
		[]string{"vid", "tag_prop", "edge_prop", "dst"},
		[]value.Row{{value.String("1"), value.Int(1), value.Int(2), value.String("2")}},
	))
	right := NewSequential(value.NewDataSet(
		[]string{"src", "dst"},
		[]value.Row{{value.String("3"), value.String("4")}},
	))
	leftCat := CatalogFrom(left.Copy(), []string{"vid", "tag_prop", "edge_prop", "dst"})
	rightCat := CatalogFrom(right.Copy(), []string{"src", "dst"})
	joined := NewJoin(leftCat, rightCat)

	require.Equal(t, []string{"vid", "tag_prop", "edge_prop", "dst", "src", "dst"}, joined.Columns())
	require.True(t, joined.Valid())
	r, ok := joined.Row()
	require.True(t, ok)
	require.Equal(t, 6, r.Size())
	got := []value.Value{r.Get(0), r.Get(1), r.Get(2), r.Get(3), r.Get(4), r.Get(5)}
	want := []value.Value{value.String("1"), value.Int(1), value.Int(2), value.String("2"), value.String("3"), value.String("4")}
	for i := range want {
		require.True(t, value.Equal(want[i], got[i]), "index %d", i)
	}
	require.True(t, value.Equal(value.String("4"), joined.GetColumn("dst")), "right dst wins on name collision")
}

// scenario 4: property iterator vertex reconstruction.
func TestPropertyIteratorVertexReconstruction(t *testing.T) {
	ds := value.NewDataSet(
		[]string{"_vid", "tag1.prop1", "tag3.prop1", "tag3.prop2"},
		[]value.Row{{value.String("0"), value.Int(11), value.Int(31), value.Int(32)}},
	)
	it := NewProperty(ds)
	v := it.GetVertex()
	vtx, err := v.AsVertex()
	require.NoError(t, err)
	require.Equal(t, "0", vtx.ID)
	require.Len(t, vtx.Tags, 2)
	require.Equal(t, "tag3", vtx.Tags[0].Name, "reverse insertion order is the documented behavior")
	require.Equal(t, "tag1", vtx.Tags[1].Name)
	require.True(t, value.Equal(value.Int(31), vtx.Tags[0].Props["prop1"]))
	require.True(t, value.Equal(value.Int(32), vtx.Tags[0].Props["prop2"]))
	require.True(t, value.Equal(value.Int(11), vtx.Tags[1].Props["prop1"]))
}

func TestDefaultIteratorContract(t *testing.T) {
	it := NewDefault(value.Int(42))
	require.Equal(t, 1, it.Size())
	require.True(t, it.Valid())
	it.Next()
	require.False(t, it.Valid())

	require.Panics(t, func() { it.GetColumn(0) })
	require.Panics(t, func() { it.Row() })
	require.Equal(t, value.Empty(), it.GetVertex())
}

func TestLogicalRowIdentity(t *testing.T) {
	a := row.NewSequential(value.Row{value.Int(1), value.String("x")})
	b := row.NewSequential(value.Row{value.Int(1), value.String("x")})
	require.True(t, row.Equal(a, b))
	require.Equal(t, row.Hash(a), row.Hash(b))
}
