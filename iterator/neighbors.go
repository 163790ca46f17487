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
	"fmt"
	"strings"

	"github.com/vesoft-inc/graphd/row"
	"github.com/vesoft-inc/graphd/value"
)

const (
	colVid   = "_vid"
	colStats = "_stats"
	colExpr  = "_expr"
	tagPfx   = "_tag:"
	edgePfx  = "_edge:"
)

// edgeColumn describes one parsed `_edge:<±><name>:<p1>:...:_dst:_type:_rank`
// header column.
type edgeColumn struct {
	colIdx   int
	outbound bool
	name     string
	// propNames is the full trailing name list from the header, including
	// the reserved _dst/_type/_rank entries at the end — this is the
	// order in which an edge instance's List value is laid out.
	propNames []string
}

func (c edgeColumn) dstIdx() int  { return len(c.propNames) - 3 }
func (c edgeColumn) typeIdx() int { return len(c.propNames) - 2 }
func (c edgeColumn) rankIdx() int { return len(c.propNames) - 1 }

// tagColumn describes one parsed `_tag:<name>:<p1>:<p2>...` header column.
type tagColumn struct {
	colIdx    int
	name      string
	propNames []string
}

type position struct {
	ds, r, ec, ei int
}

// NeighborsIter is the synthetic iterator over a GetNeighbors storage
// response: a list of DataSets, each with the mandatory/tag/edge header
// convention. It flattens dataset x row x edge-column x edge-instance
// into a single four-level cursor; size() is not defined (always 0)
// since it is not random-access.
type NeighborsIter struct {
	valid bool // false if header validation failed at construction

	datasets []value.DataSet
	tagCols  [][]tagColumn
	edgeCols [][]edgeColumn

	positions []position
	kept      []bool
	pos       int
}

// NewNeighbors validates the header of every dataset and builds the
// flattened cursor. Construction failures (missing mandatory columns, a
// malformed edge-direction sign, or no usable edge column at all) leave
// the iterator permanently invalid rather than panicking.
func NewNeighbors(datasets []value.DataSet) *NeighborsIter {
	n := &NeighborsIter{datasets: datasets}
	anyEdge := false
	for _, ds := range datasets {
		idx := ds.ColumnIndices()
		if _, ok := idx[colVid]; !ok {
			n.valid = false
			return n
		}
		if _, ok := idx[colStats]; !ok {
			n.valid = false
			return n
		}
		if _, ok := idx[colExpr]; !ok {
			n.valid = false
			return n
		}
		var tags []tagColumn
		var edges []edgeColumn
		for i, col := range ds.Columns {
			switch {
			case strings.HasPrefix(col, tagPfx):
				parts := strings.Split(strings.TrimPrefix(col, tagPfx), ":")
				tags = append(tags, tagColumn{colIdx: i, name: parts[0], propNames: parts[1:]})
			case strings.HasPrefix(col, edgePfx):
				rest := strings.TrimPrefix(col, edgePfx)
				if len(rest) == 0 || (rest[0] != '+' && rest[0] != '-') {
					n.valid = false
					return n
				}
				outbound := rest[0] == '+'
				parts := strings.Split(rest[1:], ":")
				if len(parts) < 4 {
					// need name + at least _dst,_type,_rank
					n.valid = false
					return n
				}
				name := parts[0]
				propNames := parts[1:]
				edges = append(edges, edgeColumn{colIdx: i, outbound: outbound, name: name, propNames: propNames})
				anyEdge = true
			}
		}
		n.tagCols = append(n.tagCols, tags)
		n.edgeCols = append(n.edgeCols, edges)
	}
	if !anyEdge && len(datasets) > 0 {
		n.valid = false
		return n
	}
	n.valid = true
	n.buildPositions()
	return n
}

func (n *NeighborsIter) buildPositions() {
	for dsIdx, ds := range n.datasets {
		edges := n.edgeCols[dsIdx]
		for rIdx := range ds.Rows {
			for ecIdx, ec := range edges {
				list, err := ds.Rows[rIdx][ec.colIdx].AsList()
				if err != nil {
					continue
				}
				for eiIdx := range list {
					n.positions = append(n.positions, position{ds: dsIdx, r: rIdx, ec: ecIdx, ei: eiIdx})
					n.kept = append(n.kept, true)
				}
			}
		}
	}
}

func (n *NeighborsIter) Kind() Kind { return KindNeighbors }

func (n *NeighborsIter) Valid() bool {
	return n.valid && n.pos < len(n.positions)
}

func (n *NeighborsIter) Next() {
	if n.pos < len(n.positions) {
		n.pos++
	}
	for n.pos < len(n.positions) && !n.kept[n.pos] {
		n.pos++
	}
}

func (n *NeighborsIter) current() (position, bool) {
	if !n.Valid() {
		return position{}, false
	}
	return n.positions[n.pos], true
}

// Row is unsupported for the neighbors iterator: its logical row is a
// synthetic (vid, tag-props, edge, stats) view exposed only through the
// kind-specific accessors (GetVertex/GetEdge/GetColumn/...), not a
// row.LogicalRow.
func (n *NeighborsIter) Row() (row.LogicalRow, bool) {
	panic(Unsupported{Kind: KindNeighbors, Op: "row"})
}

// Size always returns 0: the neighbors iterator is not random-access;
// callers must drive it via Valid()/Next().
func (n *NeighborsIter) Size() int   { return 0 }
func (n *NeighborsIter) Empty() bool { return !n.Valid() }

func (n *NeighborsIter) Reset(pos int) {
	if pos != 0 {
		panic(Unsupported{Kind: KindNeighbors, Op: "reset(pos != 0)"})
	}
	n.pos = 0
	for n.pos < len(n.positions) && !n.kept[n.pos] {
		n.pos++
	}
}

func (n *NeighborsIter) Copy() Iterator {
	cp := &NeighborsIter{
		valid:    n.valid,
		datasets: n.datasets,
		tagCols:  n.tagCols,
		edgeCols: n.edgeCols,
	}
	cp.positions = append([]position(nil), n.positions...)
	cp.kept = append([]bool(nil), n.kept...)
	cp.Reset(0)
	return cp
}

// Erase and UnstableErase both flip the kept bit for the current element:
// the neighbors iterator's "unstable" erase collapses into the stable one
// since positions are addressed by a bitmap, not a mutable slice.
func (n *NeighborsIter) Erase() {
	if !n.Valid() {
		return
	}
	n.kept[n.pos] = false
	n.Next()
}

func (n *NeighborsIter) UnstableErase() { n.Erase() }

// EraseRange is unsupported for the neighbors iterator.
func (n *NeighborsIter) EraseRange(int, int) {
	panic(Unsupported{Kind: KindNeighbors, Op: "erase_range"})
}

func (n *NeighborsIter) Clear() {
	for i := range n.kept {
		n.kept[i] = false
	}
	n.pos = len(n.positions)
}

func (n *NeighborsIter) findEdgeCol(dsIdx int, name string) (edgeColumn, bool) {
	for _, ec := range n.edgeCols[dsIdx] {
		if ec.name == name {
			return ec, true
		}
	}
	return edgeColumn{}, false
}

func (n *NeighborsIter) findTagCol(dsIdx int, name string) (tagColumn, bool) {
	for _, tc := range n.tagCols[dsIdx] {
		if tc.name == name {
			return tc, true
		}
	}
	return tagColumn{}, false
}

// GetColumn resolves against the current dataset's header map.
func (n *NeighborsIter) GetColumn(key interface{}) value.Value {
	pos, ok := n.current()
	if !ok {
		return NullValue
	}
	ds := n.datasets[pos.ds]
	switch k := key.(type) {
	case string:
		idx := ds.ColumnIndex(k)
		if idx < 0 {
			return NullValue
		}
		return ds.Rows[pos.r][idx]
	case int:
		idx, ok := modIndex(k, len(ds.Columns))
		if !ok {
			return NullBadType
		}
		return ds.Rows[pos.r][idx]
	default:
		return NullValue
	}
}

// GetTagProp resolves through {tag -> {prop -> colIdx within the tag list
// column}}.
func (n *NeighborsIter) GetTagProp(tag, prop string) value.Value {
	pos, ok := n.current()
	if !ok {
		return NullValue
	}
	tc, ok := n.findTagCol(pos.ds, tag)
	if !ok {
		return NullValue
	}
	return propFromList(n.datasets[pos.ds].Rows[pos.r][tc.colIdx], tc.propNames, prop)
}

// GetEdgeProp resolves through the current edge row's property list.
func (n *NeighborsIter) GetEdgeProp(edge, prop string) value.Value {
	pos, ok := n.current()
	if !ok {
		return NullValue
	}
	ec, ok := n.findEdgeCol(pos.ds, edge)
	if !ok {
		return NullValue
	}
	inst, ok := n.edgeInstance(pos, ec)
	if !ok {
		return NullValue
	}
	return propFromList(value.List(inst), ec.propNames[:ec.dstIdx()], prop)
}

func propFromList(listVal value.Value, names []string, prop string) value.Value {
	list, err := listVal.AsList()
	if err != nil {
		return NullValue
	}
	for i, nm := range names {
		if nm == prop && i < len(list) {
			return list[i]
		}
	}
	return NullValue
}

func (n *NeighborsIter) edgeInstance(pos position, ec edgeColumn) (value.Row, bool) {
	list, err := n.datasets[pos.ds].Rows[pos.r][ec.colIdx].AsList()
	if err != nil || pos.ei >= len(list) {
		return nil, false
	}
	inst, err := list[pos.ei].AsList()
	if err != nil {
		return nil, false
	}
	return value.Row(inst), true
}

// GetVertex synthesizes a Vertex from all tag columns of the current row.
func (n *NeighborsIter) GetVertex() value.Value {
	pos, ok := n.current()
	if !ok {
		return value.Empty()
	}
	ds := n.datasets[pos.ds]
	vid, _ := ds.Rows[pos.r][ds.ColumnIndex(colVid)].AsString()
	tags := make([]value.Tag, 0, len(n.tagCols[pos.ds]))
	for i := len(n.tagCols[pos.ds]) - 1; i >= 0; i-- {
		tc := n.tagCols[pos.ds][i]
		list, err := ds.Rows[pos.r][tc.colIdx].AsList()
		if err != nil {
			list = nil
		}
		props := make(map[string]value.Value, len(tc.propNames))
		for j, nm := range tc.propNames {
			if j < len(list) {
				props[nm] = list[j]
			}
		}
		tags = append(tags, value.Tag{Name: tc.name, Props: props})
	}
	return value.VertexVal(value.Vertex{ID: vid, Tags: tags})
}

// GetEdge synthesizes an Edge with src = current vid, dst/type/rank from
// the edge row's reserved positions, props from the remaining positions.
// Inbound edges swap src/dst and negate type.
func (n *NeighborsIter) GetEdge() value.Value {
	pos, ok := n.current()
	if !ok {
		return value.Empty()
	}
	ec := n.edgeCols[pos.ds][pos.ec]
	inst, ok := n.edgeInstance(pos, ec)
	if !ok {
		return value.Empty()
	}
	ds := n.datasets[pos.ds]
	vid, _ := ds.Rows[pos.r][ds.ColumnIndex(colVid)].AsString()

	dst, _ := inst[ec.dstIdx()].AsString()
	typ, _ := inst[ec.typeIdx()].AsInt()
	rank, _ := inst[ec.rankIdx()].AsInt()
	props := make(map[string]value.Value, ec.dstIdx())
	for i := 0; i < ec.dstIdx(); i++ {
		props[ec.propNames[i]] = inst[i]
	}
	e := value.Edge{Src: vid, Dst: dst, Type: typ, Rank: rank, Name: ec.name, Props: props}
	if !ec.outbound {
		e = e.Reversed()
	}
	return value.EdgeVal(e)
}

// EdgeDirection reports the direction of the currently-cursored edge
// column: true for outbound ("+"), false for inbound ("-"). Used by
// VarSteps to decide whether to flip src/dst when chaining traversal
// steps.
func (n *NeighborsIter) EdgeDirection() (outbound bool, ok bool) {
	pos, valid := n.current()
	if !valid {
		return false, false
	}
	return n.edgeCols[pos.ds][pos.ec].outbound, true
}

// GetVertices returns a List of every (dataset-row, tag) vertex
// occurrence, deduplicated per (vid, tag) pair, for downstream subgraph
// operators.
func (n *NeighborsIter) GetVertices() value.Value {
	seen := make(map[string]bool)
	var out []value.Value
	for dsIdx, ds := range n.datasets {
		for rIdx := range ds.Rows {
			vid, _ := ds.Rows[rIdx][ds.ColumnIndex(colVid)].AsString()
			for _, tc := range n.tagCols[dsIdx] {
				key := vid + "\x00" + tc.name
				if seen[key] {
					continue
				}
				seen[key] = true
				list, _ := ds.Rows[rIdx][tc.colIdx].AsList()
				props := make(map[string]value.Value, len(tc.propNames))
				for j, nm := range tc.propNames {
					if j < len(list) {
						props[nm] = list[j]
					}
				}
				out = append(out, value.VertexVal(value.Vertex{ID: vid, Tags: []value.Tag{{Name: tc.name, Props: props}}}))
			}
		}
	}
	return value.List(out)
}

// GetEdges returns a List of every distinct (src, type, rank, dst) edge,
// for downstream subgraph operators.
func (n *NeighborsIter) GetEdges() value.Value {
	seen := make(map[string]bool)
	var out []value.Value
	for dsIdx, ds := range n.datasets {
		for rIdx := range ds.Rows {
			vid, _ := ds.Rows[rIdx][ds.ColumnIndex(colVid)].AsString()
			for _, ec := range n.edgeCols[dsIdx] {
				list, err := ds.Rows[rIdx][ec.colIdx].AsList()
				if err != nil {
					continue
				}
				for _, item := range list {
					inst, err := item.AsList()
					if err != nil {
						continue
					}
					dst, _ := inst[ec.dstIdx()].AsString()
					typ, _ := inst[ec.typeIdx()].AsInt()
					rank, _ := inst[ec.rankIdx()].AsInt()
					key := fmt.Sprintf("%s\x00%d\x00%d\x00%s", vid, typ, rank, dst)
					if seen[key] {
						continue
					}
					seen[key] = true
					props := make(map[string]value.Value, ec.dstIdx())
					for i := 0; i < ec.dstIdx(); i++ {
						props[ec.propNames[i]] = inst[i]
					}
					e := value.Edge{Src: vid, Dst: dst, Type: typ, Rank: rank, Name: ec.name, Props: props}
					if !ec.outbound {
						e = e.Reversed()
					}
					out = append(out, value.EdgeVal(e))
				}
			}
		}
	}
	return value.List(out)
}
