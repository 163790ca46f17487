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
	"github.com/vesoft-inc/graphd/row"
	"github.com/vesoft-inc/graphd/value"
)

// columnCatalog is what JoinIter needs from an upstream iterator to build
// its shared index: declared output columns plus, for each, how to reach
// it from a logical row (segment index unused here — catalogs are built
// per input, segIdx is assigned by NewJoin).
type columnCatalog struct {
	columns []string
	rows    []row.LogicalRow
}

// CatalogFrom drains an iterator (from its current position to the end)
// into a columnCatalog, used by NewJoin to build its shared index. Callers
// pass a fresh Copy() so the source iterator's own cursor is untouched.
func CatalogFrom(it Iterator, columns []string) columnCatalog {
	var rows []row.LogicalRow
	for it.Valid() {
		r, ok := it.Row()
		if ok {
			rows = append(rows, r)
		}
		it.Next()
	}
	return columnCatalog{columns: columns, rows: rows}
}

// JoinIter holds an ordered vector of output column names and a vector of
// join logical rows, each storing the concatenated segments (borrowed) and
// a pointer to a shared colIdx->(segIdx,innerIdx) index built once at
// construction.
type JoinIter struct {
	index *row.JoinIndex
	rows  []row.JoinRow
	pos   int
}

// NewJoin builds a join iterator from two input catalogs. Name collisions
// between the two resolve to the later (right-side) binding; callers that
// need both must pre-rename.
func NewJoin(left, right columnCatalog) *JoinIter {
	idx := &row.JoinIndex{NameToPos: make(map[string]int)}

	appendCatalog := func(segIdx int, cat columnCatalog) {
		for i, col := range cat.columns {
			pos := len(idx.PosToRef)
			idx.Columns = append(idx.Columns, col)
			idx.PosToRef = append(idx.PosToRef, row.SegRef{SegIdx: segIdx, InnerIdx: i})
			idx.NameToPos[col] = pos
		}
	}
	appendCatalog(0, left)
	appendCatalog(1, right)

	n := len(left.rows)
	if len(right.rows) > n {
		// Joined rows pair 1:1 by position here; higher-level Join operator
		// (exec package) is responsible for the actual hash-join matching
		// and calls NewJoinRow per matched pair instead of relying on this
		// convenience constructor's zip behavior.
		n = len(right.rows)
	}
	rows := make([]row.JoinRow, 0, n)
	for i := 0; i < n; i++ {
		var l, r row.LogicalRow
		if i < len(left.rows) {
			l = left.rows[i]
		}
		if i < len(right.rows) {
			r = right.rows[i]
		}
		rows = append(rows, NewJoinRow(idx, l, r))
	}
	return &JoinIter{index: idx, rows: rows}
}

// NewJoinRow builds one join logical row from a matched (left, right) pair
// of logical rows, referencing the shared index without materializing a
// concatenated row.
func NewJoinRow(idx *row.JoinIndex, left, right row.LogicalRow) row.JoinRow {
	segs := make([]value.Row, 2)
	segs[0] = materialize(left)
	segs[1] = materialize(right)
	return row.JoinRow{Segments: segs, Index: idx}
}

func materialize(r row.LogicalRow) value.Row {
	if r == nil {
		return nil
	}
	if s, ok := r.(row.Sequential); ok {
		return s.Segment
	}
	out := make(value.Row, r.Size())
	for i := 0; i < r.Size(); i++ {
		out[i] = r.Get(i)
	}
	return out
}

// NewJoinFromRows builds a join iterator directly from already-paired
// JoinRows sharing one index — used by the hash-join operator (exec
// package), which performs its own build/probe matching and only needs
// the iterator to present the result.
func NewJoinFromRows(idx *row.JoinIndex, rows []row.JoinRow) *JoinIter {
	return &JoinIter{index: idx, rows: rows}
}

func (j *JoinIter) Kind() Kind  { return KindJoin }
func (j *JoinIter) Valid() bool { return j.pos < len(j.rows) }
func (j *JoinIter) Next() {
	if j.pos < len(j.rows) {
		j.pos++
	}
}
func (j *JoinIter) Row() (row.LogicalRow, bool) {
	if !j.Valid() {
		return nil, false
	}
	return j.rows[j.pos], true
}
func (j *JoinIter) Size() int   { return len(j.rows) }
func (j *JoinIter) Empty() bool { return len(j.rows) == 0 }

func (j *JoinIter) Reset(pos int) {
	if pos < 0 || (pos >= len(j.rows) && !(pos == 0 && len(j.rows) == 0)) {
		panic(Unsupported{Kind: j.Kind(), Op: "reset(out-of-range pos)"})
	}
	j.pos = pos
}

func (j *JoinIter) Copy() Iterator {
	rowsCopy := make([]row.JoinRow, len(j.rows))
	copy(rowsCopy, j.rows)
	return &JoinIter{index: j.index, rows: rowsCopy, pos: 0}
}

func (j *JoinIter) Erase() {
	if !j.Valid() {
		return
	}
	j.rows = append(j.rows[:j.pos], j.rows[j.pos+1:]...)
}

func (j *JoinIter) UnstableErase() {
	if !j.Valid() {
		return
	}
	last := len(j.rows) - 1
	j.rows[j.pos] = j.rows[last]
	j.rows = j.rows[:last]
}

func (j *JoinIter) EraseRange(first, last int) {
	if first >= last || first >= len(j.rows) {
		return
	}
	if last > len(j.rows) {
		last = len(j.rows)
	}
	j.rows = append(j.rows[:first], j.rows[last:]...)
	j.pos = 0
}

func (j *JoinIter) Clear() {
	j.rows = nil
	j.pos = 0
}

func (j *JoinIter) GetColumn(key interface{}) value.Value {
	cur, ok := j.Row()
	if !ok {
		return NullValue
	}
	jr := cur.(row.JoinRow)
	switch k := key.(type) {
	case string:
		pos, found := j.index.NameToPos[k]
		if !found {
			return NullValue
		}
		return jr.Get(pos)
	case int:
		idx, ok := modIndex(k, jr.Size())
		if !ok {
			return NullBadType
		}
		return jr.Get(idx)
	default:
		return NullValue
	}
}

func (j *JoinIter) GetVertex() value.Value                  { return value.Empty() }
func (j *JoinIter) GetEdge() value.Value                    { return value.Empty() }
func (j *JoinIter) GetTagProp(string, string) value.Value   { return NullValue }
func (j *JoinIter) GetEdgeProp(string, string) value.Value  { return NullValue }

// Columns returns the join output's declared column order.
func (j *JoinIter) Columns() []string { return j.index.Columns }
