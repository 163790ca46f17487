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

// SequentialIter owns a vector of sequential logical rows, each borrowing a
// Row from the underlying DataSet, plus a colName->colIndex map derived
// from the DataSet's column names.
type SequentialIter struct {
	colIdx map[string]int
	rows   []row.Sequential
	pos    int
}

// NewSequential builds a sequential iterator over a DataSet's rows.
func NewSequential(ds value.DataSet) *SequentialIter {
	rows := make([]row.Sequential, len(ds.Rows))
	for i, r := range ds.Rows {
		rows[i] = row.NewSequential(r)
	}
	return &SequentialIter{colIdx: ds.ColumnIndices(), rows: rows}
}

// NewSequentialUnion composes a sequential iterator from two input
// iterators: the output column map is the left iterator's; the right
// iterator's rows are appended positionally. This is only well defined
// when the two column arities match; callers must guarantee that.
func NewSequentialUnion(left, right *SequentialIter) *SequentialIter {
	out := &SequentialIter{colIdx: left.colIdx}
	out.rows = append(out.rows, left.rows...)
	out.rows = append(out.rows, right.rows...)
	return out
}

func (s *SequentialIter) Kind() Kind   { return KindSequential }
func (s *SequentialIter) Valid() bool  { return s.pos < len(s.rows) }
func (s *SequentialIter) Next() {
	if s.pos < len(s.rows) {
		s.pos++
	}
}
func (s *SequentialIter) Row() (row.LogicalRow, bool) {
	if !s.Valid() {
		return nil, false
	}
	return s.rows[s.pos], true
}
func (s *SequentialIter) Size() int  { return len(s.rows) }
func (s *SequentialIter) Empty() bool { return len(s.rows) == 0 }

func (s *SequentialIter) Reset(pos int) {
	if pos < 0 || (pos >= len(s.rows) && !(pos == 0 && len(s.rows) == 0)) {
		panic(Unsupported{Kind: s.Kind(), Op: "reset(out-of-range pos)"})
	}
	s.pos = pos
}

func (s *SequentialIter) Copy() Iterator {
	rowsCopy := make([]row.Sequential, len(s.rows))
	copy(rowsCopy, s.rows)
	return &SequentialIter{colIdx: s.colIdx, rows: rowsCopy, pos: 0}
}

func (s *SequentialIter) Erase() {
	if !s.Valid() {
		return
	}
	s.rows = append(s.rows[:s.pos], s.rows[s.pos+1:]...)
}

func (s *SequentialIter) UnstableErase() {
	if !s.Valid() {
		return
	}
	last := len(s.rows) - 1
	s.rows[s.pos] = s.rows[last]
	s.rows = s.rows[:last]
}

func (s *SequentialIter) EraseRange(first, last int) {
	if first >= last || first >= len(s.rows) {
		return
	}
	if last > len(s.rows) {
		last = len(s.rows)
	}
	s.rows = append(s.rows[:first], s.rows[last:]...)
	s.pos = 0
}

func (s *SequentialIter) Clear() {
	s.rows = nil
	s.pos = 0
}

func (s *SequentialIter) ColumnIndices() map[string]int { return s.colIdx }

func (s *SequentialIter) GetColumn(key interface{}) value.Value {
	cur, ok := s.Row()
	if !ok {
		return NullValue
	}
	switch k := key.(type) {
	case string:
		idx, found := s.colIdx[k]
		if !found {
			return NullValue
		}
		return cur.Get(idx)
	case int:
		idx, ok := modIndex(k, cur.Size())
		if !ok {
			return NullBadType
		}
		return cur.Get(idx)
	default:
		return NullValue
	}
}

func (s *SequentialIter) GetVertex() value.Value                  { return value.Empty() }
func (s *SequentialIter) GetEdge() value.Value                    { return value.Empty() }
func (s *SequentialIter) GetTagProp(string, string) value.Value   { return NullValue }
func (s *SequentialIter) GetEdgeProp(string, string) value.Value  { return NullValue }
