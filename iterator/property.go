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
	"strings"

	"github.com/vesoft-inc/graphd/row"
	"github.com/vesoft-inc/graphd/value"
)

const (
	colSrc  = "_src"
	colDst  = "_dst"
	colType = "_type"
	colRank = "_rank"
)

// PropertyIter is storage-identical to SequentialIter but its column map
// is parsed from `tag.prop` / synthetic edge-key column names, plus
// per-tag/per-edge nested maps used by get_tag_prop/get_edge_prop.
type PropertyIter struct {
	colIdx map[string]int
	// propIdx is {name -> {prop -> colIdx}}, name being either a tag name
	// or an edge alias.
	propIdx map[string]map[string]int
	// nameOrder records first-appearance order of propIdx keys; GetVertex
	// presents tags in the reverse of this order.
	nameOrder []string
	rows      []row.Sequential
	pos       int
}

// NewProperty builds a property iterator over a DataSet whose columns use
// the `tag.prop` / `_src`/`_dst`/`_type`/`_rank` naming convention.
func NewProperty(ds value.DataSet) *PropertyIter {
	p := &PropertyIter{
		colIdx:  ds.ColumnIndices(),
		propIdx: make(map[string]map[string]int),
	}
	for i, col := range ds.Columns {
		if col == colSrc || col == colDst || col == colType || col == colRank {
			continue
		}
		if dot := strings.IndexByte(col, '.'); dot >= 0 {
			name, prop := col[:dot], col[dot+1:]
			if p.propIdx[name] == nil {
				p.propIdx[name] = make(map[string]int)
				p.nameOrder = append(p.nameOrder, name)
			}
			p.propIdx[name][prop] = i
		}
	}
	rows := make([]row.Sequential, len(ds.Rows))
	for i, r := range ds.Rows {
		rows[i] = row.NewProperty(r)
	}
	p.rows = rows
	return p
}

func (p *PropertyIter) Kind() Kind  { return KindProperty }
func (p *PropertyIter) Valid() bool { return p.pos < len(p.rows) }
func (p *PropertyIter) Next() {
	if p.pos < len(p.rows) {
		p.pos++
	}
}
func (p *PropertyIter) Row() (row.LogicalRow, bool) {
	if !p.Valid() {
		return nil, false
	}
	return p.rows[p.pos], true
}
func (p *PropertyIter) Size() int   { return len(p.rows) }
func (p *PropertyIter) Empty() bool { return len(p.rows) == 0 }

func (p *PropertyIter) Reset(pos int) {
	if pos < 0 || (pos >= len(p.rows) && !(pos == 0 && len(p.rows) == 0)) {
		panic(Unsupported{Kind: p.Kind(), Op: "reset(out-of-range pos)"})
	}
	p.pos = pos
}

func (p *PropertyIter) Copy() Iterator {
	rowsCopy := make([]row.Sequential, len(p.rows))
	copy(rowsCopy, p.rows)
	return &PropertyIter{colIdx: p.colIdx, propIdx: p.propIdx, nameOrder: p.nameOrder, rows: rowsCopy, pos: 0}
}

func (p *PropertyIter) Erase() {
	if !p.Valid() {
		return
	}
	p.rows = append(p.rows[:p.pos], p.rows[p.pos+1:]...)
}

func (p *PropertyIter) UnstableErase() {
	if !p.Valid() {
		return
	}
	last := len(p.rows) - 1
	p.rows[p.pos] = p.rows[last]
	p.rows = p.rows[:last]
}

func (p *PropertyIter) EraseRange(first, last int) {
	if first >= last || first >= len(p.rows) {
		return
	}
	if last > len(p.rows) {
		last = len(p.rows)
	}
	p.rows = append(p.rows[:first], p.rows[last:]...)
	p.pos = 0
}

func (p *PropertyIter) Clear() {
	p.rows = nil
	p.pos = 0
}

func (p *PropertyIter) GetColumn(key interface{}) value.Value {
	cur, ok := p.Row()
	if !ok {
		return NullValue
	}
	switch k := key.(type) {
	case string:
		idx, found := p.colIdx[k]
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

// GetProp looks up {name -> {prop -> idx}}, returning NullValue when
// absent. get_tag_prop and get_edge_prop are both aliases of this lookup.
func (p *PropertyIter) GetProp(name, prop string) value.Value {
	cur, ok := p.Row()
	if !ok {
		return NullValue
	}
	props, found := p.propIdx[name]
	if !found {
		return NullValue
	}
	idx, found := props[prop]
	if !found {
		return NullValue
	}
	return cur.Get(idx)
}

func (p *PropertyIter) GetTagProp(tag, prop string) value.Value  { return p.GetProp(tag, prop) }
func (p *PropertyIter) GetEdgeProp(edge, prop string) value.Value { return p.GetProp(edge, prop) }

// GetVertex reconstructs a Vertex by grouping all tag.* columns under
// their tag name. Tags are presented in reverse-insertion order.
func (p *PropertyIter) GetVertex() value.Value {
	cur, ok := p.Row()
	if !ok {
		return value.Empty()
	}
	vidIdx, found := p.colIdx["_vid"]
	if !found {
		return value.Empty()
	}
	vid, _ := cur.Get(vidIdx).AsString()

	names := p.nameOrder
	tags := make([]value.Tag, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		props := make(map[string]value.Value, len(p.propIdx[name]))
		for prop, idx := range p.propIdx[name] {
			props[prop] = cur.Get(idx)
		}
		tags = append(tags, value.Tag{Name: name, Props: props})
	}
	return value.VertexVal(value.Vertex{ID: vid, Tags: tags})
}

// GetEdge reconstructs an Edge from _src/_dst/_type/_rank plus property
// columns.
func (p *PropertyIter) GetEdge() value.Value {
	cur, ok := p.Row()
	if !ok {
		return value.Empty()
	}
	get := func(col string) value.Value {
		idx, found := p.colIdx[col]
		if !found {
			return value.Null()
		}
		return cur.Get(idx)
	}
	src, _ := get(colSrc).AsString()
	dst, _ := get(colDst).AsString()
	typ, _ := get(colType).AsInt()
	rank, _ := get(colRank).AsInt()

	var name string
	var props map[string]value.Value
	if len(p.nameOrder) > 0 {
		name = p.nameOrder[0]
		m := p.propIdx[name]
		props = make(map[string]value.Value, len(m))
		for prop, idx := range m {
			props[prop] = cur.Get(idx)
		}
	}
	return value.EdgeVal(value.Edge{Src: src, Dst: dst, Type: typ, Rank: rank, Name: name, Props: props})
}
