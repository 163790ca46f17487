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

// DefaultIter wraps a single scalar Value. size() is always 1 until erased.
// get_column and row must never be called on it; calling them panics with
// Unsupported rather than returning a sentinel, since they are a usage
// error, not a data question. The graph accessors (GetVertex, GetEdge,
// GetTagProp, GetEdgeProp) return the empty Value.
type DefaultIter struct {
	val     value.Value
	present bool
	pos     int
}

// NewDefault builds a default iterator over a single scalar value.
func NewDefault(v value.Value) *DefaultIter {
	return &DefaultIter{val: v, present: true}
}

func (d *DefaultIter) Kind() Kind { return KindDefault }
func (d *DefaultIter) Valid() bool {
	return d.present && d.pos == 0
}
func (d *DefaultIter) Next() {
	if d.pos == 0 {
		d.pos = 1
	}
}
func (d *DefaultIter) Row() (row.LogicalRow, bool) {
	panic(Unsupported{Kind: KindDefault, Op: "row"})
}
func (d *DefaultIter) Size() int {
	if d.present {
		return 1
	}
	return 0
}
func (d *DefaultIter) Empty() bool { return !d.present }
func (d *DefaultIter) Reset(pos int) {
	if pos != 0 {
		panic(Unsupported{Kind: KindDefault, Op: "reset(pos != 0)"})
	}
	d.pos = 0
}
func (d *DefaultIter) Copy() Iterator {
	cp := *d
	cp.pos = 0
	return &cp
}
func (d *DefaultIter) Erase() {
	d.present = false
}
func (d *DefaultIter) UnstableErase() { d.Erase() }
func (d *DefaultIter) EraseRange(first, last int) {
	if first >= last || first >= d.Size() {
		return
	}
	d.present = false
}
func (d *DefaultIter) Clear() {
	d.present = false
	d.pos = 0
}

// Value returns the wrapped scalar directly; this is the one
// default-iterator-specific accessor beyond the common surface.
func (d *DefaultIter) Value() value.Value {
	if !d.present {
		return value.Empty()
	}
	return d.val
}

func (d *DefaultIter) GetColumn(interface{}) value.Value {
	panic(Unsupported{Kind: KindDefault, Op: "get_column"})
}
func (d *DefaultIter) GetVertex() value.Value { return value.Empty() }
func (d *DefaultIter) GetEdge() value.Value   { return value.Empty() }
func (d *DefaultIter) GetTagProp(string, string) value.Value  { return value.Empty() }
func (d *DefaultIter) GetEdgeProp(string, string) value.Value { return value.Empty() }
