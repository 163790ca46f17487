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

// Package row implements a logical-row abstraction: a virtual row
// assembled, without copying, from one or more underlying value.Row
// segments borrowed from a Result's backing storage.
package row

import "github.com/vesoft-inc/graphd/value"

// Kind identifies which logical-row variant a LogicalRow is.
type Kind int

const (
	KindSequential Kind = iota
	KindProperty
	KindJoin
	KindNeighbors
)

// LogicalRow is a zero-copy indexed view over one or more Row segments.
// Indexing is total: Get never fails, it returns an empty/null sentinel
// past the end instead.
type LogicalRow interface {
	Kind() Kind
	// Get returns the value at position i, or value.Empty() if i is out of
	// range. Negative indices are not part of this interface's contract;
	// callers that want modular/negative indexing go through the
	// iterator's get_column, which applies that policy itself.
	Get(i int) value.Value
	// Size returns the number of addressable positions in this logical
	// row (its segment's column count), or 0 for Kind() == KindNeighbors,
	// which is not random-access.
	Size() int
}

// Sequential is a logical row backed by exactly one Row segment: index i
// returns segment[i] or value.Empty() past the end.
type Sequential struct {
	Segment value.Row
	kind    Kind
}

// NewSequential builds a Sequential logical row over a borrowed segment.
func NewSequential(seg value.Row) Sequential {
	return Sequential{Segment: seg, kind: KindSequential}
}

// NewProperty builds a logical row with Sequential's storage shape but
// Kind() == KindProperty, used when the backing DataSet's columns encode
// tag.prop / edge-key triples.
func NewProperty(seg value.Row) Sequential {
	return Sequential{Segment: seg, kind: KindProperty}
}

func (s Sequential) Kind() Kind { return s.kind }

func (s Sequential) Get(i int) value.Value {
	if i < 0 || i >= len(s.Segment) {
		return value.Empty()
	}
	return s.Segment[i]
}

func (s Sequential) Size() int { return len(s.Segment) }

// SegRef locates one column of a Join logical row: which input segment it
// came from, and the column index within that segment.
type SegRef struct {
	SegIdx   int
	InnerIdx int
}

// JoinIndex is the shared `outputIdx -> (segIdx, innerIdx)` map built once
// at join-iterator construction time and referenced (never copied) by
// every JoinRow it produces.
type JoinIndex struct {
	// NameToPos resolves a column name to its output position. Name
	// collisions between the two inputs resolve to the later (right-side)
	// binding, matching scenario 3.
	NameToPos map[string]int
	// PosToRef resolves an output column position to its segment
	// reference, preserving declared column order.
	PosToRef []SegRef
	Columns  []string
}

// JoinRow is a logical row over N segments borrowed from two input
// iterators' backing storage, addressed through a shared JoinIndex. It
// never materializes a concatenated row; Get dereferences the right
// segment on demand.
type JoinRow struct {
	Segments []value.Row
	Index    *JoinIndex
}

func (j JoinRow) Kind() Kind { return KindJoin }

func (j JoinRow) Get(i int) value.Value {
	if i < 0 || i >= len(j.Index.PosToRef) {
		return value.Empty()
	}
	ref := j.Index.PosToRef[i]
	if ref.SegIdx < 0 || ref.SegIdx >= len(j.Segments) {
		return value.Empty()
	}
	seg := j.Segments[ref.SegIdx]
	if ref.InnerIdx < 0 || ref.InnerIdx >= len(seg) {
		return value.Empty()
	}
	return seg[ref.InnerIdx]
}

func (j JoinRow) Size() int { return len(j.Index.PosToRef) }

// GetByName resolves a join output column by name through the shared
// index, honoring the right-side-wins collision rule.
func (j JoinRow) GetByName(name string) value.Value {
	pos, ok := j.Index.NameToPos[name]
	if !ok {
		return value.Null()
	}
	return j.Get(pos)
}

// Equal reports whether two logical rows compare equal: their segment
// sequences compare equal pairwise by value.
func Equal(a, b LogicalRow) bool {
	if a.Size() != b.Size() {
		return false
	}
	for i := 0; i < a.Size(); i++ {
		if !value.Equal(a.Get(i), b.Get(i)) {
			return false
		}
	}
	return true
}

// Hash XORs the per-position content hashes of a logical row, mirroring
// value.HashRow's order-independence trade-off.
func Hash(r LogicalRow) uint64 {
	var acc uint64
	for i := 0; i < r.Size(); i++ {
		acc ^= value.Hash(r.Get(i))
	}
	return acc
}
