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

// Package iterator implements a polymorphic cursor family: a uniform
// traversal/mutation/copy/reset surface over four result shapes (default,
// sequential, property, neighbors) plus a join iterator that concatenates
// two others without copying their storage.
package iterator

import (
	"github.com/vesoft-inc/graphd/row"
	"github.com/vesoft-inc/graphd/value"
)

// Kind identifies which iterator variant an Iterator is.
type Kind int

const (
	KindDefault Kind = iota
	KindSequential
	KindProperty
	KindNeighbors
	KindJoin
)

func (k Kind) String() string {
	switch k {
	case KindDefault:
		return "DEFAULT"
	case KindSequential:
		return "SEQUENTIAL"
	case KindProperty:
		return "PROPERTY"
	case KindNeighbors:
		return "NEIGHBORS"
	case KindJoin:
		return "JOIN"
	default:
		return "UNKNOWN"
	}
}

// NullValue and NullBadType are the sentinels returned by get_column for,
// respectively, an unknown column name and an out-of-range numeric index.
var (
	NullValue   = value.Null()
	NullBadType = value.NullOf(value.NullBadType)
)

// Unsupported is panicked by operations a given iterator Kind does not
// implement (e.g. erase_range on a neighbors iterator) — a contract
// violation, not a recoverable Status.
type Unsupported struct {
	Kind Kind
	Op   string
}

func (u Unsupported) Error() string {
	return u.Kind.String() + ": " + u.Op + " is not supported"
}

// Iterator is the common surface every iterator kind implements. Not every
// accessor is meaningful for every kind; kind-restricted operations either
// return a null sentinel (get_column/get_tag_prop/...) or panic with
// Unsupported (erase_range on Neighbors, get_column and row on Default),
// matching the source's assertion behavior.
type Iterator interface {
	Kind() Kind
	Valid() bool
	Next()
	Row() (row.LogicalRow, bool)
	Size() int
	Empty() bool
	Reset(pos int)
	Copy() Iterator
	Erase()
	UnstableErase()
	EraseRange(first, last int)
	Clear()

	// GetColumn resolves either a string column name or an int index.
	// String: unknown name -> NullValue. Int: modular in range -> that
	// column, out of range -> NullBadType.
	GetColumn(nameOrIndex interface{}) value.Value
	GetVertex() value.Value
	GetEdge() value.Value
	GetTagProp(tag, prop string) value.Value
	GetEdgeProp(edge, prop string) value.Value
}

func modIndex(i, size int) (int, bool) {
	if size == 0 {
		return 0, false
	}
	if i >= 0 && i < size {
		return i, true
	}
	if -i > 0 && -i <= size {
		return size + i, true
	}
	return 0, false
}

// resolveColumnIndex applies the shared get_column(i) policy to an
// iterator whose Size() is meaningful (sequential/property/join, not
// neighbors, which overrides GetColumn entirely).
func resolveColumnIndex(key interface{}, size int) (int, bool, bool) {
	switch k := key.(type) {
	case int:
		idx, ok := modIndex(k, size)
		return idx, true, ok
	case string:
		return 0, false, false
	default:
		return 0, false, false
	}
}
