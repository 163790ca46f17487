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

// Package value implements the tagged-union Value model shared by every
// layer of the query executor: rows, iterators, expressions and results all
// traffic in value.Value rather than bare interface{}.
package value

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindEmpty Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindDate
	KindDateTime
	KindList
	KindSet
	KindMap
	KindVertex
	KindEdge
	KindPath
	KindDataSet
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "EMPTY"
	case KindNull:
		return "NULL"
	case KindBool:
		return "BOOL"
	case KindInt:
		return "INT"
	case KindFloat:
		return "FLOAT"
	case KindString:
		return "STRING"
	case KindDate:
		return "DATE"
	case KindDateTime:
		return "DATETIME"
	case KindList:
		return "LIST"
	case KindSet:
		return "SET"
	case KindMap:
		return "MAP"
	case KindVertex:
		return "VERTEX"
	case KindEdge:
		return "EDGE"
	case KindPath:
		return "PATH"
	case KindDataSet:
		return "DATASET"
	default:
		return "UNKNOWN"
	}
}

// NullKind distinguishes why a Value is null. Most nulls are the generic
// NullValue, but bad-type and out-of-range nulls propagate through
// arithmetic and comparison differently (see IsBadNull).
type NullKind int

const (
	NullValue NullKind = iota
	NullBadType
	NullOutOfRange
	NullDivByZero
	NullUnknownProp
)

// ErrWrongKind is returned by typed accessors (AsInt, AsVertex, ...) when
// called against a Value of a different Kind.
var ErrWrongKind = errors.New("value: wrong kind")

// Vertex is a graph vertex: an id plus its tags, each tag carrying a set of
// named properties.
type Vertex struct {
	ID   string
	Tags []Tag
}

// Tag is one tagged property bag attached to a Vertex.
type Tag struct {
	Name  string
	Props map[string]Value
}

// Edge is a directed, typed, ranked graph edge. Type is the signed numeric
// edge-type id (negative for the reverse/inbound direction, matching the
// storage layer's convention); Name is the human-readable edge type name.
type Edge struct {
	Src   string
	Dst   string
	Type  int64
	Rank  int64
	Name  string
	Props map[string]Value
}

// Reversed returns the edge with src/dst swapped and its type negated, the
// representation used when an inbound ("-") edge is reconstructed from a
// neighbors response (see iterator.NeighborsIter).
func (e Edge) Reversed() Edge {
	r := e
	r.Src, r.Dst = e.Dst, e.Src
	r.Type = -e.Type
	return r
}

// Path is an alternating sequence of vertices and edge steps.
type Path struct {
	Src   Vertex
	Steps []Step
}

// Step is one hop of a Path: the edge traversed and the vertex landed on.
type Step struct {
	Edge Edge
	Dst  Vertex
}

// Value is a discriminated union over graph query scalars, containers and
// graph-shaped values. The zero Value is KindEmpty.
type Value struct {
	kind     Kind
	nullKind NullKind
	b        bool
	i        int64
	f        float64
	s        string
	t        time.Time
	list     []Value
	// set stores elements keyed by their canonical hash so SetAdd is
	// O(1); elements themselves are retained in order for deterministic
	// iteration (append-only, never shrunk by key collision).
	set     []Value
	setKeys map[uint64]int
	m       map[string]Value
	vertex  *Vertex
	edge    *Edge
	path    *Path
	dataset *DataSet
}

// Empty returns the canonical empty Value (distinct from Null).
func Empty() Value { return Value{kind: KindEmpty} }

// Null returns a generic null Value.
func Null() Value { return Value{kind: KindNull, nullKind: NullValue} }

// NullOf returns a null Value carrying a specific NullKind, e.g. NullBadType.
func NullOf(nk NullKind) Value { return Value{kind: KindNull, nullKind: nk} }

func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Date(t time.Time) Value {
	return Value{kind: KindDate, t: t}
}
func DateTime(t time.Time) Value { return Value{kind: KindDateTime, t: t} }
func List(vs []Value) Value      { return Value{kind: KindList, list: vs} }
func Map(m map[string]Value) Value {
	return Value{kind: KindMap, m: m}
}
func VertexVal(v Vertex) Value { return Value{kind: KindVertex, vertex: &v} }
func EdgeVal(e Edge) Value     { return Value{kind: KindEdge, edge: &e} }
func PathVal(p Path) Value     { return Value{kind: KindPath, path: &p} }
func DataSetVal(d DataSet) Value {
	return Value{kind: KindDataSet, dataset: &d}
}

// NewSet builds a Set value, deduplicating elements by hash+equality.
func NewSet(vs []Value) Value {
	v := Value{kind: KindSet, setKeys: make(map[uint64]int, len(vs))}
	for _, e := range vs {
		v.SetAdd(e)
	}
	return v
}

// SetAdd inserts e into a Set value if not already present. No-op on any
// other Kind.
func (v *Value) SetAdd(e Value) {
	if v.kind != KindSet {
		return
	}
	if v.setKeys == nil {
		v.setKeys = make(map[uint64]int)
	}
	h := Hash(e)
	if idx, ok := v.setKeys[h]; ok && Equal(v.set[idx], e) {
		return
	}
	v.setKeys[h] = len(v.set)
	v.set = append(v.set, e)
}

func (v Value) Kind() Kind         { return v.kind }
func (v Value) NullKind() NullKind { return v.nullKind }
func (v Value) IsNull() bool       { return v.kind == KindNull }
func (v Value) IsEmpty() bool      { return v.kind == KindEmpty }

// IsBadNull reports whether v is a null that should short-circuit further
// evaluation with a type error rather than propagate silently.
func (v Value) IsBadNull() bool {
	return v.kind == KindNull && (v.nullKind == NullBadType || v.nullKind == NullOutOfRange)
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, ErrWrongKind
	}
	return v.b, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, ErrWrongKind
	}
	return v.i, nil
}

func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, ErrWrongKind
	}
	return v.f, nil
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", ErrWrongKind
	}
	return v.s, nil
}

func (v Value) AsTime() (time.Time, error) {
	if v.kind != KindDate && v.kind != KindDateTime {
		return time.Time{}, ErrWrongKind
	}
	return v.t, nil
}

func (v Value) AsList() ([]Value, error) {
	if v.kind != KindList {
		return nil, ErrWrongKind
	}
	return v.list, nil
}

func (v Value) AsSet() ([]Value, error) {
	if v.kind != KindSet {
		return nil, ErrWrongKind
	}
	return v.set, nil
}

func (v Value) AsMap() (map[string]Value, error) {
	if v.kind != KindMap {
		return nil, ErrWrongKind
	}
	return v.m, nil
}

func (v Value) AsVertex() (Vertex, error) {
	if v.kind != KindVertex {
		return Vertex{}, ErrWrongKind
	}
	return *v.vertex, nil
}

func (v Value) AsEdge() (Edge, error) {
	if v.kind != KindEdge {
		return Edge{}, ErrWrongKind
	}
	return *v.edge, nil
}

func (v Value) AsPath() (Path, error) {
	if v.kind != KindPath {
		return Path{}, ErrWrongKind
	}
	return *v.path, nil
}

func (v Value) AsDataSet() (DataSet, error) {
	if v.kind != KindDataSet {
		return DataSet{}, ErrWrongKind
	}
	return *v.dataset, nil
}

// IsTruthy implements the boolean coercion rules used by Filter/Loop
// predicates: bool values are themselves, empty/null-non-bad coerce to
// false, anything else (including BAD_TYPE nulls) is not a valid predicate
// result and callers must check IsBadNull/Kind first.
func (v Value) IsTruthy() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindEmpty:
		return false, true
	case KindNull:
		if v.IsBadNull() {
			return false, false
		}
		return false, true
	default:
		return false, false
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindEmpty:
		return "EMPTY"
	case KindNull:
		return "NULL"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindDate, KindDateTime:
		return v.t.String()
	case KindList:
		return fmt.Sprintf("%v", v.list)
	case KindSet:
		return fmt.Sprintf("%v", v.set)
	case KindMap:
		return fmt.Sprintf("%v", v.m)
	case KindVertex:
		return fmt.Sprintf("(%s)", v.vertex.ID)
	case KindEdge:
		return fmt.Sprintf("(%s)-[:%s]->(%s)", v.edge.Src, v.edge.Name, v.edge.Dst)
	case KindPath:
		return fmt.Sprintf("path<%d steps>", len(v.path.Steps))
	case KindDataSet:
		return fmt.Sprintf("dataset<%d rows>", len(v.dataset.Rows))
	default:
		return "?"
	}
}
