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

package value

import (
	"encoding/binary"
	"strconv"

	"github.com/cespare/xxhash"
)

// Hash returns a structural hash of v, consumed by the Join and Aggregate
// operators for hash-table keys. Collisions are possible (e.g. across
// Kinds) but Equal is always the source of truth for correctness.
func Hash(v Value) uint64 {
	h := xxhash.New()
	hashInto(h, v)
	return h.Sum64()
}

func hashInto(h *xxhash.Digest, v Value) {
	var kindBuf [1]byte
	kindBuf[0] = byte(v.kind)
	_, _ = h.Write(kindBuf[:])
	switch v.kind {
	case KindEmpty, KindNull:
		// kind byte alone; distinguish null sub-kinds so BAD_TYPE never
		// collides with a plain NULL in a way that would matter for ==.
		_, _ = h.Write([]byte{byte(v.nullKind)})
	case KindBool:
		if v.b {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
	case KindInt:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(v.i))
		_, _ = h.Write(buf[:])
	case KindFloat:
		_, _ = h.Write([]byte(strconv.FormatFloat(v.f, 'g', -1, 64)))
	case KindString:
		_, _ = h.Write([]byte(v.s))
	case KindDate, KindDateTime:
		_, _ = h.Write([]byte(v.t.UTC().Format("2006-01-02T15:04:05.999999999Z")))
	case KindList:
		for _, e := range v.list {
			hashInto(h, e)
		}
	case KindSet:
		// XOR sub-hashes so element order never affects a Set's hash.
		var acc uint64
		for _, e := range v.set {
			acc ^= Hash(e)
		}
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], acc)
		_, _ = h.Write(buf[:])
	case KindMap:
		var acc uint64
		for k, e := range v.m {
			sub := xxhash.New()
			_, _ = sub.Write([]byte(k))
			hashInto(sub, e)
			acc ^= sub.Sum64()
		}
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], acc)
		_, _ = h.Write(buf[:])
	case KindVertex:
		_, _ = h.Write([]byte(v.vertex.ID))
	case KindEdge:
		_, _ = h.Write([]byte(v.edge.Src + "\x00" + v.edge.Dst + "\x00" + v.edge.Name))
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(v.edge.Rank))
		_, _ = h.Write(buf[:])
	case KindPath:
		hashInto(h, VertexVal(v.path.Src))
		for _, s := range v.path.Steps {
			hashInto(h, EdgeVal(s.Edge))
		}
	case KindDataSet:
		for _, r := range v.dataset.Rows {
			hashInto(h, List(r))
		}
	}
}

// HashRow XORs the per-segment content hashes of a row, giving a symmetric
// (order-independent) row hash: layout order matters for equality but not
// for the hash, which is acceptable because Equal remains the source of
// truth.
func HashRow(segments ...Row) uint64 {
	var acc uint64
	for _, seg := range segments {
		acc ^= Hash(List(seg))
	}
	return acc
}

// Equal implements strict structural equality. A null pointer (KindEmpty
// Vertex/Edge/Path/DataSet pointer, which cannot occur via the public
// constructors) equals another of the same shape only by field comparison.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindEmpty:
		return true
	case KindNull:
		return a.nullKind == b.nullKind
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindDate, KindDateTime:
		return a.t.Equal(b.t)
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindSet:
		if len(a.set) != len(b.set) {
			return false
		}
		for _, ea := range a.set {
			found := false
			for _, eb := range b.set {
				if Equal(ea, eb) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.m) != len(b.m) {
			return false
		}
		for k, va := range a.m {
			vb, ok := b.m[k]
			if !ok || !Equal(va, vb) {
				return false
			}
		}
		return true
	case KindVertex:
		return vertexEqual(*a.vertex, *b.vertex)
	case KindEdge:
		return edgeEqual(*a.edge, *b.edge)
	case KindPath:
		if len(a.path.Steps) != len(b.path.Steps) {
			return false
		}
		if !vertexEqual(a.path.Src, b.path.Src) {
			return false
		}
		for i := range a.path.Steps {
			if !Equal(EdgeVal(a.path.Steps[i].Edge), EdgeVal(b.path.Steps[i].Edge)) {
				return false
			}
			if !vertexEqual(a.path.Steps[i].Dst, b.path.Steps[i].Dst) {
				return false
			}
		}
		return true
	case KindDataSet:
		if len(a.dataset.Columns) != len(b.dataset.Columns) || len(a.dataset.Rows) != len(b.dataset.Rows) {
			return false
		}
		for i := range a.dataset.Columns {
			if a.dataset.Columns[i] != b.dataset.Columns[i] {
				return false
			}
		}
		for i := range a.dataset.Rows {
			if !RowEqual(a.dataset.Rows[i], b.dataset.Rows[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func edgeEqual(a, b Edge) bool {
	if a.Src != b.Src || a.Dst != b.Dst || a.Type != b.Type || a.Rank != b.Rank || a.Name != b.Name {
		return false
	}
	return Equal(Map(a.Props), Map(b.Props))
}

func vertexEqual(a, b Vertex) bool {
	if a.ID != b.ID || len(a.Tags) != len(b.Tags) {
		return false
	}
	for i := range a.Tags {
		if a.Tags[i].Name != b.Tags[i].Name {
			return false
		}
		if !Equal(Map(a.Tags[i].Props), Map(b.Tags[i].Props)) {
			return false
		}
	}
	return true
}

// RowEqual reports whether two rows compare equal pairwise by value.
func RowEqual(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
