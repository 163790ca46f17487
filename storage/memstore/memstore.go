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

// Package memstore implements an in-process, mutex-guarded storage.Client
// and schema.Catalog over plain Go maps, for tests and local demos that
// need a working graph backend without a real storage/meta cluster. It
// trades every production concern (persistence, partitioning, replication)
// for a single map-of-maps kept behind one RWMutex.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vesoft-inc/graphd/schema"
	"github.com/vesoft-inc/graphd/storage"
	"github.com/vesoft-inc/graphd/value"
)

type vertexRow struct {
	id   string
	tags map[int64]map[string]value.Value // tagID -> prop name -> value
}

type edgeRow struct {
	src, dst string
	typ      int64
	rank     int64
	props    map[string]value.Value
}

type spaceData struct {
	tagDefs      map[int64]schema.TagSchema
	tagIDByName  map[string]int64
	edgeDefs     map[int64]schema.EdgeSchema
	edgeIDByName map[string]int64

	vertices map[string]*vertexRow
	outEdges map[string][]*edgeRow
	inEdges  map[string][]*edgeRow
}

func newSpaceData() *spaceData {
	return &spaceData{
		tagDefs:      make(map[int64]schema.TagSchema),
		tagIDByName:  make(map[string]int64),
		edgeDefs:     make(map[int64]schema.EdgeSchema),
		edgeIDByName: make(map[string]int64),
		vertices:     make(map[string]*vertexRow),
		outEdges:     make(map[string][]*edgeRow),
		inEdges:      make(map[string][]*edgeRow),
	}
}

// scheduledFailure is a one-shot canned response a test queues up via
// InjectGetNeighborsFailure, consumed by the next matching GetNeighbors
// call.
type scheduledFailure struct {
	space        int64
	completeness int
	failedParts  map[int32]error
}

// Store is an in-memory graph space catalog plus data store, implementing
// both storage.Client and schema.Catalog so a single value can stand in
// for both external collaborators in tests.
type Store struct {
	mu sync.RWMutex

	spaceIDByName map[string]int64
	spaceNameByID map[int64]string
	nextSpaceID   int64
	nextTagID     int64
	nextEdgeType  int64

	spaces map[int64]*spaceData

	pendingFailures []scheduledFailure
}

// NewStore builds an empty Store with no spaces defined.
func NewStore() *Store {
	return &Store{
		spaceIDByName: make(map[string]int64),
		spaceNameByID: make(map[int64]string),
		spaces:        make(map[int64]*spaceData),
	}
}

// DefineSpace registers a named graph space, returning its assigned id.
// Calling it twice with the same name returns the existing id.
func (s *Store) DefineSpace(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.spaceIDByName[name]; ok {
		return id
	}
	s.nextSpaceID++
	id := s.nextSpaceID
	s.spaceIDByName[name] = id
	s.spaceNameByID[id] = name
	s.spaces[id] = newSpaceData()
	return id
}

// DefineTag registers a tag type's column schema within a space, returning
// its assigned id.
func (s *Store) DefineTag(spaceID int64, name string, columns []schema.Column) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := s.spaces[spaceID]
	s.nextTagID++
	id := s.nextTagID
	sp.tagDefs[id] = schema.TagSchema{SpaceID: spaceID, TagID: id, Name: name, Columns: columns}
	sp.tagIDByName[name] = id
	return id
}

// DefineEdgeType registers an edge type's column schema within a space,
// returning its assigned type id.
func (s *Store) DefineEdgeType(spaceID int64, name string, columns []schema.Column) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := s.spaces[spaceID]
	s.nextEdgeType++
	id := s.nextEdgeType
	sp.edgeDefs[id] = schema.EdgeSchema{SpaceID: spaceID, EdgeType: id, Name: name, Columns: columns}
	sp.edgeIDByName[name] = id
	return id
}

// PutVertex upserts one tag's properties on a vertex, creating the vertex
// if it doesn't exist yet.
func (s *Store) PutVertex(spaceID int64, vid string, tagID int64, props map[string]value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := s.spaces[spaceID]
	v, ok := sp.vertices[vid]
	if !ok {
		v = &vertexRow{id: vid, tags: make(map[int64]map[string]value.Value)}
		sp.vertices[vid] = v
	}
	v.tags[tagID] = props
}

// PutEdge upserts one edge instance, indexed for both outbound traversal
// from src and inbound traversal from dst.
func (s *Store) PutEdge(spaceID int64, src, dst string, edgeType, rank int64, props map[string]value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := s.spaces[spaceID]
	e := &edgeRow{src: src, dst: dst, typ: edgeType, rank: rank, props: props}
	sp.outEdges[src] = append(sp.outEdges[src], e)
	sp.inEdges[dst] = append(sp.inEdges[dst], e)
}

// InjectGetNeighborsFailure queues a canned completeness/failure pair to be
// returned by the next GetNeighbors call against space, instead of the
// store's real data — a hook for driving
// the partial-success and partition-failed code paths without a real
// storage cluster to misbehave.
func (s *Store) InjectGetNeighborsFailure(space int64, completeness int, failedParts map[int32]error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingFailures = append(s.pendingFailures, scheduledFailure{
		space:        space,
		completeness: completeness,
		failedParts:  failedParts,
	})
}

func (s *Store) popFailure(space int64) (scheduledFailure, bool) {
	for i, f := range s.pendingFailures {
		if f.space == space {
			s.pendingFailures = append(s.pendingFailures[:i], s.pendingFailures[i+1:]...)
			return f, true
		}
	}
	return scheduledFailure{}, false
}

// --- schema.Catalog ---

func (s *Store) SpaceIDByName(name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.spaceIDByName[name]
	if !ok {
		return 0, fmt.Errorf("memstore: unknown space %q", name)
	}
	return id, nil
}

func (s *Store) TagIDByName(spaceID int64, name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.spaces[spaceID]
	if !ok {
		return 0, fmt.Errorf("memstore: unknown space %d", spaceID)
	}
	id, ok := sp.tagIDByName[name]
	if !ok {
		return 0, fmt.Errorf("memstore: unknown tag %q in space %d", name, spaceID)
	}
	return id, nil
}

func (s *Store) EdgeTypeByName(spaceID int64, name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.spaces[spaceID]
	if !ok {
		return 0, fmt.Errorf("memstore: unknown space %d", spaceID)
	}
	id, ok := sp.edgeIDByName[name]
	if !ok {
		return 0, fmt.Errorf("memstore: unknown edge type %q in space %d", name, spaceID)
	}
	return id, nil
}

func (s *Store) GetTagSchema(spaceID, tagID int64) (schema.TagSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.spaces[spaceID]
	if !ok {
		return schema.TagSchema{}, fmt.Errorf("memstore: unknown space %d", spaceID)
	}
	t, ok := sp.tagDefs[tagID]
	if !ok {
		return schema.TagSchema{}, fmt.Errorf("memstore: unknown tag id %d in space %d", tagID, spaceID)
	}
	return t, nil
}

func (s *Store) GetEdgeSchema(spaceID, edgeType int64) (schema.EdgeSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.spaces[spaceID]
	if !ok {
		return schema.EdgeSchema{}, fmt.Errorf("memstore: unknown space %d", spaceID)
	}
	e, ok := sp.edgeDefs[edgeType]
	if !ok {
		return schema.EdgeSchema{}, fmt.Errorf("memstore: unknown edge type %d in space %d", edgeType, spaceID)
	}
	return e, nil
}

var _ schema.Catalog = (*Store)(nil)
var _ storage.Client = (*Store)(nil)
