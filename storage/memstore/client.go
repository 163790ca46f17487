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

package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/vesoft-inc/graphd/storage"
	"github.com/vesoft-inc/graphd/value"
)

const (
	colVid   = "_vid"
	colStats = "_stats"
	colExpr  = "_expr"
	tagPfx   = "_tag:"
	edgePfx  = "_edge:"
)

// GetNeighbors expands every requested id against the in-memory graph,
// returning one DataSet whose header follows the `_vid`/`_stats`/`_expr`
// plus `_tag:`/`_edge:` column convention the neighbors iterator parses.
// A call consumes one pending InjectGetNeighborsFailure entry for req.Space
// if one is queued, short-circuiting real data entirely.
func (s *Store) GetNeighbors(ctx context.Context, req storage.GetNeighborsRequest) (storage.Response, error) {
	s.mu.Lock()
	if f, ok := s.popFailure(req.Space); ok {
		s.mu.Unlock()
		return storage.Response{Completeness: f.completeness, FailedParts: f.failedParts}, nil
	}
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.spaces[req.Space]
	if !ok {
		return storage.Response{}, fmt.Errorf("memstore: unknown space %d", req.Space)
	}

	columns := []string{colVid, colStats, colExpr}

	tagIDs := make([]int64, 0, len(req.VertexProps))
	for id := range req.VertexProps {
		tagIDs = append(tagIDs, id)
	}
	sort.Slice(tagIDs, func(i, j int) bool { return tagIDs[i] < tagIDs[j] })
	for _, tagID := range tagIDs {
		def, ok := sp.tagDefs[tagID]
		if !ok {
			continue
		}
		col := tagPfx + def.Name
		if props := req.VertexProps[tagID]; len(props) > 0 {
			col += ":" + joinNames(props)
		}
		columns = append(columns, col)
	}

	type edgeSpec struct {
		typ      int64
		name     string
		outbound bool
		props    []string
	}
	var specs []edgeSpec
	for _, et := range req.EdgeTypes {
		def, ok := sp.edgeDefs[et]
		if !ok {
			continue
		}
		props := req.EdgeProps[et]
		if req.Direction != storage.DirectionInbound {
			specs = append(specs, edgeSpec{typ: et, name: def.Name, outbound: true, props: props})
		}
		if req.Direction != storage.DirectionOutbound {
			specs = append(specs, edgeSpec{typ: et, name: def.Name, outbound: false, props: props})
		}
	}
	for _, sc := range specs {
		sign := "+"
		if !sc.outbound {
			sign = "-"
		}
		col := edgePfx + sign + sc.name
		if len(sc.props) > 0 {
			col += ":" + joinNames(sc.props)
		}
		columns = append(columns, col+":_dst:_type:_rank")
	}

	rows := make([]value.Row, 0, len(req.Rows))
	for _, idRow := range req.Rows {
		if len(idRow) == 0 {
			continue
		}
		vid, err := idRow[0].AsString()
		if err != nil {
			continue
		}
		r := make(value.Row, 0, len(columns))
		// _stats and _expr carry no meaningful payload here: this store has
		// no cost/filter-expression accounting to report.
		r = append(r, value.String(vid), value.Null(), value.Null())

		vtx := sp.vertices[vid]
		for _, tagID := range tagIDs {
			var props map[string]value.Value
			if vtx != nil {
				props = vtx.tags[tagID]
			}
			vals := make([]value.Value, len(req.VertexProps[tagID]))
			for i, name := range req.VertexProps[tagID] {
				if v, ok := props[name]; ok {
					vals[i] = v
				} else {
					vals[i] = value.Null()
				}
			}
			r = append(r, value.List(vals))
		}

		for _, sc := range specs {
			var candidates []*edgeRow
			if sc.outbound {
				candidates = sp.outEdges[vid]
			} else {
				candidates = sp.inEdges[vid]
			}
			var instances []value.Value
			for _, e := range candidates {
				if e.typ != sc.typ {
					continue
				}
				other := e.dst
				if !sc.outbound {
					other = e.src
				}
				inst := make([]value.Value, 0, len(sc.props)+3)
				for _, name := range sc.props {
					if v, ok := e.props[name]; ok {
						inst = append(inst, v)
					} else {
						inst = append(inst, value.Null())
					}
				}
				inst = append(inst, value.String(other), value.Int(e.typ), value.Int(e.rank))
				instances = append(instances, value.List(inst))
			}
			r = append(r, value.List(instances))
		}

		rows = append(rows, r)
	}

	return storage.Response{
		Completeness: 100,
		Datasets:     []value.DataSet{value.NewDataSet(columns, rows)},
	}, nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ":"
		}
		out += n
	}
	return out
}

// GetProps fetches vertex tag properties (VertexProps set) or edge
// properties (EdgeProps set) for the rows named by req, in the
// `tag.prop`/`_src`/`_dst`/`_type`/`_rank` column convention the property
// iterator parses. A request populating both is treated as a vertex fetch.
func (s *Store) GetProps(ctx context.Context, req storage.GetPropsRequest) (storage.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.spaces[req.Space]
	if !ok {
		return storage.Response{}, fmt.Errorf("memstore: unknown space %d", req.Space)
	}

	if len(req.VertexProps) > 0 {
		return s.getVertexProps(sp, req)
	}
	return s.getEdgeProps(sp, req)
}

func (s *Store) getVertexProps(sp *spaceData, req storage.GetPropsRequest) (storage.Response, error) {
	columns := []string{"_vid"}
	tagIDs := make([]int64, 0, len(req.VertexProps))
	for id := range req.VertexProps {
		tagIDs = append(tagIDs, id)
	}
	sort.Slice(tagIDs, func(i, j int) bool { return tagIDs[i] < tagIDs[j] })
	for _, tagID := range tagIDs {
		def, ok := sp.tagDefs[tagID]
		if !ok {
			continue
		}
		for _, prop := range req.VertexProps[tagID] {
			columns = append(columns, def.Name+"."+prop)
		}
	}

	rows := make([]value.Row, 0, len(req.Rows))
	for _, idRow := range req.Rows {
		if len(idRow) == 0 {
			continue
		}
		vid, err := idRow[0].AsString()
		if err != nil {
			continue
		}
		vtx := sp.vertices[vid]
		r := make(value.Row, 0, len(columns))
		r = append(r, value.String(vid))
		for _, tagID := range tagIDs {
			var props map[string]value.Value
			if vtx != nil {
				props = vtx.tags[tagID]
			}
			for _, prop := range req.VertexProps[tagID] {
				if v, ok := props[prop]; ok {
					r = append(r, v)
				} else {
					r = append(r, value.Null())
				}
			}
		}
		rows = append(rows, r)
	}

	return storage.Response{Completeness: 100, Datasets: []value.DataSet{value.NewDataSet(columns, rows)}}, nil
}

func (s *Store) getEdgeProps(sp *spaceData, req storage.GetPropsRequest) (storage.Response, error) {
	columns := []string{"_src", "_dst", "_type", "_rank"}
	edgeTypes := make([]int64, 0, len(req.EdgeProps))
	for et := range req.EdgeProps {
		edgeTypes = append(edgeTypes, et)
	}
	sort.Slice(edgeTypes, func(i, j int) bool { return edgeTypes[i] < edgeTypes[j] })
	propsByType := make(map[int64][]string, len(edgeTypes))
	for _, et := range edgeTypes {
		propsByType[et] = req.EdgeProps[et]
		for _, prop := range req.EdgeProps[et] {
			columns = append(columns, sp.edgeDefs[et].Name+"."+prop)
		}
	}

	var rows []value.Row
	for _, idRow := range req.Rows {
		if len(idRow) == 0 {
			continue
		}
		src, err := idRow[0].AsString()
		if err != nil {
			continue
		}
		for _, e := range sp.outEdges[src] {
			props, ok := propsByType[e.typ]
			if !ok {
				continue
			}
			r := value.Row{value.String(e.src), value.String(e.dst), value.Int(e.typ), value.Int(e.rank)}
			for _, name := range props {
				if v, ok := e.props[name]; ok {
					r = append(r, v)
				} else {
					r = append(r, value.Null())
				}
			}
			rows = append(rows, r)
		}
	}
	return storage.Response{Completeness: 100, Datasets: []value.DataSet{value.NewDataSet(columns, rows)}}, nil
}

// Mutation row encodings: AddVertices/UpdateVertex rows are
// {vid string, tagID int64, props map}; AddEdges/UpdateEdge rows are
// {src, dst string, edgeType, rank int64, props map}; DeleteVertices rows
// are {vid string}; DeleteEdges rows are {src, dst string, edgeType,
// rank int64}.

func (s *Store) AddVertices(ctx context.Context, req storage.MutationRequest) (storage.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.spaces[req.Space]
	if !ok {
		return storage.Response{}, fmt.Errorf("memstore: unknown space %d", req.Space)
	}
	for _, r := range req.Rows {
		if len(r) < 3 {
			continue
		}
		vid, _ := r[0].AsString()
		tagID, _ := r[1].AsInt()
		props, _ := r[2].AsMap()
		v, ok := sp.vertices[vid]
		if !ok {
			v = &vertexRow{id: vid, tags: make(map[int64]map[string]value.Value)}
			sp.vertices[vid] = v
		}
		v.tags[tagID] = props
	}
	return storage.Response{Completeness: 100}, nil
}

func (s *Store) UpdateVertex(ctx context.Context, req storage.MutationRequest) (storage.Response, error) {
	return s.AddVertices(ctx, req)
}

func (s *Store) AddEdges(ctx context.Context, req storage.MutationRequest) (storage.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.spaces[req.Space]
	if !ok {
		return storage.Response{}, fmt.Errorf("memstore: unknown space %d", req.Space)
	}
	for _, r := range req.Rows {
		if len(r) < 5 {
			continue
		}
		src, _ := r[0].AsString()
		dst, _ := r[1].AsString()
		typ, _ := r[2].AsInt()
		rank, _ := r[3].AsInt()
		props, _ := r[4].AsMap()
		e := &edgeRow{src: src, dst: dst, typ: typ, rank: rank, props: props}
		sp.outEdges[src] = append(sp.outEdges[src], e)
		sp.inEdges[dst] = append(sp.inEdges[dst], e)
	}
	return storage.Response{Completeness: 100}, nil
}

func (s *Store) UpdateEdge(ctx context.Context, req storage.MutationRequest) (storage.Response, error) {
	return s.AddEdges(ctx, req)
}

func (s *Store) DeleteVertices(ctx context.Context, req storage.MutationRequest) (storage.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.spaces[req.Space]
	if !ok {
		return storage.Response{}, fmt.Errorf("memstore: unknown space %d", req.Space)
	}
	for _, r := range req.Rows {
		if len(r) < 1 {
			continue
		}
		vid, _ := r[0].AsString()
		delete(sp.vertices, vid)
	}
	return storage.Response{Completeness: 100}, nil
}

func (s *Store) DeleteEdges(ctx context.Context, req storage.MutationRequest) (storage.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.spaces[req.Space]
	if !ok {
		return storage.Response{}, fmt.Errorf("memstore: unknown space %d", req.Space)
	}
	for _, r := range req.Rows {
		if len(r) < 4 {
			continue
		}
		src, _ := r[0].AsString()
		dst, _ := r[1].AsString()
		typ, _ := r[2].AsInt()
		rank, _ := r[3].AsInt()
		sp.outEdges[src] = removeEdge(sp.outEdges[src], dst, typ, rank)
		sp.inEdges[dst] = removeEdge(sp.inEdges[dst], src, typ, rank)
	}
	return storage.Response{Completeness: 100}, nil
}

func removeEdge(edges []*edgeRow, other string, typ, rank int64) []*edgeRow {
	out := edges[:0]
	for _, e := range edges {
		if e.typ == typ && e.rank == rank && (e.dst == other || e.src == other) {
			continue
		}
		out = append(out, e)
	}
	return out
}
