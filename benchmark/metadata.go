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

package benchmark

import (
	"fmt"
	"math/rand"

	"github.com/vesoft-inc/graphd/schema"
	"github.com/vesoft-inc/graphd/storage/memstore"
	"github.com/vesoft-inc/graphd/value"
)

var personColumns = []schema.Column{
	{Name: "name", Type: schema.TypeString},
	{Name: "age", Type: schema.TypeInt},
}

var followColumns = []schema.Column{
	{Name: "since", Type: schema.TypeInt},
}

// socialGraphParams sizes the synthetic dataset a benchmark runs its
// plan against: vertices person vertices, each with fanOut outbound
// follow edges to vertices chosen pseudo-randomly from the same set.
type socialGraphParams struct {
	vertices int
	fanOut   int
	seed     int64
}

// generatedSocialGraph is everything a benchmark needs to build a plan
// over the dataset generateSocialGraph just populated.
type generatedSocialGraph struct {
	store      *memstore.Store
	space      int64
	personTag  int64
	followType int64
	// seedIDs is a fixed, deterministic sample of vertex ids, used as the
	// GetNeighbors leaf's input so every benchmark iteration expands the
	// same starting set.
	seedIDs []value.Value
}

// generateSocialGraph populates an in-memory store with p.vertices person
// vertices and p.fanOut follow edges per vertex, deterministically from
// p.seed so repeated benchmark runs expand the same graph shape.
func generateSocialGraph(p socialGraphParams) generatedSocialGraph {
	store := memstore.NewStore()
	space := store.DefineSpace("social")
	personTag := store.DefineTag(space, "person", personColumns)
	followType := store.DefineEdgeType(space, "follow", followColumns)

	rng := rand.New(rand.NewSource(p.seed))
	for i := 0; i < p.vertices; i++ {
		vid := fmt.Sprintf("%d", i)
		store.PutVertex(space, vid, personTag, map[string]value.Value{
			"name": value.String(fmt.Sprintf("person-%d", i)),
			"age":  value.Int(int64(18 + rng.Intn(60))),
		})
	}
	for i := 0; i < p.vertices; i++ {
		src := fmt.Sprintf("%d", i)
		for f := 0; f < p.fanOut; f++ {
			dst := fmt.Sprintf("%d", rng.Intn(p.vertices))
			store.PutEdge(space, src, dst, followType, 0, map[string]value.Value{
				"since": value.Int(int64(2015 + rng.Intn(10))),
			})
		}
	}

	seedCount := p.vertices
	if seedCount > 64 {
		seedCount = 64
	}
	seedIDs := make([]value.Value, seedCount)
	for i := range seedIDs {
		seedIDs[i] = value.String(fmt.Sprintf("%d", i))
	}

	return generatedSocialGraph{
		store:      store,
		space:      space,
		personTag:  personTag,
		followType: followType,
		seedIDs:    seedIDs,
	}
}
