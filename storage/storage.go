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

// Package storage declares the storage-node RPC surface the core consumes
// as an external collaborator: GetNeighbors/GetProps and the mutation
// family, each returning a Response carrying a completeness percentage
// and a per-partition failure map. Transport, retries, partition routing
// and the storage node's own internals are out of scope; this package
// only fixes the contract GetNeighbors/VarSteps/property-fetch operators
// are written against.
package storage

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/vesoft-inc/graphd/value"
)

// Direction selects which side of an edge type a GetNeighbors call walks.
type Direction int

const (
	DirectionOutbound Direction = iota
	DirectionInbound
	DirectionBoth
)

// Response wraps the payload of any storage RPC with the completeness
// bookkeeping the exec package's failure-semantics rules consume: a
// completeness of 100 means every partition answered; a partial value
// means some partitions failed and FailedParts names which.
type Response struct {
	Completeness int
	FailedParts  map[int32]error
	Datasets     []value.DataSet
}

// GetNeighborsRequest parameterizes one GetNeighbors RPC. Rows is the
// id-set to expand, already deduplicated by the caller if Dedup is set.
type GetNeighborsRequest struct {
	Space        int64
	ColumnNames  []string
	Rows         []value.Row
	EdgeTypes    []int64
	Direction    Direction
	StatProps    []string
	VertexProps  map[int64][]string
	EdgeProps    map[int64][]string
	Exprs        []string
	Dedup        bool
	Random       bool
	OrderBy      []string
	Limit        int64
	Filter       string
}

// GetPropsRequest parameterizes a property fetch, for either vertex or
// edge rows depending on which of VertexProps/EdgeProps is populated.
type GetPropsRequest struct {
	Space       int64
	Rows        []value.Row
	VertexProps map[int64][]string
	EdgeProps   map[int64][]string
	Exprs       []string
	Dedup       bool
	OrderBy     []string
	Limit       int64
	Filter      string
}

// MutationRequest parameterizes add/delete/update calls; the layout of
// each entry in Rows depends on the operation.
type MutationRequest struct {
	Space int64
	Rows  []value.Row
}

// Client is the async storage RPC surface. Every method blocks on ctx,
// letting callers cancel an in-flight RPC cooperatively the same way the
// plan execution driver polls cancellation between row batches; results
// of a cancelled call are discarded by the caller, never force-aborted by
// the client itself.
type Client interface {
	GetNeighbors(ctx context.Context, req GetNeighborsRequest) (Response, error)
	GetProps(ctx context.Context, req GetPropsRequest) (Response, error)
	AddVertices(ctx context.Context, req MutationRequest) (Response, error)
	AddEdges(ctx context.Context, req MutationRequest) (Response, error)
	DeleteVertices(ctx context.Context, req MutationRequest) (Response, error)
	DeleteEdges(ctx context.Context, req MutationRequest) (Response, error)
	UpdateVertex(ctx context.Context, req MutationRequest) (Response, error)
	UpdateEdge(ctx context.Context, req MutationRequest) (Response, error)
}

// AggregateFailures folds a response's per-partition errors into one,
// ordered by partition id, for callers that need a single error to wrap
// with a status kind rather than a map.
func AggregateFailures(failedParts map[int32]error) error {
	if len(failedParts) == 0 {
		return nil
	}
	parts := make([]int32, 0, len(failedParts))
	for p := range failedParts {
		parts = append(parts, p)
	}
	for i := 1; i < len(parts); i++ {
		for j := i; j > 0 && parts[j-1] > parts[j]; j-- {
			parts[j-1], parts[j] = parts[j], parts[j-1]
		}
	}
	var merr *multierror.Error
	for _, p := range parts {
		merr = multierror.Append(merr, fmt.Errorf("partition %d: %w", p, failedParts[p]))
	}
	return merr.ErrorOrNil()
}

// FirstFailure returns the error for the lowest-numbered failed partition,
// the one a partition-failed status surfaces as its message.
func FirstFailure(failedParts map[int32]error) error {
	var minPart int32
	var first error
	set := false
	for p, err := range failedParts {
		if !set || p < minPart {
			minPart, first, set = p, err, true
		}
	}
	return first
}
