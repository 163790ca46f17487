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

package exec

import (
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/vesoft-inc/graphd/iterator"
	"github.com/vesoft-inc/graphd/plan"
	"github.com/vesoft-inc/graphd/qctx"
	"github.com/vesoft-inc/graphd/status"
	"github.com/vesoft-inc/graphd/storage"
	"github.com/vesoft-inc/graphd/value"
)

// spaceHost is the storage_rpc_latency_seconds "host" label used for
// GetNeighbors calls: storage.Client has no per-partition host field in
// its Response, so the nearest thing to a routing key this package can
// observe is the target space id.
func spaceHost(space int64) string { return fmt.Sprintf("space-%d", space) }

// idsFromValue builds a plain id-set from whatever shape n's input
// variable holds: a DataSet uses its first column, a List or Set uses its
// elements directly. Every element is coerced to a string id via cast,
// since a caller may legitimately hold an int-valued vertex id.
func idsFromValue(v value.Value) []string {
	var raw []value.Value
	switch v.Kind() {
	case value.KindDataSet:
		ds, err := v.AsDataSet()
		if err != nil || len(ds.Columns) == 0 {
			return nil
		}
		raw = make([]value.Value, 0, len(ds.Rows))
		for _, r := range ds.Rows {
			if len(r) > 0 {
				raw = append(raw, r[0])
			}
		}
	case value.KindList:
		raw, _ = v.AsList()
	case value.KindSet:
		raw, _ = v.AsSet()
	default:
		raw = []value.Value{v}
	}

	ids := make([]string, 0, len(raw))
	for _, e := range raw {
		ids = append(ids, valueToID(e))
	}
	return ids
}

func valueToID(v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		return s
	case value.KindInt:
		i, _ := v.AsInt()
		return cast.ToString(i)
	case value.KindVertex:
		vtx, _ := v.AsVertex()
		return vtx.ID
	default:
		return cast.ToString(v.String())
	}
}

func dedupIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func idsToRows(ids []string) []value.Row {
	rows := make([]value.Row, len(ids))
	for i, id := range ids {
		rows[i] = value.Row{value.String(id)}
	}
	return rows
}

func buildGetNeighborsRequest(n *plan.Node, ids []string) storage.GetNeighborsRequest {
	return storage.GetNeighborsRequest{
		Space:       n.Space,
		Rows:        idsToRows(ids),
		EdgeTypes:   n.EdgeTypes,
		Direction:   n.Direction,
		StatProps:   n.StatProps,
		VertexProps: n.VertexProps,
		EdgeProps:   n.EdgeProps,
		Dedup:       n.Dedup,
	}
}

// evalCompleteness classifies a storage response per the failure-semantics
// rules: completeness 100 is a clean success; a partial value is accepted
// as partial-success only if the query's policy allows it, otherwise (and
// always at completeness 0) the first failed partition's error becomes a
// partition-failed status.
func evalCompleteness(qc *qctx.Context, resp storage.Response) (qctx.State, error) {
	switch {
	case resp.Completeness >= 100:
		return qctx.StateSuccess, nil
	case resp.Completeness > 0 && qc.PartialSuccessAllowed():
		qc.MarkPartialSuccess()
		return qctx.StatePartialSuccess, nil
	default:
		first := storage.FirstFailure(resp.FailedParts)
		if first == nil {
			first = storage.AggregateFailures(resp.FailedParts)
		}
		if first == nil {
			return qctx.StateUnexecuted, status.PartitionFailed.New("storage response incomplete with no partition error reported")
		}
		return qctx.StateUnexecuted, status.PartitionFailed.New(first.Error())
	}
}

// execGetNeighbors expands the id-set named by n's input variable through
// one storage GetNeighbors RPC, applying the query's partial-success
// policy to the response's completeness before publishing.
func execGetNeighbors(d *Driver, n *plan.Node) error {
	inRes, err := inputResult(d, n.InputVars[0])
	if err != nil {
		return err
	}
	ids := idsFromValue(inRes.Value())
	if n.Dedup {
		ids = dedupIDs(ids)
	}

	req := buildGetNeighborsRequest(n, ids)
	rpcStart := time.Now()
	resp, err := d.deps.Storage.GetNeighbors(d.qc, req)
	if d.metrics != nil {
		d.metrics.ObserveStorageRPC(spaceHost(n.Space), time.Since(rpcStart))
	}
	if err != nil {
		return status.StorageRPCFailed.New(err.Error())
	}

	state, err := evalCompleteness(d.qc, resp)
	if err != nil {
		return err
	}

	datasets := resp.Datasets
	res := qctx.NewResultWithIter(value.Empty(), state, func() iterator.Iterator {
		return iterator.NewNeighbors(datasets)
	}).WithStats(qctx.Stats{Rows: countDatasetRows(datasets)})
	return d.qc.ExecutionContext().SetResult(n.OutputVar, res)
}

func countDatasetRows(datasets []value.DataSet) int {
	total := 0
	for _, ds := range datasets {
		total += len(ds.Rows)
	}
	return total
}

// execVarSteps iterates GetNeighbors up to n.Steps rounds: each round's
// distinct destination ids seed the next round's id-set. n.UnionSteps
// controls whether every round's datasets are kept (unioned) or only the
// final round's; a partial-success from any round marks the whole result
// partial.
func execVarSteps(d *Driver, n *plan.Node) error {
	inRes, err := inputResult(d, n.InputVars[0])
	if err != nil {
		return err
	}
	ids := idsFromValue(inRes.Value())
	if n.Dedup {
		ids = dedupIDs(ids)
	}

	var unioned []value.DataSet
	var lastRound []value.DataSet
	state := qctx.StateSuccess

	for step := 0; step < n.Steps && len(ids) > 0; step++ {
		if d.qc.IsCancelled() {
			return status.Cancelled.New(d.qc.CancelReason())
		}

		req := buildGetNeighborsRequest(n, ids)
		rpcStart := time.Now()
		resp, err := d.deps.Storage.GetNeighbors(d.qc, req)
		if d.metrics != nil {
			d.metrics.ObserveStorageRPC(spaceHost(n.Space), time.Since(rpcStart))
		}
		if err != nil {
			return status.StorageRPCFailed.New(err.Error())
		}
		roundState, err := evalCompleteness(d.qc, resp)
		if err != nil {
			return err
		}
		if roundState == qctx.StatePartialSuccess {
			state = qctx.StatePartialSuccess
		}

		lastRound = resp.Datasets
		if n.UnionSteps {
			unioned = append(unioned, resp.Datasets...)
		}

		nit := iterator.NewNeighbors(resp.Datasets)
		var next []string
		for nit.Valid() {
			e, err := nit.GetEdge().AsEdge()
			if err == nil {
				dst := e.Dst
				if outbound, ok := nit.EdgeDirection(); ok && !outbound {
					dst = e.Src
				}
				next = append(next, dst)
			}
			nit.Next()
		}
		ids = dedupIDs(next)
	}

	final := lastRound
	if n.UnionSteps {
		final = unioned
	}
	res := qctx.NewResultWithIter(value.Empty(), state, func() iterator.Iterator {
		return iterator.NewNeighbors(final)
	}).WithStats(qctx.Stats{Rows: countDatasetRows(final)})
	return d.qc.ExecutionContext().SetResult(n.OutputVar, res)
}
