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
	"github.com/vesoft-inc/graphd/expr"
	"github.com/vesoft-inc/graphd/expreval"
	"github.com/vesoft-inc/graphd/iterator"
	"github.com/vesoft-inc/graphd/plan"
	"github.com/vesoft-inc/graphd/qctx"
	"github.com/vesoft-inc/graphd/row"
	"github.com/vesoft-inc/graphd/status"
	"github.com/vesoft-inc/graphd/value"
)

// inputResult fetches the Result published under one of n's declared input
// variables. Absence means the plan graph itself is malformed — every
// input variable must already be registered by its producing node before
// a dependent node runs.
func inputResult(d *Driver, varName string) (qctx.Result, error) {
	r, ok := d.qc.ExecutionContext().GetResult(varName)
	if !ok {
		return qctx.Result{}, status.Internal.New("variable " + varName + " not found")
	}
	return r, nil
}

// inputDataSet fetches varName's Result and requires it hold a DataSet,
// the shape every data operator in this file consumes.
func inputDataSet(d *Driver, varName string) (value.DataSet, error) {
	r, err := inputResult(d, varName)
	if err != nil {
		return value.DataSet{}, err
	}
	ds, err := r.Value().AsDataSet()
	if err != nil {
		return value.DataSet{}, status.TypeMismatch.New("variable " + varName + " is not a dataset")
	}
	return ds, nil
}

// collectRows drains it from position 0, materializing ncols columns per
// surviving row. Used to rebuild a value.DataSet after an operator has
// mutated (erased rows from) a SequentialIter in place.
func collectRows(it iterator.Iterator, ncols int) []value.Row {
	out := make([]value.Row, 0, it.Size())
	it.Reset(0)
	for it.Valid() {
		lr, ok := it.Row()
		if !ok {
			break
		}
		rw := make(value.Row, ncols)
		for i := 0; i < ncols; i++ {
			rw[i] = lr.Get(i)
		}
		out = append(out, rw)
		it.Next()
	}
	return out
}

func publishDataSet(d *Driver, n *plan.Node, ds value.DataSet, state qctx.State) error {
	res := qctx.NewResultWithIter(value.DataSetVal(ds), state, func() iterator.Iterator {
		return iterator.NewSequential(ds)
	})
	return d.qc.ExecutionContext().SetResult(n.OutputVar, res)
}

// execStart republishes the value already sitting under n's own OutputVar
// (seeded by the caller before the driver runs), giving the scheduler a
// dependency-free anchor node for everything downstream. If nothing was
// seeded yet, an empty dataset is published so downstream nodes see a
// defined, empty input rather than failing to find the variable at all.
func execStart(d *Driver, n *plan.Node) error {
	ec := d.qc.ExecutionContext()
	if _, ok := ec.GetResult(n.OutputVar); ok {
		return nil
	}
	return ec.SetResult(n.OutputVar, qctx.NewResult(value.DataSetVal(value.NewDataSet(nil, nil))))
}

// execFilter erases rows where n.Predicate evaluates false, empty, or
// null-non-bad, using stable or unstable erase per n.Stable. A predicate
// that evaluates to BAD_TYPE, or to anything other than bool/empty/null,
// fails the node with a type-mismatch status.
func execFilter(d *Driver, n *plan.Node, ev *expreval.Context) error {
	ds, err := inputDataSet(d, n.InputVars[0])
	if err != nil {
		return err
	}
	it := iterator.NewSequential(ds)
	ev.Bind(it)

	for it.Valid() {
		v, err := n.Predicate.Eval(ev)
		if err != nil {
			return err
		}
		truthy, ok := v.IsTruthy()
		if !ok {
			return status.TypeMismatch.New("filter predicate did not evaluate to a boolean")
		}
		if truthy {
			it.Next()
			continue
		}
		if n.Stable {
			it.Erase()
		} else {
			it.UnstableErase()
		}
	}

	out := value.NewDataSet(ds.Columns, collectRows(it, len(ds.Columns)))
	return publishDataSet(d, n, out, qctx.StateSuccess)
}

// execProject builds a new DataSet with n.ProjectCols columns, each row's
// entry computed by evaluating the corresponding n.ProjectExprs entry
// against that row's bound scope.
func execProject(d *Driver, n *plan.Node, ev *expreval.Context) error {
	ds, err := inputDataSet(d, n.InputVars[0])
	if err != nil {
		return err
	}
	it := iterator.NewSequential(ds)
	ev.Bind(it)

	rows := make([]value.Row, 0, ds.Size())
	for it.Valid() {
		rw := make(value.Row, len(n.ProjectExprs))
		for i, e := range n.ProjectExprs {
			v, err := e.Eval(ev)
			if err != nil {
				return err
			}
			rw[i] = v
		}
		rows = append(rows, rw)
		it.Next()
	}

	out := value.NewDataSet(n.ProjectCols, rows)
	return publishDataSet(d, n, out, qctx.StateSuccess)
}

// execLimit applies erase_range(0, offset) then erase_range(count, end),
// both saturating, keeping at most n.Count rows starting at n.Offset.
func execLimit(d *Driver, n *plan.Node) error {
	ds, err := inputDataSet(d, n.InputVars[0])
	if err != nil {
		return err
	}
	it := iterator.NewSequential(ds)
	it.EraseRange(0, n.Offset)
	it.EraseRange(n.Count, it.Size())

	out := value.NewDataSet(ds.Columns, collectRows(it, len(ds.Columns)))
	return publishDataSet(d, n, out, qctx.StateSuccess)
}

// execJoin performs a classical hash join: the smaller side builds a hash
// table keyed by a List of its evaluated hash-key expressions, the larger
// side probes it. Output column order is always left-then-right,
// regardless of which side happened to build, so swapping build/probe for
// size never reorders the declared output.
func execJoin(d *Driver, n *plan.Node, ev *expreval.Context) error {
	leftDS, err := inputDataSet(d, n.InputVars[0])
	if err != nil {
		return err
	}
	rightDS, err := inputDataSet(d, n.InputVars[1])
	if err != nil {
		return err
	}

	idx := &row.JoinIndex{NameToPos: make(map[string]int)}
	for i, col := range leftDS.Columns {
		idx.Columns = append(idx.Columns, col)
		idx.PosToRef = append(idx.PosToRef, row.SegRef{SegIdx: 0, InnerIdx: i})
		idx.NameToPos[col] = len(idx.PosToRef) - 1
	}
	for i, col := range rightDS.Columns {
		idx.Columns = append(idx.Columns, col)
		idx.PosToRef = append(idx.PosToRef, row.SegRef{SegIdx: 1, InnerIdx: i})
		idx.NameToPos[col] = len(idx.PosToRef) - 1 // right side wins on collision
	}

	leftKeys, err := evalKeys(ev, leftDS, n.LeftHashKeys)
	if err != nil {
		return err
	}
	rightKeys, err := evalKeys(ev, rightDS, n.RightHashKeys)
	if err != nil {
		return err
	}

	buildLeft := len(leftDS.Rows) <= len(rightDS.Rows)

	type bucketEntry struct {
		rowIdx int
		key    value.Value
	}
	buckets := make(map[uint64][]bucketEntry)
	buildKeys, probeKeys := leftKeys, rightKeys
	if !buildLeft {
		buildKeys, probeKeys = rightKeys, leftKeys
	}
	for i, k := range buildKeys {
		h := value.Hash(k)
		buckets[h] = append(buckets[h], bucketEntry{rowIdx: i, key: k})
	}

	var joined []row.JoinRow
	for probeIdx, pk := range probeKeys {
		h := value.Hash(pk)
		for _, be := range buckets[h] {
			if !value.Equal(be.key, pk) {
				continue
			}
			var leftIdx, rightIdx int
			if buildLeft {
				leftIdx, rightIdx = be.rowIdx, probeIdx
			} else {
				leftIdx, rightIdx = probeIdx, be.rowIdx
			}
			l := row.NewSequential(leftDS.Rows[leftIdx])
			r := row.NewSequential(rightDS.Rows[rightIdx])
			joined = append(joined, iterator.NewJoinRow(idx, l, r))
		}
	}

	rows := make([]value.Row, len(joined))
	for i, jr := range joined {
		rw := make(value.Row, jr.Size())
		for c := 0; c < jr.Size(); c++ {
			rw[c] = jr.Get(c)
		}
		rows[i] = rw
	}
	out := value.NewDataSet(idx.Columns, rows)

	factoryIdx, factoryRows := idx, joined
	res := qctx.NewResultWithIter(value.DataSetVal(out), qctx.StateSuccess, func() iterator.Iterator {
		return iterator.NewJoinFromRows(factoryIdx, factoryRows)
	})
	return d.qc.ExecutionContext().SetResult(n.OutputVar, res)
}

// evalKeys evaluates exprs against every row of ds, returning one
// value.List key Value per row (the hash-table key for that row).
func evalKeys(ev *expreval.Context, ds value.DataSet, exprs []expr.Expression) ([]value.Value, error) {
	it := iterator.NewSequential(ds)
	keys := make([]value.Value, 0, len(ds.Rows))
	for i := 0; i < len(ds.Rows); i++ {
		it.Reset(i)
		ev.Bind(it)
		parts := make([]value.Value, len(exprs))
		for j, e := range exprs {
			v, err := e.Eval(ev)
			if err != nil {
				return nil, err
			}
			parts[j] = v
		}
		keys = append(keys, value.List(parts))
	}
	return keys, nil
}
