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
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vesoft-inc/graphd/expr"
	"github.com/vesoft-inc/graphd/plan"
	"github.com/vesoft-inc/graphd/qctx"
	"github.com/vesoft-inc/graphd/status"
	"github.com/vesoft-inc/graphd/storage"
	"github.com/vesoft-inc/graphd/value"
)

// predicateFunc adapts a plain func to expr.Expression, the way
// http.HandlerFunc adapts a func to http.Handler — used throughout these
// tests in place of a full comparison-expression grammar, which is out of
// this core's scope.
type predicateFunc func(ctx expr.Context) (value.Value, error)

func (f predicateFunc) Eval(ctx expr.Context) (value.Value, error) { return f(ctx) }
func (f predicateFunc) String() string                             { return "predicateFunc" }
func (f predicateFunc) Children() []expr.Expression                { return nil }

func idDataSet(ids ...int64) value.DataSet {
	rows := make([]value.Row, len(ids))
	for i, id := range ids {
		rows[i] = value.Row{value.Int(id)}
	}
	return value.NewDataSet([]string{"id"}, rows)
}

func rowIDs(ds value.DataSet) []int64 {
	out := make([]int64, len(ds.Rows))
	for i, r := range ds.Rows {
		out[i], _ = r[0].AsInt()
	}
	return out
}

func TestExecFilterStableEraseKeepsSurvivorsInOrder(t *testing.T) {
	g := plan.NewGraph()
	start := plan.NewStart(g, "in")
	pred := predicateFunc(func(ctx expr.Context) (value.Value, error) {
		id, _ := ctx.GetInputProp("id").AsInt()
		return value.Bool(id > 2), nil
	})
	filter := plan.NewFilter(g, start, "in", "filtered", pred, true)
	g.SetRoot(filter)

	qc := qctx.Empty()
	qc.ExecutionContext().SetResult("in", qctx.NewResult(value.DataSetVal(idDataSet(1, 2, 3, 4))))

	d := NewDriver(g, qc, Deps{}, 4)
	require.NoError(t, d.Run())

	res, ok := qc.ExecutionContext().GetResult("filtered")
	require.True(t, ok)
	ds, err := res.Value().AsDataSet()
	require.NoError(t, err)
	require.Equal(t, []int64{3, 4}, rowIDs(ds))
}

func TestExecFilterBadPredicateFailsWithTypeMismatch(t *testing.T) {
	g := plan.NewGraph()
	start := plan.NewStart(g, "in")
	pred := predicateFunc(func(ctx expr.Context) (value.Value, error) {
		return value.Int(1), nil // not a valid predicate result
	})
	filter := plan.NewFilter(g, start, "in", "filtered", pred, true)
	g.SetRoot(filter)

	qc := qctx.Empty()
	qc.ExecutionContext().SetResult("in", qctx.NewResult(value.DataSetVal(idDataSet(1))))

	d := NewDriver(g, qc, Deps{}, 4)
	err := d.Run()
	require.Error(t, err)
	require.True(t, status.Is(err, status.TypeMismatch))
}

func TestExecProjectEvaluatesExprsPerRow(t *testing.T) {
	g := plan.NewGraph()
	start := plan.NewStart(g, "in")
	doubled := predicateFunc(func(ctx expr.Context) (value.Value, error) {
		id, _ := ctx.GetInputProp("id").AsInt()
		return value.Int(id * 2), nil
	})
	project := plan.NewProject(g, start, "in", "out", []string{"doubled"}, []expr.Expression{doubled})
	g.SetRoot(project)

	qc := qctx.Empty()
	qc.ExecutionContext().SetResult("in", qctx.NewResult(value.DataSetVal(idDataSet(1, 2, 3))))

	d := NewDriver(g, qc, Deps{}, 4)
	require.NoError(t, d.Run())

	res, _ := qc.ExecutionContext().GetResult("out")
	ds, err := res.Value().AsDataSet()
	require.NoError(t, err)
	require.Equal(t, []string{"doubled"}, ds.Columns)
	require.Equal(t, []int64{2, 4, 6}, rowIDs(ds))
}

func TestExecLimitSaturatesOffsetAndCount(t *testing.T) {
	cases := []struct {
		name           string
		offset, count  int
		want           []int64
	}{
		{"offset past end erases everything", 4, 2, []int64{}},
		{"offset within range keeps up to count", 1, 4, []int64{2, 3}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := plan.NewGraph()
			start := plan.NewStart(g, "in")
			limit := plan.NewLimit(g, start, "in", "out", c.offset, c.count)
			g.SetRoot(limit)

			qc := qctx.Empty()
			qc.ExecutionContext().SetResult("in", qctx.NewResult(value.DataSetVal(idDataSet(1, 2, 3))))

			d := NewDriver(g, qc, Deps{}, 4)
			require.NoError(t, d.Run())

			res, _ := qc.ExecutionContext().GetResult("out")
			ds, err := res.Value().AsDataSet()
			require.NoError(t, err)
			require.Equal(t, c.want, rowIDs(ds))
		})
	}
}

func TestExecJoinPreservesLeftThenRightColumnOrderRegardlessOfBuildSide(t *testing.T) {
	g := plan.NewGraph()
	leftStart := plan.NewStart(g, "l")
	rightStart := plan.NewStart(g, "r")
	keys := []expr.Expression{&expr.InputProp{Prop: "id"}}
	join := plan.NewJoin(g, leftStart, rightStart, "l", "r", "joined", keys, keys)
	g.SetRoot(join)

	qc := qctx.Empty()
	// Right side (3 rows) is larger than left (1 row): left builds.
	qc.ExecutionContext().SetResult("l", qctx.NewResult(value.DataSetVal(
		value.NewDataSet([]string{"id"}, []value.Row{{value.Int(2)}}))))
	qc.ExecutionContext().SetResult("r", qctx.NewResult(value.DataSetVal(
		value.NewDataSet([]string{"id"}, []value.Row{{value.Int(1)}, {value.Int(2)}, {value.Int(3)}}))))

	d := NewDriver(g, qc, Deps{}, 4)
	require.NoError(t, d.Run())

	res, _ := qc.ExecutionContext().GetResult("joined")
	ds, err := res.Value().AsDataSet()
	require.NoError(t, err)
	require.Equal(t, []string{"id", "id"}, ds.Columns)
	require.Len(t, ds.Rows, 1)
	left, _ := ds.Rows[0][0].AsInt()
	right, _ := ds.Rows[0][1].AsInt()
	require.Equal(t, int64(2), left)
	require.Equal(t, int64(2), right)
}

// fakeStorage is a minimal storage.Client returning one canned Response to
// every GetNeighbors call.
type fakeStorage struct {
	resp storage.Response
}

func (f *fakeStorage) GetNeighbors(context.Context, storage.GetNeighborsRequest) (storage.Response, error) {
	return f.resp, nil
}
func (f *fakeStorage) GetProps(context.Context, storage.GetPropsRequest) (storage.Response, error) {
	return storage.Response{}, nil
}
func (f *fakeStorage) AddVertices(context.Context, storage.MutationRequest) (storage.Response, error) {
	return storage.Response{}, nil
}
func (f *fakeStorage) AddEdges(context.Context, storage.MutationRequest) (storage.Response, error) {
	return storage.Response{}, nil
}
func (f *fakeStorage) DeleteVertices(context.Context, storage.MutationRequest) (storage.Response, error) {
	return storage.Response{}, nil
}
func (f *fakeStorage) DeleteEdges(context.Context, storage.MutationRequest) (storage.Response, error) {
	return storage.Response{}, nil
}
func (f *fakeStorage) UpdateVertex(context.Context, storage.MutationRequest) (storage.Response, error) {
	return storage.Response{}, nil
}
func (f *fakeStorage) UpdateEdge(context.Context, storage.MutationRequest) (storage.Response, error) {
	return storage.Response{}, nil
}

func neighborsDataSet(vid, dst string) value.DataSet {
	inst := value.List([]value.Value{value.String(dst), value.Int(10), value.Int(0)})
	return value.NewDataSet(
		[]string{"_vid", "_stats", "_expr", "_edge:+follow:_dst:_type:_rank"},
		[]value.Row{{value.String(vid), value.Null(), value.Null(), value.List([]value.Value{inst})}},
	)
}

func TestExecGetNeighborsPartialSuccessAcceptedWhenPolicyAllows(t *testing.T) {
	g := plan.NewGraph()
	start := plan.NewStart(g, "ids")
	gn := plan.NewGetNeighbors(g, start, "ids", "out", plan.GetNeighborsParams{Space: 1})
	g.SetRoot(gn)

	qc := qctx.New(context.Background(), qctx.WithPartialSuccessAllowed(true))
	qc.ExecutionContext().SetResult("ids", qctx.NewResult(value.List([]value.Value{value.String("v1")})))

	fs := &fakeStorage{resp: storage.Response{
		Completeness: 60,
		FailedParts:  map[int32]error{1: errors.New("partition 1 down"), 2: errors.New("partition 2 down")},
		Datasets:     []value.DataSet{neighborsDataSet("v1", "v2")},
	}}

	d := NewDriver(g, qc, Deps{Storage: fs}, 4)
	require.NoError(t, d.Run())
	require.True(t, qc.HasPartialSuccess())

	res, ok := qc.ExecutionContext().GetResult("out")
	require.True(t, ok)
	require.Equal(t, qctx.StatePartialSuccess, res.State())
}

func TestExecGetNeighborsPartialSuccessRejectedFailsWithPartitionError(t *testing.T) {
	g := plan.NewGraph()
	start := plan.NewStart(g, "ids")
	gn := plan.NewGetNeighbors(g, start, "ids", "out", plan.GetNeighborsParams{Space: 1})
	g.SetRoot(gn)

	qc := qctx.Empty() // partial success not allowed by default
	qc.ExecutionContext().SetResult("ids", qctx.NewResult(value.List([]value.Value{value.String("v1")})))

	fs := &fakeStorage{resp: storage.Response{
		Completeness: 60,
		FailedParts:  map[int32]error{1: errors.New("partition 1 down"), 2: errors.New("partition 2 down")},
		Datasets:     []value.DataSet{neighborsDataSet("v1", "v2")},
	}}

	d := NewDriver(g, qc, Deps{Storage: fs}, 4)
	err := d.Run()
	require.Error(t, err)
	require.True(t, status.Is(err, status.PartitionFailed))
	require.False(t, qc.HasPartialSuccess())
}

func TestDependencyFailurePropagatesWithoutRunningDownstreamBody(t *testing.T) {
	g := plan.NewGraph()
	start := plan.NewStart(g, "in")
	badPred := predicateFunc(func(ctx expr.Context) (value.Value, error) {
		return value.Int(1), nil
	})
	first := plan.NewFilter(g, start, "in", "mid", badPred, true)
	okPred := predicateFunc(func(ctx expr.Context) (value.Value, error) { return value.Bool(true), nil })
	second := plan.NewFilter(g, first, "mid", "out", okPred, true)
	g.SetRoot(second)

	qc := qctx.Empty()
	qc.ExecutionContext().SetResult("in", qctx.NewResult(value.DataSetVal(idDataSet(1))))

	d := NewDriver(g, qc, Deps{}, 4)
	err := d.Run()
	require.Error(t, err)
	require.True(t, status.Is(err, status.TypeMismatch))
	require.Contains(t, err.Error(), fmt.Sprintf("Filter(#%d)", second))

	_, ok := qc.ExecutionContext().GetResult("out")
	require.False(t, ok)
}

func TestCancelledContextShortCircuitsPendingNodes(t *testing.T) {
	g := plan.NewGraph()
	start := plan.NewStart(g, "in")
	g.SetRoot(start)

	qc := qctx.Empty()
	qc.Cancel("client went away")

	d := NewDriver(g, qc, Deps{}, 4)
	err := d.Run()
	require.Error(t, err)
	require.True(t, status.Is(err, status.Cancelled))
}

func TestLoopStopsImmediatelyWhenPredicateFalse(t *testing.T) {
	g := plan.NewGraph()
	start := plan.NewStart(g, "in")
	bodyPred := predicateFunc(func(ctx expr.Context) (value.Value, error) {
		return value.Bool(false), nil
	})
	loop := plan.NewLoop(g, start, "in", "out", bodyPred, 0)
	g.SetRoot(loop)

	qc := qctx.Empty()
	qc.ExecutionContext().SetResult("in", qctx.NewResult(value.DataSetVal(idDataSet(1))))

	d := NewDriver(g, qc, Deps{}, 4)
	require.NoError(t, d.Run())

	res, ok := qc.ExecutionContext().GetResult("out")
	require.True(t, ok)
	truthy, _ := res.Value().IsTruthy()
	require.False(t, truthy)
}

func TestLoopReentersBodyWhileConditionHoldsThenStops(t *testing.T) {
	g := plan.NewGraph()
	start := plan.NewStart(g, "in")

	turnOff := &expr.Assign{Name: "cond", Rhs: &expr.Literal{Val: value.Bool(false)}}
	body := plan.NewProject(g, start, "in", "bodyout", []string{"cond"}, []expr.Expression{turnOff})

	condPred := predicateFunc(func(ctx expr.Context) (value.Value, error) {
		return ctx.GetVar("cond"), nil
	})
	loop := plan.NewLoop(g, start, "in", "out", condPred, body)
	g.SetRoot(loop)

	qc := qctx.Empty()
	qc.ExecutionContext().SetResult("in", qctx.NewResult(value.DataSetVal(idDataSet(1))))
	qc.ExecutionContext().SetValue("cond", value.Bool(true))

	d := NewDriver(g, qc, Deps{}, 4)
	require.NoError(t, d.Run())

	count, _ := qc.ExecutionContext().GetValue(fmt.Sprintf("$__loop_counter_%d", loop)).AsInt()
	require.Equal(t, int64(1), count)

	res, ok := qc.ExecutionContext().GetResult("out")
	require.True(t, ok)
	truthy, _ := res.Value().IsTruthy()
	require.False(t, truthy)

	_, ok = qc.ExecutionContext().GetResult("bodyout")
	require.True(t, ok)
}

func TestSelectRoutesToThenOrElseBody(t *testing.T) {
	g := plan.NewGraph()
	start := plan.NewStart(g, "in")
	thenBody := plan.NewProject(g, start, "in", "thenout", []string{"tag"}, []expr.Expression{&expr.Literal{Val: value.String("then")}})
	elseBody := plan.NewProject(g, start, "in", "elseout", []string{"tag"}, []expr.Expression{&expr.Literal{Val: value.String("else")}})

	truePred := predicateFunc(func(ctx expr.Context) (value.Value, error) { return value.Bool(true), nil })
	sel := plan.NewSelect(g, start, "in", "out", truePred, thenBody, elseBody)
	g.SetRoot(sel)

	qc := qctx.Empty()
	qc.ExecutionContext().SetResult("in", qctx.NewResult(value.DataSetVal(idDataSet(1))))

	d := NewDriver(g, qc, Deps{}, 4)
	require.NoError(t, d.Run())

	res, ok := qc.ExecutionContext().GetResult("out")
	require.True(t, ok)
	ds, err := res.Value().AsDataSet()
	require.NoError(t, err)
	tag, _ := ds.Rows[0][0].AsString()
	require.Equal(t, "then", tag)
}
