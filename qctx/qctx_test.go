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

package qctx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vesoft-inc/graphd/value"
)

func TestSetGetValueRoundTrip(t *testing.T) {
	ec := NewExecutionContext(0)
	require.NoError(t, ec.SetValue("n", value.Int(42)))
	got := ec.GetValue("n")
	require.True(t, value.Equal(value.Int(42), got))
	require.Equal(t, 1, ec.NumVersions("n"))
}

func TestSetValueAccumulatesHistory(t *testing.T) {
	ec := NewExecutionContext(0)
	require.NoError(t, ec.SetValue("n", value.Int(1)))
	require.NoError(t, ec.SetValue("n", value.Int(2)))
	require.NoError(t, ec.SetValue("n", value.Int(3)))
	require.Equal(t, 3, ec.NumVersions("n"))

	require.True(t, value.Equal(value.Int(3), ec.GetValue("n")), "history-front is newest")

	v0, ok := ec.GetVersionedResult("n", 0)
	require.True(t, ok)
	require.True(t, value.Equal(value.Int(3), v0.Value()))

	v2, ok := ec.GetVersionedResult("n", 2)
	require.True(t, ok)
	require.True(t, value.Equal(value.Int(1), v2.Value()))

	_, ok = ec.GetVersionedResult("n", 3)
	require.False(t, ok, "out of range version is absent")
}

func TestTruncateToZeroRemovesEntry(t *testing.T) {
	ec := NewExecutionContext(0)
	require.NoError(t, ec.SetValue("n", value.Int(1)))
	require.NoError(t, ec.SetValue("n", value.Int(2)))
	ec.Truncate("n", 0)
	require.Equal(t, 0, ec.NumVersions("n"))
	require.True(t, value.Equal(value.Empty(), ec.GetValue("n")))
}

func TestTruncateKeepsNewest(t *testing.T) {
	ec := NewExecutionContext(0)
	for i := 1; i <= 5; i++ {
		require.NoError(t, ec.SetValue("n", value.Int(int64(i))))
	}
	ec.Truncate("n", 2)
	require.Equal(t, 2, ec.NumVersions("n"))
	require.True(t, value.Equal(value.Int(5), ec.GetValue("n")))
}

func TestDeleteRemovesAllVersions(t *testing.T) {
	ec := NewExecutionContext(0)
	require.NoError(t, ec.SetValue("n", value.Int(1)))
	ec.Delete("n")
	require.Equal(t, 0, ec.NumVersions("n"))
}

func TestGetValueOnAbsentNameIsEmpty(t *testing.T) {
	ec := NewExecutionContext(0)
	require.True(t, value.Equal(value.Empty(), ec.GetValue("nope")))
	require.Equal(t, 0, ec.NumVersions("nope"))
}

func TestShowVariablesReportsKindAndVersionCount(t *testing.T) {
	ec := NewExecutionContext(0)
	require.NoError(t, ec.SetValue("a", value.Int(1)))
	require.NoError(t, ec.SetValue("a", value.Int(2)))
	require.NoError(t, ec.SetValue("b", value.String("x")))

	vars := ec.ShowVariables()
	require.Equal(t, 2, vars["a"].NumVersions)
	require.Equal(t, value.KindInt, vars["a"].Kind)
	require.Equal(t, 1, vars["b"].NumVersions)
	require.Equal(t, value.KindString, vars["b"].Kind)
}

func TestMemoryBudgetRejectsOversizedSet(t *testing.T) {
	ec := NewExecutionContext(8)
	err := ec.SetValue("big", value.String("this string is definitely longer than eight bytes"))
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.Equal(t, 0, ec.NumVersions("big"))
}

func TestContextCancellation(t *testing.T) {
	qc := New(context.Background(), WithQueryID("q1"), WithSpaceID("s1"))
	require.False(t, qc.IsCancelled())
	qc.Cancel("storage timed out")
	require.True(t, qc.IsCancelled())
	require.Equal(t, "storage timed out", qc.CancelReason())
}

func TestContextDeadlineCancels(t *testing.T) {
	qc := New(context.Background(), WithDeadline(time.Now().Add(-time.Second)))
	require.True(t, qc.IsCancelled())
}

func TestContextParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	qc := New(parent)
	require.False(t, qc.IsCancelled())
	cancel()
	require.True(t, qc.IsCancelled())
}

func TestEmptyContextHasUsableExecutionContext(t *testing.T) {
	qc := Empty()
	require.NoError(t, qc.ExecutionContext().SetValue("n", value.Bool(true)))
	require.True(t, value.Equal(value.Bool(true), qc.ExecutionContext().GetValue("n")))
}
