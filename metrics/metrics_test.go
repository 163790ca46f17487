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

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/stretchr/testify/require"

	"github.com/vesoft-inc/graphd/plan"
)

func TestObserveExecutorAndGatherer(t *testing.T) {
	reg := NewRegistry()
	reg.ObserveExecutor("Filter", 5*time.Millisecond, 3)
	reg.ObserveExecutor("Filter", 2*time.Millisecond, -1)

	families, err := reg.Gatherer().Gather()
	require.NoError(t, err)

	var sawDuration, sawRows bool
	for _, mf := range families {
		switch mf.GetName() {
		case "graphd_executor_duration_seconds":
			sawDuration = true
			require.Equal(t, uint64(2), mf.Metric[0].Histogram.GetSampleCount())
		case "graphd_executor_rows_total":
			sawRows = true
			require.Equal(t, float64(3), mf.Metric[0].Counter.GetValue())
		}
	}
	require.True(t, sawDuration)
	require.True(t, sawRows)
}

func TestStartAndFinishExecutorSpanIsSafeWithNoopTracer(t *testing.T) {
	span := StartExecutorSpan(opentracing.NoopTracer{}, "Filter", "out")
	require.NotNil(t, span)
	FinishExecutorSpan(span, 4, nil)
}

func TestPlanRegistryAndDebugEndpoint(t *testing.T) {
	g := plan.NewGraph()
	start := plan.NewStart(g, "in")
	g.SetRoot(start)

	plans := NewPlanRegistry()
	plans.Register("q1", g)

	reg := NewRegistry()
	srv := httptest.NewServer(NewHandler(reg, plans))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/debug/plan/q1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/debug/plan/missing")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusNotFound, resp2.StatusCode)

	resp3, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp3.Body.Close()
	require.Equal(t, http.StatusOK, resp3.StatusCode)

	plans.Unregister("q1")
	_, ok := plans.Get("q1")
	require.False(t, ok)
}
