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

// Package metrics collects the executor-level Prometheus series and
// exposes them, plus the live plan registry, over HTTP. A Registry wraps
// its own prometheus.Registry rather than registering into the global
// default one, so a test can build a throwaway Registry per case without
// tripping "duplicate metrics collector registration attempted" panics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry owns one query engine's Prometheus collectors.
type Registry struct {
	reg *prometheus.Registry

	executorDuration   *prometheus.HistogramVec
	executorRows       *prometheus.CounterVec
	storageRPCLatency  *prometheus.HistogramVec
}

// NewRegistry builds a Registry with its collectors registered into a
// fresh prometheus.Registry.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Registry{
		reg: reg,
		executorDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graphd_executor_duration_seconds",
			Help:    "Wall-clock duration of one plan node executor's Execute call.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		executorRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "graphd_executor_rows_total",
			Help: "Rows published by plan node executors, cumulative.",
		}, []string{"kind"}),
		storageRPCLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graphd_storage_rpc_latency_seconds",
			Help:    "Latency of one storage.Client RPC round trip, by storage host.",
			Buckets: prometheus.DefBuckets,
		}, []string{"host"}),
	}
	return r
}

// ObserveExecutor records one executor's wall-clock duration and, if
// rows >= 0, the rows it published. rows < 0 means "unknown" (most
// operator kinds don't report a row count today) and is not counted.
func (r *Registry) ObserveExecutor(kind string, dur time.Duration, rows int) {
	r.executorDuration.WithLabelValues(kind).Observe(dur.Seconds())
	if rows >= 0 {
		r.executorRows.WithLabelValues(kind).Add(float64(rows))
	}
}

// ObserveStorageRPC records one storage.Client call's latency against the
// storage host that served it.
func (r *Registry) ObserveStorageRPC(host string, dur time.Duration) {
	r.storageRPCLatency.WithLabelValues(host).Observe(dur.Seconds())
}

// Gatherer exposes the underlying prometheus.Registry for promhttp.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
