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
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vesoft-inc/graphd/plan"
)

// PlanRegistry tracks the plan.Graph of every query currently running (or
// recently finished), keyed by query id, so the debug endpoint can render
// one without the caller having to thread the graph through itself.
type PlanRegistry struct {
	mu     sync.RWMutex
	graphs map[string]*plan.Graph
}

// NewPlanRegistry returns an empty registry.
func NewPlanRegistry() *PlanRegistry {
	return &PlanRegistry{graphs: make(map[string]*plan.Graph)}
}

// Register associates queryID with g, overwriting any prior entry. A
// driver should call this once before Run and Unregister once Run
// returns, typically via defer.
func (p *PlanRegistry) Register(queryID string, g *plan.Graph) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.graphs[queryID] = g
}

// Unregister drops queryID's entry.
func (p *PlanRegistry) Unregister(queryID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.graphs, queryID)
}

// Get returns the graph registered for queryID, if any.
func (p *PlanRegistry) Get(queryID string) (*plan.Graph, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.graphs[queryID]
	return g, ok
}

// NewHandler builds the admin HTTP surface: `/metrics` (Prometheus text
// exposition over reg's own gatherer) and `/debug/plan/{queryID}`
// (the named query's explain() tree as JSON, 404 if unknown).
func NewHandler(reg *Registry, plans *PlanRegistry) http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))
	r.HandleFunc("/debug/plan/{queryID}", func(w http.ResponseWriter, req *http.Request) {
		queryID := mux.Vars(req)["queryID"]
		g, ok := plans.Get(queryID)
		if !ok {
			http.Error(w, "unknown query id", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(g.Explain()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return r
}
