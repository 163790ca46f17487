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

// graphd is the process entrypoint: it loads configuration, wires a
// demonstration graph space and plan through the execution driver, and
// serves the admin HTTP surface (/metrics, /debug/plan/{queryID}).
//
// graphd never parses a query language or speaks a wire protocol to an
// external client (both are explicit non-goals of the engine this
// package hosts); the plan it runs at startup is built directly with the
// plan package's constructors, standing in for whatever upstream service
// would otherwise hand graphd a plan.Graph to execute.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	"github.com/vesoft-inc/graphd"
	"github.com/vesoft-inc/graphd/config"
	"github.com/vesoft-inc/graphd/exec"
	"github.com/vesoft-inc/graphd/metrics"
	"github.com/vesoft-inc/graphd/plan"
	"github.com/vesoft-inc/graphd/schema"
	"github.com/vesoft-inc/graphd/storage/memstore"
	"github.com/vesoft-inc/graphd/value"
)

var configPath = flag.String("config", "", "path to a graphd.yaml config file; config.Default() values are used if empty")

func main() {
	flag.Parse()
	log := logrus.StandardLogger()

	cfg := config.Config{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.WithError(err).Fatal("graphd: failed to load config")
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	metricsReg := metrics.NewRegistry()
	planReg := metrics.NewPlanRegistry()
	tracer := opentracing.NoopTracer{}

	store := seedDemoSpace()

	runDemoQuery(log, cfg, store, metricsReg, planReg, tracer)

	if cfg.MetricsAddr == "" {
		log.Info("graphd: metrics_addr is empty, admin HTTP server disabled")
		return
	}
	serveUntilSignal(log, cfg.MetricsAddr, metrics.NewHandler(metricsReg, planReg))
}

// seedDemoSpace builds a tiny "social" graph space in an in-process
// memstore.Store, standing in for a real storage cluster.
func seedDemoSpace() *memstore.Store {
	store := memstore.NewStore()
	space := store.DefineSpace("social")
	person := store.DefineTag(space, "person", []schema.Column{
		{Name: "name", Type: schema.TypeString},
	})
	follow := store.DefineEdgeType(space, "follow", []schema.Column{
		{Name: "since", Type: schema.TypeInt},
	})

	store.PutVertex(space, "1", person, map[string]value.Value{"name": value.String("alice")})
	store.PutVertex(space, "2", person, map[string]value.Value{"name": value.String("bob")})
	store.PutVertex(space, "3", person, map[string]value.Value{"name": value.String("carol")})
	store.PutEdge(space, "1", "2", follow, 0, map[string]value.Value{"since": value.Int(2020)})
	store.PutEdge(space, "1", "3", follow, 0, map[string]value.Value{"since": value.Int(2021)})
	return store
}

// runDemoQuery builds and executes one GetNeighbors plan over the demo
// space ("who does vertex 1 follow?") through the Engine façade, logging
// its outcome. This is the smoke test that proves config, memstore,
// plan, exec, and the Engine itself are wired correctly end to end at
// process start.
func runDemoQuery(log *logrus.Logger, cfg config.Config, store *memstore.Store, reg *metrics.Registry, planReg *metrics.PlanRegistry, tracer opentracing.Tracer) {
	space, err := store.SpaceIDByName("social")
	if err != nil {
		log.WithError(err).Error("graphd: demo space missing")
		return
	}
	followType, err := store.EdgeTypeByName(space, "follow")
	if err != nil {
		log.WithError(err).Error("graphd: demo edge type missing")
		return
	}
	personTag, err := store.TagIDByName(space, "person")
	if err != nil {
		log.WithError(err).Error("graphd: demo tag missing")
		return
	}

	g := plan.NewGraph()
	start := plan.NewStart(g, "ids")
	neighbors := plan.NewGetNeighbors(g, start, "ids", "neighbors", plan.GetNeighborsParams{
		Space:       space,
		EdgeTypes:   []int64{followType},
		VertexProps: map[int64][]string{personTag: {"name"}},
		EdgeProps:   map[int64][]string{followType: {"since"}},
	})
	g.SetRoot(neighbors)

	engine := graphd.New(exec.Deps{Storage: store, Schema: store}, cfg, reg, planReg, graphd.WithTracer(tracer))

	res, err := engine.Query(context.Background(), graphd.QueryRequest{
		QueryID: "demo-1",
		SpaceID: "social",
		Graph:   g,
		Seed:    map[string]value.Value{"ids": value.List([]value.Value{value.String("1")})},
	})
	if err != nil {
		log.WithError(err).Warn("graphd: demo query failed")
		return
	}

	log.WithFields(logrus.Fields{
		"state": res.State().String(),
	}).Info("graphd: demo query complete")
}

// serveUntilSignal runs an HTTP server on addr until SIGINT/SIGTERM, then
// shuts it down gracefully.
func serveUntilSignal(log *logrus.Logger, addr string, handler http.Handler) {
	srv := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("graphd: admin HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("graphd: admin HTTP server failed")
		}
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("graphd: admin HTTP server shutdown error")
		}
	}
}
