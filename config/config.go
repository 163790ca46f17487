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

// Package config declares the process-level configuration graphd loads
// once at startup: worker pool size, per-query resource limits, and the
// admin HTTP listen address. Nothing under qctx/exec/plan reads this
// package directly — cmd/graphd loads it and hands it to the root graphd
// Engine, which passes the resulting values down as plain arguments
// (workers int, deadline time.Duration, ...), keeping the core free of a
// YAML dependency of its own.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// PartialSuccessPolicy names the default partial-success behavior a query
// gets when it doesn't request one explicitly, matching the
// qctx.Context.PartialSuccessAllowed knob.
type PartialSuccessPolicy string

const (
	// PartialSuccessDeny fails a query outright on any partition failure.
	PartialSuccessDeny PartialSuccessPolicy = "deny"
	// PartialSuccessAllow lets a query finish with PartialSuccess state
	// when at least one partition answered.
	PartialSuccessAllow PartialSuccessPolicy = "allow"
)

// Config is the top-level YAML document loaded by cmd/graphd.
type Config struct {
	// Workers bounds how many plan node executors one query driver runs
	// concurrently; see exec.NewDriver's workers argument.
	Workers int `yaml:"workers"`

	// QueryMemoryBudgetBytes bounds one query's ExecutionContext; see
	// qctx.WithMemoryBudget.
	QueryMemoryBudgetBytes int64 `yaml:"query_memory_budget_bytes"`

	// QueryDeadline bounds one query's wall-clock execution time; see
	// qctx.WithDeadline.
	QueryDeadline time.Duration `yaml:"query_deadline"`

	// PartialSuccess is the default policy applied to a query that
	// doesn't set one itself.
	PartialSuccess PartialSuccessPolicy `yaml:"partial_success"`

	// MetricsAddr is the listen address for the /metrics and
	// /debug/plan/{queryID} HTTP endpoints (see metrics.NewHandler).
	// Empty disables the admin HTTP server entirely.
	MetricsAddr string `yaml:"metrics_addr"`
}

// rawConfig mirrors Config field-for-field except QueryDeadline, which
// yaml.v2 can't decode straight into a time.Duration (it has no special
// case for it the way it does for time.Time): the scalar is parsed as a
// plain string here and converted with time.ParseDuration.
type rawConfig struct {
	Workers                int                  `yaml:"workers"`
	QueryMemoryBudgetBytes int64                `yaml:"query_memory_budget_bytes"`
	QueryDeadline          string               `yaml:"query_deadline"`
	PartialSuccess         PartialSuccessPolicy `yaml:"partial_success"`
	MetricsAddr            string               `yaml:"metrics_addr"`
}

// UnmarshalYAML implements yaml.Unmarshaler so QueryDeadline can be
// written as a duration string ("30s", "2m") in the YAML document.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	raw := rawConfig{
		Workers:                c.Workers,
		QueryMemoryBudgetBytes: c.QueryMemoryBudgetBytes,
		QueryDeadline:          c.QueryDeadline.String(),
		PartialSuccess:         c.PartialSuccess,
		MetricsAddr:            c.MetricsAddr,
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	d, err := time.ParseDuration(raw.QueryDeadline)
	if err != nil {
		return errors.Wrap(err, "config: query_deadline")
	}
	c.Workers = raw.Workers
	c.QueryMemoryBudgetBytes = raw.QueryMemoryBudgetBytes
	c.QueryDeadline = d
	c.PartialSuccess = raw.PartialSuccess
	c.MetricsAddr = raw.MetricsAddr
	return nil
}

// Default returns the Config applied before a loaded document overrides
// its own fields, so a YAML file only has to set what it wants to change.
// It is also what a caller with no config file at all should run with.
func Default() Config {
	return Config{
		Workers:                16,
		QueryMemoryBudgetBytes: 256 << 20, // 256MiB
		QueryDeadline:          30 * time.Second,
		PartialSuccess:         PartialSuccessDeny,
		MetricsAddr:            ":9090",
	}
}

// Load reads and parses a YAML config document from path, validating it
// before returning.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: reading %s", path)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "config: parsing %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects a Config with values the rest of the process can't
// operate on, rather than letting them surface later as a confusing panic
// or a silently-unbounded resource.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return errors.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	if c.QueryMemoryBudgetBytes <= 0 {
		return errors.Errorf("config: query_memory_budget_bytes must be positive, got %d", c.QueryMemoryBudgetBytes)
	}
	if c.QueryDeadline <= 0 {
		return errors.Errorf("config: query_deadline must be positive, got %s", c.QueryDeadline)
	}
	switch c.PartialSuccess {
	case PartialSuccessDeny, PartialSuccessAllow:
	default:
		return errors.Errorf("config: partial_success must be %q or %q, got %q",
			PartialSuccessDeny, PartialSuccessAllow, c.PartialSuccess)
	}
	return nil
}
