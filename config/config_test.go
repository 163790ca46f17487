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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "graphd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	path := writeTemp(t, "workers: 8\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Workers)
	require.Equal(t, int64(256<<20), cfg.QueryMemoryBudgetBytes)
	require.Equal(t, 30*time.Second, cfg.QueryDeadline)
	require.Equal(t, PartialSuccessDeny, cfg.PartialSuccess)
}

func TestLoadOverridesEveryField(t *testing.T) {
	path := writeTemp(t, `
workers: 4
query_memory_budget_bytes: 1048576
query_deadline: 5s
partial_success: allow
metrics_addr: ":8081"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, int64(1048576), cfg.QueryMemoryBudgetBytes)
	require.Equal(t, 5*time.Second, cfg.QueryDeadline)
	require.Equal(t, PartialSuccessAllow, cfg.PartialSuccess)
	require.Equal(t, ":8081", cfg.MetricsAddr)
}

func TestLoadRejectsInvalidPartialSuccessPolicy(t *testing.T) {
	path := writeTemp(t, "partial_success: sometimes\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsNonPositiveWorkers(t *testing.T) {
	path := writeTemp(t, "workers: 0\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}
