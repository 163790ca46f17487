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

// Package meta declares the thinnest possible handle onto the metadata
// service as an external collaborator. Space/tag/edge DDL, user/role ACL,
// config management, job and snapshot orchestration, and session
// lifecycle are all explicit non-goals of the core; the only thing the
// core actually calls through this interface is space resolution, needed
// to turn a query's target space name into the numeric id every storage
// and schema call is keyed by.
package meta

import "context"

// Client is the narrow slice of the metadata service the core depends on
// directly. Everything else named in the metadata service's surface
// (DDL, ACL, jobs, snapshots, sessions) is reached by the service shell
// before the core ever sees a query, not by plan executors.
type Client interface {
	SpaceIDByName(ctx context.Context, name string) (int64, error)
}
