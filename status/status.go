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

// Package status declares the fixed set of recoverable error kinds the
// core and its collaborators produce. A kind is never a raw exception: an
// executor that fails wraps one of these with context via pkg/errors and
// returns it, it never panics across an executor boundary except for a
// genuine programming-contract violation.
package status

import "gopkg.in/src-d/go-errors.v1"

var (
	Syntax           = errors.NewKind("syntax error: %s")
	Semantic         = errors.NewKind("semantic error: %s")
	SchemaNotFound   = errors.NewKind("schema not found: %s")
	PermissionDenied = errors.NewKind("permission denied: %s")
	StorageRPCFailed = errors.NewKind("storage rpc failed: %s")
	PartitionFailed  = errors.NewKind("partition failed: %s")
	Timeout          = errors.NewKind("timed out: %s")
	Cancelled        = errors.NewKind("cancelled: %s")
	InvalidVID       = errors.NewKind("invalid vertex id: %s")
	TypeMismatch     = errors.NewKind("type mismatch: %s")
	OutOfMemory      = errors.NewKind("out of memory: %s")
	Internal         = errors.NewKind("internal error: %s")
)

// Is reports whether err was constructed from kind, for callers that need
// to branch on status without string matching.
func Is(err error, kind *errors.Kind) bool {
	return kind.Is(err)
}
