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
	"sync"

	"github.com/vesoft-inc/graphd/value"
)

// ExecutionContext is the mapping from variable name to an ordered history
// of Results (newest first), described in .2. It is
// single-writer, single-reader per variable within a query by scheduler
// convention — this struct's mutex only protects the Go map
// itself from concurrent structural mutation across different variables,
// it does not arbitrate races on one variable (none are expected).
type ExecutionContext struct {
	mu   sync.Mutex
	vars map[string][]Result

	// memBudget, when non-zero, caps the total bytes of Values this
	// context will accept via set_value/set_result. 0 means unlimited.
	memBudget int64
	memUsed   int64
}

// NewExecutionContext builds an empty Execution Context. memBudget is the
// per-query byte cap; pass 0 for unlimited.
func NewExecutionContext(memBudget int64) *ExecutionContext {
	return &ExecutionContext{vars: make(map[string][]Result), memBudget: memBudget}
}

// ErrOutOfMemory is returned by SetValue/SetResult when publishing would
// exceed the context's memory budget.
var ErrOutOfMemory = outOfMemoryError{}

type outOfMemoryError struct{}

func (outOfMemoryError) Error() string { return "execution context: memory budget exceeded" }

// SetValue wraps v in a success Result and prepends it to name's history.
func (c *ExecutionContext) SetValue(name string, v value.Value) error {
	return c.SetResult(name, NewResult(v))
}

// SetResult prepends r directly to name's history.
func (c *ExecutionContext) SetResult(name string, r Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	size := estimateSize(r.val)
	if c.memBudget > 0 && c.memUsed+size > c.memBudget {
		return ErrOutOfMemory
	}
	c.memUsed += size
	c.vars[name] = append([]Result{r}, c.vars[name]...)
	return nil
}

// GetValue returns the value of name's history-front, or the empty Value
// if name is absent.
func (c *ExecutionContext) GetValue(name string) value.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.vars[name]
	if len(h) == 0 {
		return value.Empty()
	}
	return h[0].val
}

// GetResult returns a borrow of name's history-front. Callers must not
// hold it across further mutations of that name.
func (c *ExecutionContext) GetResult(name string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.vars[name]
	if len(h) == 0 {
		return Result{}, false
	}
	return h[0], true
}

// GetVersionedResult returns history(name)[v] if in range, else false —
// backs the expression context's get_versioned_var.
func (c *ExecutionContext) GetVersionedResult(name string, v int) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.vars[name]
	if v < 0 || v >= len(h) {
		return Result{}, false
	}
	return h[v], true
}

// NumVersions returns 0 for absent names.
func (c *ExecutionContext) NumVersions(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.vars[name])
}

// History returns the full ordered history (newest first) for name. The
// returned slice is a copy; mutating it does not affect the context.
func (c *ExecutionContext) History(name string) []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.vars[name]
	out := make([]Result, len(h))
	copy(out, h)
	return out
}

// Truncate keeps at most the newest keep results for name; keep == 0
// removes the entry entirely.
func (c *ExecutionContext) Truncate(name string, keep int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if keep <= 0 {
		delete(c.vars, name)
		return
	}
	h := c.vars[name]
	if len(h) > keep {
		c.vars[name] = h[:keep]
	}
}

// Delete removes all versions of name.
func (c *ExecutionContext) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.vars, name)
}

// ShowVariables returns name -> (latest value Kind, num versions) for
// every live variable, as a debug dump. The admin HTTP surface does not
// serve it; /debug/plan renders only the plan.
func (c *ExecutionContext) ShowVariables() map[string]VariableInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]VariableInfo, len(c.vars))
	for name, h := range c.vars {
		info := VariableInfo{NumVersions: len(h)}
		if len(h) > 0 {
			info.Kind = h[0].val.Kind()
		}
		out[name] = info
	}
	return out
}

// VariableInfo is one entry of ExecutionContext.ShowVariables.
type VariableInfo struct {
	Kind        value.Kind
	NumVersions int
}

// estimateSize is a coarse byte-size estimate used only for the memory
// budget check; it need not be exact, only monotone in the amount of data
// retained.
func estimateSize(v value.Value) int64 {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		return int64(len(s)) + 16
	case value.KindList:
		l, _ := v.AsList()
		var sz int64
		for _, e := range l {
			sz += estimateSize(e)
		}
		return sz + 16
	case value.KindDataSet:
		ds, _ := v.AsDataSet()
		var sz int64
		for _, r := range ds.Rows {
			for _, c := range r {
				sz += estimateSize(c)
			}
		}
		return sz + int64(len(ds.Columns))*16
	default:
		return 16
	}
}
