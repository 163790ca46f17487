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

// Package expreval implements the expression evaluation context: the
// adapter that lets one expression tree be evaluated row-by-row against
// whichever iterator kind is currently bound, without cloning the
// iterator or the tree itself.
package expreval

import (
	"github.com/vesoft-inc/graphd/iterator"
	"github.com/vesoft-inc/graphd/qctx"
	"github.com/vesoft-inc/graphd/value"
)

// Context wraps an Execution Context pointer plus a currently bound
// iterator (nullable). It satisfies expr.Context without importing the
// expr package, avoiding a dependency cycle (plan/exec import both
// expreval and expr; expr must not import either).
type Context struct {
	ec  *qctx.ExecutionContext
	cur iterator.Iterator
}

// New builds an expression evaluation context over ec with no iterator
// bound yet. Evaluating an input/tag/edge/src/dst lookup before a Bind
// call returns the null sentinel, matching how iterator.NullValue is
// returned for absent columns elsewhere; a vertex/edge lookup before Bind
// returns the empty Value.
func New(ec *qctx.ExecutionContext) *Context {
	return &Context{ec: ec}
}

// Bind rebinds the currently-iterated row to it. Binding is O(1): it only
// stores the interface value, never copies rows or clones the iterator.
func (c *Context) Bind(it iterator.Iterator) { c.cur = it }

// Current returns the iterator currently bound, or nil.
func (c *Context) Current() iterator.Iterator { return c.cur }

// GetVar returns the Execution Context's latest value for name.
func (c *Context) GetVar(name string) value.Value {
	if c.ec == nil {
		return value.Empty()
	}
	return c.ec.GetValue(name)
}

// GetVersionedVar returns history(name)[version] if in range, else null.
func (c *Context) GetVersionedVar(name string, version int) value.Value {
	if c.ec == nil {
		return iterator.NullValue
	}
	r, ok := c.ec.GetVersionedResult(name, version)
	if !ok {
		return iterator.NullValue
	}
	return r.Value()
}

// GetVarProp evaluates history(name).front().iter().get_column(prop) at
// the iterator's current cursor position.
func (c *Context) GetVarProp(name, prop string) value.Value {
	if c.ec == nil {
		return iterator.NullValue
	}
	r, ok := c.ec.GetResult(name)
	if !ok {
		return iterator.NullValue
	}
	it := r.Iter()
	if !it.Valid() {
		return iterator.NullValue
	}
	return it.GetColumn(prop)
}

// GetInputProp resolves current_iter.get_column(prop) (`$-.prop`).
func (c *Context) GetInputProp(prop string) value.Value {
	if c.cur == nil {
		return iterator.NullValue
	}
	return c.cur.GetColumn(prop)
}

// GetTagProp resolves current_iter.get_tag_prop(tag, prop).
func (c *Context) GetTagProp(tag, prop string) value.Value {
	if c.cur == nil {
		return iterator.NullValue
	}
	return c.cur.GetTagProp(tag, prop)
}

// GetEdgeProp resolves current_iter.get_edge_prop(edge, prop).
func (c *Context) GetEdgeProp(edge, prop string) value.Value {
	if c.cur == nil {
		return iterator.NullValue
	}
	return c.cur.GetEdgeProp(edge, prop)
}

// GetSrcProp interprets current_iter as a neighbor row and resolves tag
// prop at the source vertex — the source vertex is the current_iter's own
// vertex, so this is simply GetTagProp.
func (c *Context) GetSrcProp(tag, prop string) value.Value {
	return c.GetTagProp(tag, prop)
}

// GetDstProp interprets current_iter as a neighbor row and resolves tag
// prop at the destination vertex. The GetNeighbors response this core
// consumes carries only the destination vertex id (via the edge's `_dst`
// position), never its tag properties, so this always resolves to the
// null sentinel.
func (c *Context) GetDstProp(tag, prop string) value.Value {
	return iterator.NullValue
}

// GetVertex returns current_iter's reconstructed Vertex.
func (c *Context) GetVertex() value.Value {
	if c.cur == nil {
		return value.Empty()
	}
	return c.cur.GetVertex()
}

// GetEdge returns current_iter's reconstructed Edge.
func (c *Context) GetEdge() value.Value {
	if c.cur == nil {
		return value.Empty()
	}
	return c.cur.GetEdge()
}

// SetVar writes v through to the Execution Context, prepending it to
// name's history.
func (c *Context) SetVar(name string, v value.Value) {
	if c.ec == nil {
		return
	}
	_ = c.ec.SetValue(name, v)
}
