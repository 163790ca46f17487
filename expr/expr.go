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

// Package expr declares the minimal expression-tree surface the core
// consumes as an external collaborator.
// The full expression grammar, parser and constant-folding/type-deduction
// visitors are out of scope; this package only fixes the contract that
// expreval.Context and the plan/exec packages are written against, plus a
// handful of leaf/compound expressions exercised directly by tests.
package expr

import "github.com/vesoft-inc/graphd/value"

// Context is the evaluation-time scope an Expression is given. Expression
// implementations never see qctx.Context or the iterator package directly;
// they only call back through this narrow interface, which expreval.Context
// satisfies.
type Context interface {
	GetVar(name string) value.Value
	GetVersionedVar(name string, version int) value.Value
	GetVarProp(name, prop string) value.Value
	GetInputProp(prop string) value.Value
	GetTagProp(tag, prop string) value.Value
	GetEdgeProp(edge, prop string) value.Value
	GetSrcProp(tag, prop string) value.Value
	GetDstProp(tag, prop string) value.Value
	GetVertex() value.Value
	GetEdge() value.Value
	SetVar(name string, v value.Value)
}

// Expression is the node type of the expression tree the core evaluates
// row-by-row. Implementations are expected to be side-effect free aside
// from SetVar assignment expressions, and Eval must be safe to call
// repeatedly with different Contexts sharing the same tree (the tree is
// built once per query and reused across every row).
type Expression interface {
	// Eval evaluates the expression against ctx's currently bound scope.
	Eval(ctx Context) (value.Value, error)
	// String renders the expression for plan explain output.
	String() string
	// Children returns the expression's direct operands, if any.
	Children() []Expression
}

// Var resolves to the Execution Context's latest value for Name.
type Var struct{ Name string }

func (v *Var) Eval(ctx Context) (value.Value, error) { return ctx.GetVar(v.Name), nil }
func (v *Var) String() string                        { return "$" + v.Name }
func (v *Var) Children() []Expression                { return nil }

// VersionedVar resolves to history(Name)[Version].
type VersionedVar struct {
	Name    string
	Version int
}

func (v *VersionedVar) Eval(ctx Context) (value.Value, error) {
	return ctx.GetVersionedVar(v.Name, v.Version), nil
}
func (v *VersionedVar) String() string { return "$" + v.Name }
func (v *VersionedVar) Children() []Expression { return nil }

// InputProp resolves to the current row's column named Prop (`$-.prop`).
type InputProp struct{ Prop string }

func (p *InputProp) Eval(ctx Context) (value.Value, error) { return ctx.GetInputProp(p.Prop), nil }
func (p *InputProp) String() string                        { return "$-." + p.Prop }
func (p *InputProp) Children() []Expression                { return nil }

// VarProp resolves to `history(Name).front().iter().get_column(Prop)`,
// i.e. `$var.prop`.
type VarProp struct {
	Name string
	Prop string
}

func (p *VarProp) Eval(ctx Context) (value.Value, error) { return ctx.GetVarProp(p.Name, p.Prop), nil }
func (p *VarProp) String() string                        { return "$" + p.Name + "." + p.Prop }
func (p *VarProp) Children() []Expression                { return nil }

// TagProp resolves a tag property off the current row (get_tag_prop).
type TagProp struct {
	Tag  string
	Prop string
}

func (p *TagProp) Eval(ctx Context) (value.Value, error) { return ctx.GetTagProp(p.Tag, p.Prop), nil }
func (p *TagProp) String() string                        { return p.Tag + "." + p.Prop }
func (p *TagProp) Children() []Expression                { return nil }

// EdgeProp resolves an edge property off the current row (get_edge_prop).
type EdgeProp struct {
	Edge string
	Prop string
}

func (p *EdgeProp) Eval(ctx Context) (value.Value, error) { return ctx.GetEdgeProp(p.Edge, p.Prop), nil }
func (p *EdgeProp) String() string                        { return p.Edge + "." + p.Prop }
func (p *EdgeProp) Children() []Expression                { return nil }

// SrcProp / DstProp resolve a tag property of the current neighbor row's
// source or destination vertex (get_src_prop/get_dst_prop).
type SrcProp struct {
	Tag  string
	Prop string
}

func (p *SrcProp) Eval(ctx Context) (value.Value, error) { return ctx.GetSrcProp(p.Tag, p.Prop), nil }
func (p *SrcProp) String() string                        { return "$^." + p.Tag + "." + p.Prop }
func (p *SrcProp) Children() []Expression                { return nil }

type DstProp struct {
	Tag  string
	Prop string
}

func (p *DstProp) Eval(ctx Context) (value.Value, error) { return ctx.GetDstProp(p.Tag, p.Prop), nil }
func (p *DstProp) String() string                        { return "$$." + p.Tag + "." + p.Prop }
func (p *DstProp) Children() []Expression                { return nil }

// VertexExpr / EdgeExpr evaluate to the current row's reconstructed
// Vertex/Edge Value (get_vertex/get_edge).
type VertexExpr struct{}

func (VertexExpr) Eval(ctx Context) (value.Value, error) { return ctx.GetVertex(), nil }
func (VertexExpr) String() string                        { return "vertex($-)" }
func (VertexExpr) Children() []Expression                { return nil }

type EdgeExpr struct{}

func (EdgeExpr) Eval(ctx Context) (value.Value, error) { return ctx.GetEdge(), nil }
func (EdgeExpr) String() string                        { return "edge($-)" }
func (EdgeExpr) Children() []Expression                { return nil }

// Literal wraps a constant Value.
type Literal struct{ Val value.Value }

func (l *Literal) Eval(Context) (value.Value, error) { return l.Val, nil }
func (l *Literal) String() string                     { return l.Val.String() }
func (l *Literal) Children() []Expression             { return nil }

// Assign evaluates Rhs and writes it through to the Execution Context
// under Name, then returns the assigned value.
// Used by Loop's step subplan to update loop-carried variables.
type Assign struct {
	Name string
	Rhs  Expression
}

func (a *Assign) Eval(ctx Context) (value.Value, error) {
	v, err := a.Rhs.Eval(ctx)
	if err != nil {
		return value.Value{}, err
	}
	ctx.SetVar(a.Name, v)
	return v, nil
}
func (a *Assign) String() string          { return a.Name + " = " + a.Rhs.String() }
func (a *Assign) Children() []Expression { return []Expression{a.Rhs} }
