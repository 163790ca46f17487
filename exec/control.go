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

package exec

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/vesoft-inc/graphd/expreval"
	"github.com/vesoft-inc/graphd/plan"
	"github.com/vesoft-inc/graphd/status"
	"github.com/vesoft-inc/graphd/value"
)

// runSubplan runs root and everything it depends on, sequentially and
// depth-first, memoized per call so a node shared by two branches of the
// same body subplan only executes once. Control-flow bodies run inline
// inside the enclosing Loop/Select executor's own goroutine rather than
// through the top-level Driver.Run scheduling pass, since their nodes
// share the parent plan's arena but must not be scheduled again by it.
func (d *Driver) runSubplan(root plan.NodeID, visited map[plan.NodeID]bool) error {
	if root == 0 || visited[root] {
		return nil
	}
	visited[root] = true

	n := d.graph.Node(root)
	for _, dep := range n.Deps {
		if err := d.runSubplan(dep, visited); err != nil {
			return errors.Wrapf(err, "%s(#%d)", n.Kind.String(), root)
		}
	}

	ev := expreval.New(d.qc.ExecutionContext())
	return d.dispatch(n, ev)
}

// execLoop evaluates n.Predicate; while true it bumps a loop counter
// private to this node, runs the body subplan to completion (including
// its side effects on the Execution Context), and re-evaluates. The first
// false publishes state=success, value=false under n.OutputVar without
// re-entering the body.
func execLoop(d *Driver, n *plan.Node, ev *expreval.Context) error {
	ec := d.qc.ExecutionContext()
	counterVar := fmt.Sprintf("$__loop_counter_%d", n.ID)

	for {
		if d.qc.IsCancelled() {
			return status.Cancelled.New(d.qc.CancelReason())
		}

		v, err := n.Predicate.Eval(ev)
		if err != nil {
			return err
		}
		truthy, ok := v.IsTruthy()
		if !ok {
			return status.TypeMismatch.New("loop predicate did not evaluate to a boolean")
		}
		if !truthy {
			return ec.SetValue(n.OutputVar, value.Bool(false))
		}

		count, _ := ec.GetValue(counterVar).AsInt()
		if err := ec.SetValue(counterVar, value.Int(count+1)); err != nil {
			return err
		}

		if err := d.runSubplan(n.LoopBody, make(map[plan.NodeID]bool)); err != nil {
			return err
		}
	}
}

// execSelect evaluates n.Predicate once, runs whichever of ThenBody/
// ElseBody it selects to completion, and republishes that subplan's
// terminal Result under n.OutputVar.
func execSelect(d *Driver, n *plan.Node, ev *expreval.Context) error {
	v, err := n.Predicate.Eval(ev)
	if err != nil {
		return err
	}
	truthy, ok := v.IsTruthy()
	if !ok {
		return status.TypeMismatch.New("select predicate did not evaluate to a boolean")
	}

	body := n.ElseBody
	if truthy {
		body = n.ThenBody
	}
	if body == 0 {
		return d.qc.ExecutionContext().SetValue(n.OutputVar, value.Empty())
	}

	if err := d.runSubplan(body, make(map[plan.NodeID]bool)); err != nil {
		return err
	}

	bodyNode := d.graph.Node(body)
	res, ok := d.qc.ExecutionContext().GetResult(bodyNode.OutputVar)
	if !ok {
		return status.Internal.New("select body produced no result")
	}
	return d.qc.ExecutionContext().SetResult(n.OutputVar, res)
}
