// Copyright 2026 The etlc Authors.
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

// Package transform provides generic visitor helpers over an IR Pipeline's
// operations and expressions: InspectOperations/InspectExpressions over a
// Pipeline, plus ExpressionsOf/ColumnsRead for a single operation. The
// expression-level Walk lives in package expression.
package transform

import (
	"github.com/magicspik3/etlc/ir"
	"github.com/magicspik3/etlc/ir/expression"
)

// InspectOperations calls fn for every Operation in p, in order. It stops
// early if fn returns false.
func InspectOperations(p *ir.Pipeline, fn func(ir.Operation) bool) {
	for _, op := range p.Operations {
		if !fn(op) {
			return
		}
	}
}

// ExpressionsOf returns every expression directly carried by op's
// parameters (an operation carries zero, one, or several, depending on
// kind).
func ExpressionsOf(op ir.Operation) []expression.Expression {
	var exprs []expression.Expression
	switch p := op.Params.(type) {
	case ir.ComputeParams:
		for _, a := range p.Assignments {
			exprs = append(exprs, a.Expression)
		}
	case ir.RecodeParams:
		for _, r := range p.Rules {
			if r.IsRange() {
				exprs = append(exprs, r.Lo, r.Hi)
			} else if r.Match != nil {
				exprs = append(exprs, r.Match)
			}
			exprs = append(exprs, r.Value)
		}
	case ir.SelectIfParams:
		exprs = append(exprs, p.Predicate)
	case ir.MissingValuesParams:
		exprs = append(exprs, p.Sentinels...)
		for _, col := range p.ColumnOrder {
			exprs = append(exprs, p.PerColumnVals[col]...)
		}
	}
	return exprs
}

// InspectExpressions calls fn for every expression node reachable from any
// operation in p.
func InspectExpressions(p *ir.Pipeline, fn func(expression.Expression) bool) {
	InspectOperations(p, func(op ir.Operation) bool {
		for _, e := range ExpressionsOf(op) {
			expression.Walk(fn, e)
		}
		return true
	})
}

// ColumnsRead returns every column name referenced by any expression
// carried by op.
func ColumnsRead(op ir.Operation) []string {
	seen := map[string]bool{}
	var names []string
	for _, e := range ExpressionsOf(op) {
		for _, n := range expression.ColumnRefs(e) {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}
