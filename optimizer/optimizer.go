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

// Package optimizer implements the Optimization Coordinator: an ordered
// batch of named rules applied to a raw ir.Pipeline, in the style of the
// teacher's sql/analyzer Rule/Batch idiom (a Rule is a name plus an Apply
// function; a Batch runs its Rules in order). Three rules run here, always
// in the same order: Promoter, Vertical Collapser, Validator.
package optimizer

import (
	"fmt"

	"github.com/magicspik3/etlc/ir"
	"github.com/magicspik3/etlc/ir/expression"
	"github.com/magicspik3/etlc/ir/transform"
)

// Rule is one named optimization pass.
type Rule struct {
	Name  string
	Apply func(*ir.Pipeline) (*ir.Pipeline, error)
}

// DefaultRules is the fixed pass order used by Optimize.
var DefaultRules = []Rule{
	{Name: "promoter", Apply: Promote},
	{Name: "vertical_collapser", Apply: CollapseVertical},
	{Name: "validator", Apply: Validate},
}

// Coordinator runs an ordered batch of Rules over a Pipeline, the way the
// teacher's Analyzer runs a Batch of Rules over a query plan.
type Coordinator struct {
	Rules []Rule
}

// NewCoordinator builds a Coordinator over DefaultRules.
func NewCoordinator() *Coordinator {
	return &Coordinator{Rules: DefaultRules}
}

// Optimize runs every Rule in order, each receiving the previous rule's
// output. Every rule returns a fresh Pipeline rather than mutating its
// input.
func (c *Coordinator) Optimize(p *ir.Pipeline) (*ir.Pipeline, error) {
	cur := p
	for _, rule := range c.Rules {
		next, err := rule.Apply(cur)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		cur = next
	}
	return cur, nil
}

// singleConsumer reports whether dataset is read by at most one operation
// in p (besides its own producer) -- the safety condition for collapsing
// two adjacent operations into one without breaking a third reader.
func singleConsumer(p *ir.Pipeline, dataset string) bool {
	count := 0
	for _, op := range p.Operations {
		for _, in := range op.Inputs {
			if in == dataset {
				count++
			}
		}
	}
	return count <= 1
}

// Promote merges consecutive MISSING_VALUES operations (one per source
// column) into a single logical operation carrying every column's
// sentinels in source order, the way several SPSS MISSING VALUES
// statements are equivalent to one multi-variable declaration.
func Promote(p *ir.Pipeline) (*ir.Pipeline, error) {
	out := &ir.Pipeline{Metadata: p.Metadata.Clone(), Datasets: append([]ir.Dataset(nil), p.Datasets...)}

	ops := p.Operations
	for i := 0; i < len(ops); i++ {
		cur := ops[i].Clone()
		for i+1 < len(ops) {
			next := ops[i+1]
			if !canPromote(cur, next) || !singleConsumer(p, cur.Outputs[0]) {
				break
			}
			cur = promoteInto(cur, next)
			i++
		}
		out.Operations = append(out.Operations, cur)
	}
	return out, nil
}

func canPromote(a, b ir.Operation) bool {
	if a.Kind != ir.MissingValues || b.Kind != ir.MissingValues {
		return false
	}
	if len(a.Outputs) != 1 || len(b.Inputs) != 1 || a.Outputs[0] != b.Inputs[0] {
		return false
	}
	return true
}

// fusedID derives a new operation id for the result of fusing a into b,
// rather than retaining either predecessor's id, so a fused operation is
// never mistaken for either of the operations it replaced.
func fusedID(a, b ir.Operation) string {
	return fmt.Sprintf("%s+%s", a.ID, b.ID)
}

func promoteInto(a, b ir.Operation) ir.Operation {
	ap := a.Params.(ir.MissingValuesParams)
	bp := b.Params.(ir.MissingValuesParams)

	order := append([]string(nil), ap.ColumnOrder...)
	vals := map[string][]expression.Expression{}
	for k, v := range ap.PerColumnVals {
		vals[k] = v
	}
	for _, col := range bp.ColumnOrder {
		if _, ok := vals[col]; !ok {
			order = append(order, col)
		}
		vals[col] = bp.PerColumnVals[col]
	}

	merged := a
	merged.ID = fusedID(a, b)
	merged.Outputs = append([]string(nil), b.Outputs...)
	merged.Schema = b.Schema
	merged.Params = ir.MissingValuesParams{
		Column:        ap.Column,
		Sentinels:     ap.Sentinels,
		ColumnOrder:   order,
		PerColumnVals: vals,
	}
	return merged
}

// CollapseVertical fuses chains of compatible adjacent operations into
// one: consecutive COMPUTE operations concatenate their assignments,
// consecutive SELECT_IF operations conjoin their predicates with AND, and
// consecutive SORT operations keep only the last (a later full re-sort
// supersedes an earlier one). SAVE is never a fusion candidate: it has no
// Outputs, so it never matches the chain-continuation check. The pass
// loops until no adjacent pair in the pipeline fuses, so one call reaches
// a fixed point and a second call is a no-op.
func CollapseVertical(p *ir.Pipeline) (*ir.Pipeline, error) {
	cur := p
	for {
		next, changed := collapseOnce(cur)
		if !changed {
			return next, nil
		}
		cur = next
	}
}

func collapseOnce(p *ir.Pipeline) (*ir.Pipeline, bool) {
	out := &ir.Pipeline{Metadata: p.Metadata.Clone(), Datasets: append([]ir.Dataset(nil), p.Datasets...)}
	changed := false

	ops := p.Operations
	for i := 0; i < len(ops); i++ {
		cur := ops[i].Clone()
		if i+1 < len(ops) {
			next := ops[i+1]
			if fused, ok := tryFuse(cur, next, p); ok {
				cur = fused
				i++
				changed = true
			}
		}
		out.Operations = append(out.Operations, cur)
	}
	return out, changed
}

func chains(a, b ir.Operation) bool {
	return len(a.Outputs) == 1 && len(b.Inputs) == 1 && a.Outputs[0] == b.Inputs[0]
}

func tryFuse(a, b ir.Operation, p *ir.Pipeline) (ir.Operation, bool) {
	if !chains(a, b) || !singleConsumer(p, a.Outputs[0]) {
		return ir.Operation{}, false
	}
	switch {
	case a.Kind == ir.Compute && b.Kind == ir.Compute:
		ap := a.Params.(ir.ComputeParams)
		bp := b.Params.(ir.ComputeParams)
		merged := a
		merged.ID = fusedID(a, b)
		merged.Outputs = append([]string(nil), b.Outputs...)
		merged.Schema = b.Schema
		merged.Params = ir.ComputeParams{Assignments: append(append([]ir.Assignment(nil), ap.Assignments...), bp.Assignments...)}
		return merged, true
	case a.Kind == ir.SelectIf && b.Kind == ir.SelectIf:
		ap := a.Params.(ir.SelectIfParams)
		bp := b.Params.(ir.SelectIfParams)
		merged := a
		merged.ID = fusedID(a, b)
		merged.Outputs = append([]string(nil), b.Outputs...)
		merged.Schema = b.Schema
		merged.Params = ir.SelectIfParams{Predicate: &expression.BinaryOp{Op: "&", Left: ap.Predicate, Right: bp.Predicate}}
		return merged, true
	case a.Kind == ir.Sort && b.Kind == ir.Sort:
		merged := a
		merged.ID = fusedID(a, b)
		merged.Outputs = append([]string(nil), b.Outputs...)
		merged.Schema = b.Schema
		merged.Params = b.Params.(ir.SortParams).Clone()
		return merged, true
	}
	return ir.Operation{}, false
}

// Validate performs an exhaustive switch over every operation kind,
// checking invariants that must hold after fusion: every operation that
// declares outputs has them, inputs reference datasets or prior outputs
// that actually exist, and parameter structs are internally consistent.
// It returns a new Pipeline unchanged in shape (Validate never rewrites
// the plan, only rejects an invalid one), matching the other rules'
// signature so it composes in the same Coordinator batch.
func Validate(p *ir.Pipeline) (*ir.Pipeline, error) {
	known := map[string]bool{}
	schemaOf := map[string]ir.Schema{}
	for _, d := range p.Datasets {
		known[d.Name] = true
		schemaOf[d.Name] = d.Schema
	}

	for _, op := range p.Operations {
		for _, in := range op.Inputs {
			if !known[in] {
				return nil, ir.ErrValidation.New(op.ID, fmt.Sprintf("input dataset %q not yet defined", in))
			}
		}

		if len(op.Inputs) > 0 {
			if err := checkColumnReferences(op, schemaOf[op.Inputs[0]]); err != nil {
				return nil, ir.ErrValidation.New(op.ID, err.Error())
			}
		}

		switch params := op.Params.(type) {
		case ir.LoadCSVParams:
			if params.Filename == "" {
				return nil, ir.ErrValidation.New(op.ID, "LOAD_CSV missing filename")
			}
		case ir.LoadSavParams:
			if params.Filename == "" {
				return nil, ir.ErrValidation.New(op.ID, "LOAD_SAV missing filename")
			}
		case ir.SaveParams:
			if params.Filename == "" {
				return nil, ir.ErrValidation.New(op.ID, "SAVE missing filename")
			}
			if len(op.Outputs) != 0 {
				return nil, ir.ErrValidation.New(op.ID, "SAVE must not declare outputs")
			}
		case ir.ComputeParams:
			if len(params.Assignments) == 0 {
				return nil, ir.ErrValidation.New(op.ID, "COMPUTE with no assignments")
			}
		case ir.RecodeParams:
			if len(params.Rules) == 0 {
				return nil, ir.ErrValidation.New(op.ID, "RECODE with no rules")
			}
		case ir.SelectIfParams:
			if params.Predicate == nil {
				return nil, ir.ErrValidation.New(op.ID, "SELECT_IF with no predicate")
			}
		case ir.SortParams:
			if len(params.Keys) == 0 {
				return nil, ir.ErrValidation.New(op.ID, "SORT with no keys")
			}
		case ir.MissingValuesParams:
			if len(params.ColumnOrder) == 0 {
				return nil, ir.ErrValidation.New(op.ID, "MISSING_VALUES with no columns")
			}
		case ir.LagParams:
			if params.Source == "" || params.Target == "" {
				return nil, ir.ErrValidation.New(op.ID, "LAG missing source or target")
			}
		case ir.AggregateParams:
			if len(params.BreakKeys) == 0 {
				return nil, ir.ErrValidation.New(op.ID, "AGGREGATE with no break keys")
			}
		case ir.MatchFilesParams:
			if len(params.ByKeys) == 0 {
				return nil, ir.ErrValidation.New(op.ID, "MATCH_FILES with no /BY keys")
			}
		case ir.StringDeclParams:
			if params.Column == "" {
				return nil, ir.ErrValidation.New(op.ID, "STRING_DECL missing column")
			}
		default:
			return nil, ir.ErrValidation.New(op.ID, fmt.Sprintf("unrecognized operation kind %q", op.Kind))
		}

		for _, out := range op.Outputs {
			known[out] = true
			schemaOf[out] = op.Schema
		}
	}
	return p.Clone(), nil
}

// checkColumnReferences asserts that every column an operation's parameters
// read from its primary input actually exists in that input's schema. A nil
// input schema means "unknown" (e.g. downstream of a LOAD_SAV, whose
// columns can't be discovered from the script text alone) and is never
// rejected.
func checkColumnReferences(op ir.Operation, input ir.Schema) error {
	if input == nil {
		return nil
	}
	switch p := op.Params.(type) {
	case ir.ComputeParams:
		avail := input.Clone()
		for _, a := range p.Assignments {
			for _, col := range expression.ColumnRefs(a.Expression) {
				if !avail.Has(col) {
					return fmt.Errorf("column %q not found in input schema", col)
				}
			}
			avail = avail.With(ir.Column{Name: a.Target})
		}
	case ir.RecodeParams:
		if p.Source != "" && !input.Has(p.Source) {
			return fmt.Errorf("column %q not found in input schema", p.Source)
		}
		for _, col := range transform.ColumnsRead(op) {
			if !input.Has(col) {
				return fmt.Errorf("column %q not found in input schema", col)
			}
		}
	case ir.SelectIfParams:
		for _, col := range transform.ColumnsRead(op) {
			if !input.Has(col) {
				return fmt.Errorf("column %q not found in input schema", col)
			}
		}
	case ir.SortParams:
		for _, k := range p.Keys {
			if !input.Has(k.Column) {
				return fmt.Errorf("sort key %q not found in input schema", k.Column)
			}
		}
	case ir.MissingValuesParams:
		for _, col := range p.ColumnOrder {
			if !input.Has(col) {
				return fmt.Errorf("column %q not found in input schema", col)
			}
		}
	case ir.LagParams:
		if !input.Has(p.Source) {
			return fmt.Errorf("column %q not found in input schema", p.Source)
		}
	case ir.AggregateParams:
		for _, k := range p.BreakKeys {
			if !input.Has(k) {
				return fmt.Errorf("break key %q not found in input schema", k)
			}
		}
		for _, r := range p.Reductions {
			if !input.Has(r.Source) {
				return fmt.Errorf("column %q not found in input schema", r.Source)
			}
		}
	}
	return nil
}
