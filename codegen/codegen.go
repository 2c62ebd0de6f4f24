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

// Package codegen renders an optimized ir.Pipeline into a tidyverse R
// script: one pipe-chain assignment per operation, using readr/haven for
// I/O and dplyr verbs for every transform.
package codegen

import (
	"fmt"
	"strings"

	"github.com/magicspik3/etlc/ir"
	"github.com/magicspik3/etlc/ir/expression"
)

const header = "# Generated by etlc. Do not edit by hand.\nlibrary(tidyverse)\nlibrary(haven)\n\n"

// Generate renders p as a complete R script.
func Generate(p *ir.Pipeline) (string, error) {
	alias := replaceSelfAliases(p)

	var b strings.Builder
	b.WriteString(header)
	for _, op := range p.Operations {
		line, err := emit(resolveNames(op, alias))
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// replaceSelfAliases maps the output dataset of every AGGREGATE with
// OUTFILE=* to its input dataset, so the generated R rebinds the same
// variable in place rather than introducing a new one -- AGGREGATE's
// OUTFILE=* means "the result replaces the active dataset".
func replaceSelfAliases(p *ir.Pipeline) map[string]string {
	alias := map[string]string{}
	for _, op := range p.Operations {
		if op.Kind != ir.Aggregate || len(op.Inputs) != 1 || len(op.Outputs) != 1 {
			continue
		}
		if ap, ok := op.Params.(ir.AggregateParams); ok && ap.ReplaceSelf {
			alias[op.Outputs[0]] = resolveName(alias, op.Inputs[0])
		}
	}
	return alias
}

func resolveName(alias map[string]string, name string) string {
	for {
		next, ok := alias[name]
		if !ok {
			return name
		}
		name = next
	}
}

// resolveNames rewrites op's Inputs/Outputs dataset names through alias,
// so a later operation that reads an aliased AGGREGATE result emits the
// same R variable name the aggregate itself rebound.
func resolveNames(op ir.Operation, alias map[string]string) ir.Operation {
	if len(alias) == 0 {
		return op
	}
	out := op
	if len(op.Inputs) > 0 {
		ins := make([]string, len(op.Inputs))
		for i, in := range op.Inputs {
			ins[i] = resolveName(alias, in)
		}
		out.Inputs = ins
	}
	if len(op.Outputs) > 0 {
		outs := make([]string, len(op.Outputs))
		for i, o := range op.Outputs {
			outs[i] = resolveName(alias, o)
		}
		out.Outputs = outs
	}
	return out
}

func emit(op ir.Operation) (string, error) {
	switch op.Kind {
	case ir.LoadCSV:
		return emitLoadCSV(op)
	case ir.LoadSav:
		return emitLoadSav(op)
	case ir.SaveCSV:
		return emitSaveCSV(op)
	case ir.SaveSav:
		return emitSaveSav(op)
	case ir.Compute:
		return emitCompute(op)
	case ir.Recode:
		return emitRecode(op)
	case ir.SelectIf:
		return emitSelectIf(op)
	case ir.Sort:
		return emitSort(op)
	case ir.MissingValues:
		return emitMissingValues(op)
	case ir.Lag:
		return emitLag(op)
	case ir.Aggregate:
		return emitAggregate(op)
	case ir.MatchFiles:
		return emitMatchFiles(op)
	case ir.StringDeclKind:
		return emitStringDecl(op)
	default:
		return "", ir.ErrCodegen.New(op.ID, fmt.Sprintf("no R emission for operation kind %q", op.Kind))
	}
}

func emitLoadCSV(op ir.Operation) (string, error) {
	p := op.Params.(ir.LoadCSVParams)
	args := fmt.Sprintf("%q", p.Filename)
	if p.SkipRows > 0 {
		args += fmt.Sprintf(", skip = %d", p.SkipRows)
	}
	return fmt.Sprintf("%s <- read_csv(%s)", op.Outputs[0], args), nil
}

func emitLoadSav(op ir.Operation) (string, error) {
	p := op.Params.(ir.LoadSavParams)
	return fmt.Sprintf("%s <- read_sav(%q)", op.Outputs[0], p.Filename), nil
}

func emitSaveCSV(op ir.Operation) (string, error) {
	p := op.Params.(ir.SaveParams)
	return fmt.Sprintf("write_csv(%s, %q)", op.Inputs[0], p.Filename), nil
}

func emitSaveSav(op ir.Operation) (string, error) {
	p := op.Params.(ir.SaveParams)
	return fmt.Sprintf("write_sav(%s, %q)", op.Inputs[0], p.Filename), nil
}

func emitCompute(op ir.Operation) (string, error) {
	p := op.Params.(ir.ComputeParams)
	assigns := make([]string, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		expr, err := renderExpr(a.Expression)
		if err != nil {
			return "", ir.ErrCodegen.New(op.ID, err.Error())
		}
		assigns = append(assigns, fmt.Sprintf("%s = %s", a.Target, expr))
	}
	return fmt.Sprintf("%s <- %s %%>%%\n  mutate(%s)", op.Outputs[0], op.Inputs[0], strings.Join(assigns, ", ")), nil
}

func emitRecode(op ir.Operation) (string, error) {
	p := op.Params.(ir.RecodeParams)
	var arms []string
	for _, r := range p.Rules {
		var cond string
		if r.IsRange() {
			lo, err := renderExpr(r.Lo)
			if err != nil {
				return "", ir.ErrCodegen.New(op.ID, err.Error())
			}
			hi, err := renderExpr(r.Hi)
			if err != nil {
				return "", ir.ErrCodegen.New(op.ID, err.Error())
			}
			cond = fmt.Sprintf("between(%s, %s, %s)", p.Source, lo, hi)
		} else {
			match, err := renderExpr(r.Match)
			if err != nil {
				return "", ir.ErrCodegen.New(op.ID, err.Error())
			}
			cond = fmt.Sprintf("%s == %s", p.Source, match)
		}
		val, err := renderExpr(r.Value)
		if err != nil {
			return "", ir.ErrCodegen.New(op.ID, err.Error())
		}
		arms = append(arms, fmt.Sprintf("%s ~ %s", cond, val))
	}
	arms = append(arms, fmt.Sprintf("TRUE ~ %s", p.Source))
	return fmt.Sprintf("%s <- %s %%>%%\n  mutate(%s = case_when(%s))", op.Outputs[0], op.Inputs[0], p.Target, strings.Join(arms, ", ")), nil
}

func emitSelectIf(op ir.Operation) (string, error) {
	p := op.Params.(ir.SelectIfParams)
	pred, err := renderExpr(p.Predicate)
	if err != nil {
		return "", ir.ErrCodegen.New(op.ID, err.Error())
	}
	return fmt.Sprintf("%s <- %s %%>%%\n  filter(%s)", op.Outputs[0], op.Inputs[0], pred), nil
}

func emitSort(op ir.Operation) (string, error) {
	p := op.Params.(ir.SortParams)
	keys := make([]string, 0, len(p.Keys))
	for _, k := range p.Keys {
		if k.Descending {
			keys = append(keys, fmt.Sprintf("desc(%s)", k.Column))
		} else {
			keys = append(keys, k.Column)
		}
	}
	return fmt.Sprintf("%s <- %s %%>%%\n  arrange(%s)", op.Outputs[0], op.Inputs[0], strings.Join(keys, ", ")), nil
}

func emitMissingValues(op ir.Operation) (string, error) {
	p := op.Params.(ir.MissingValuesParams)
	var assigns []string
	for _, col := range p.ColumnOrder {
		expr := col
		for _, sentinel := range p.PerColumnVals[col] {
			s, err := renderExpr(sentinel)
			if err != nil {
				return "", ir.ErrCodegen.New(op.ID, err.Error())
			}
			expr = fmt.Sprintf("na_if(%s, %s)", expr, s)
		}
		assigns = append(assigns, fmt.Sprintf("%s = %s", col, expr))
	}
	return fmt.Sprintf("%s <- %s %%>%%\n  mutate(%s)", op.Outputs[0], op.Inputs[0], strings.Join(assigns, ", ")), nil
}

func emitLag(op ir.Operation) (string, error) {
	p := op.Params.(ir.LagParams)
	return fmt.Sprintf("%s <- %s %%>%%\n  mutate(%s = lag(%s, %d))", op.Outputs[0], op.Inputs[0], p.Target, p.Source, p.Offset), nil
}

func emitAggregate(op ir.Operation) (string, error) {
	p := op.Params.(ir.AggregateParams)
	var reductions []string
	for _, r := range p.Reductions {
		reductions = append(reductions, fmt.Sprintf("%s = %s(%s)", r.Target, rFunc(r.Reducer), r.Source))
	}
	return fmt.Sprintf(
		"%s <- %s %%>%%\n  group_by(%s) %%>%%\n  summarise(%s, .groups = \"drop\")",
		op.Outputs[0], op.Inputs[0], strings.Join(p.BreakKeys, ", "), strings.Join(reductions, ", "),
	), nil
}

func emitMatchFiles(op ir.Operation) (string, error) {
	p := op.Params.(ir.MatchFilesParams)
	joinFn := map[ir.JoinKind]string{
		ir.JoinLeft:  "left_join",
		ir.JoinInner: "inner_join",
		ir.JoinFull:  "full_join",
	}[p.JoinKind]
	if joinFn == "" {
		return "", ir.ErrCodegen.New(op.ID, fmt.Sprintf("unrecognized join kind %q", p.JoinKind))
	}
	byKeys := make([]string, len(p.ByKeys))
	for i, k := range p.ByKeys {
		byKeys[i] = fmt.Sprintf("%q", k)
	}
	return fmt.Sprintf("%s <- %s(%s, %s, by = c(%s))", op.Outputs[0], joinFn, op.Inputs[0], op.Inputs[1], strings.Join(byKeys, ", ")), nil
}

// emitStringDecl emits only a rebinding of the input dataset under the
// operation's output name. No column or width is declared in R: the column
// is created by the COMPUTE that fills it, and the declaration has no
// runtime effect since the column doesn't exist yet for dplyr to coerce.
func emitStringDecl(op ir.Operation) (string, error) {
	return fmt.Sprintf("%s <- %s", op.Outputs[0], op.Inputs[0]), nil
}

// renderExpr renders an expression tree to R source text.
func renderExpr(e expression.Expression) (string, error) {
	switch n := e.(type) {
	case *expression.Literal:
		switch v := n.Value.(type) {
		case string:
			return fmt.Sprintf("%q", v), nil
		case int:
			return fmt.Sprintf("%d", v), nil
		case float64:
			return fmt.Sprintf("%v", v), nil
		default:
			return fmt.Sprintf("%v", v), nil
		}
	case *expression.Column:
		return n.Name, nil
	case *expression.BinaryOp:
		left, err := renderExpr(n.Left)
		if err != nil {
			return "", err
		}
		right, err := renderExpr(n.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, rBinOp(n.Op), right), nil
	case *expression.UnaryOp:
		if n.Op == "not" {
			operand, err := renderExpr(n.Operand)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("!(%s)", operand), nil
		}
		if lit, ok := n.Operand.(*expression.Literal); ok {
			switch v := lit.Value.(type) {
			case int:
				return fmt.Sprintf("%d", -v), nil
			case float64:
				return fmt.Sprintf("%v", -v), nil
			}
		}
		operand, err := renderExpr(n.Operand)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("-(%s)", operand), nil
	case *expression.Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			s, err := renderExpr(a)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return fmt.Sprintf("%s(%s)", rFunc(n.Name), strings.Join(args, ", ")), nil
	case *expression.Conditional:
		cond, err := renderExpr(n.Cond)
		if err != nil {
			return "", err
		}
		then, err := renderExpr(n.Then)
		if err != nil {
			return "", err
		}
		els, err := renderExpr(n.Else)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("if_else(%s, %s, %s)", cond, then, els), nil
	case *expression.Range:
		lo, err := renderExpr(n.Lo)
		if err != nil {
			return "", err
		}
		hi, err := renderExpr(n.Hi)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s:%s", lo, hi), nil
	default:
		return "", fmt.Errorf("no R rendering for expression %T", e)
	}
}

func rBinOp(op string) string {
	switch op {
	case "=":
		return "=="
	case "<>":
		return "!="
	case "&":
		return "&"
	case "|":
		return "|"
	default:
		return op
	}
}

var funcTable = map[string]string{
	"MEAN":   "mean",
	"SUM":    "sum",
	"CONCAT": "paste0",
	"ABS":    "abs",
	"LAG":    "lag",
}

func rFunc(name string) string {
	if r, ok := funcTable[strings.ToUpper(name)]; ok {
		return r
	}
	return strings.ToLower(name)
}
