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

// Package graphbuilder lowers a parsed AST into a raw (unoptimized)
// ir.Pipeline: every statement other than SAVE (a sink with no output)
// produces new single-assignment datasets (MATCH FILES may produce several),
// wired to the previous "active" dataset by Operation.Inputs, with
// topological order being nothing more than the order operations were
// appended. DO IF / ELSE / END IF blocks are lowered here
// into Conditional-wrapped COMPUTE assignments and never reach the IR as
// their own operation kind.
package graphbuilder

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"

	"github.com/magicspik3/etlc/ast"
	"github.com/magicspik3/etlc/ir"
	"github.com/magicspik3/etlc/ir/expression"
)

// Builder accumulates IR state while walking a command list.
type Builder struct {
	pipeline *ir.Pipeline
	active   string
	opSeq    int
	names    map[string]int      // base name -> count, for collision-free dataset naming
	schemas  map[string]ir.Schema // dataset name -> best-effort schema (nil = unknown)
}

// Build lowers cmds into a raw ir.Pipeline.
func Build(cmds []*ast.Command) (*ir.Pipeline, error) {
	b := &Builder{
		pipeline: &ir.Pipeline{Metadata: ir.Metadata{}},
		names:    map[string]int{},
		schemas:  map[string]ir.Schema{},
	}
	for _, cmd := range cmds {
		if err := b.handle(cmd); err != nil {
			return nil, err
		}
	}
	return b.pipeline, nil
}

// schemaOf returns the tracked schema for a dataset name, or nil if unknown.
func (b *Builder) schemaOf(name string) ir.Schema { return b.schemas[name] }

// setActive records dsName as the active dataset with the given schema
// (nil meaning unknown) and returns dsName, for terse use at the end of
// each handler.
func (b *Builder) setActive(dsName string, schema ir.Schema) string {
	b.active = dsName
	b.schemas[dsName] = schema
	return dsName
}

func (b *Builder) freshOpID() string {
	b.opSeq++
	return fmt.Sprintf("op%d", b.opSeq)
}

// freshDataset returns a collision-free dataset name derived from base,
// e.g. "data", "data_1", "data_2".
func (b *Builder) freshDataset(base string) string {
	base = sanitize(base)
	n := b.names[base]
	b.names[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s_%d", base, n)
}

func sanitize(s string) string {
	var out strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out.WriteRune(r)
		default:
			out.WriteRune('_')
		}
	}
	if out.Len() == 0 {
		return "data"
	}
	return out.String()
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (b *Builder) handle(cmd *ast.Command) error {
	switch cmd.Keyword {
	case "GET_DATA":
		return b.handleGetData(cmd)
	case "GET_FILE":
		return b.handleGetFile(cmd)
	case "DATA_LIST_FREE":
		return b.handleDataListFree(cmd)
	case "COMPUTE":
		return b.handleCompute(cmd)
	case "RECODE":
		return b.handleRecode(cmd)
	case "SELECT_IF":
		return b.handleSelectIf(cmd)
	case "SORT_CASES":
		return b.handleSortCases(cmd)
	case "MISSING_VALUES":
		return b.handleMissingValues(cmd)
	case "AGGREGATE":
		return b.handleAggregate(cmd)
	case "MATCH_FILES":
		return b.handleMatchFiles(cmd)
	case "DO_IF":
		return b.handleDoIf(cmd)
	case "SAVE":
		return b.handleSave(cmd)
	case "STRING_DECL":
		return b.handleStringDecl(cmd)
	default:
		return ir.ErrLowering.New(fmt.Sprintf("no lowering for command %q", cmd.Keyword))
	}
}

func (b *Builder) requireActive(cmd *ast.Command) error {
	if b.active == "" {
		return ir.ErrLowering.New(fmt.Sprintf("%s with no active dataset (missing GET DATA / GET FILE / DATA LIST)", cmd.Keyword))
	}
	return nil
}

// ---- GET DATA / GET FILE / DATA LIST FREE ----

func (b *Builder) handleGetData(cmd *ast.Command) error {
	filename := cmd.Sub["FILE"].Literal
	skip := 0
	if fc := cmd.Sub["FIRSTCASE"]; fc.HasInt && fc.Int > 1 {
		skip = fc.Int - 1
	}
	schema := varsToSchema(cmd.Sub["VARIABLES"].Vars)

	dsName := b.freshDataset(stem(filename))
	b.pipeline.Datasets = append(b.pipeline.Datasets, ir.Dataset{Name: dsName, Schema: schema})
	b.pipeline.Operations = append(b.pipeline.Operations, ir.Operation{
		ID:      b.freshOpID(),
		Kind:    ir.LoadCSV,
		Outputs: []string{dsName},
		Params:  ir.LoadCSVParams{Filename: filename, SkipRows: skip, Schema: schema},
		Schema:  schema,
	})
	b.setActive(dsName, schema)
	return nil
}

// handleGetFile lowers GET FILE, loading a binary .sav file whose column
// layout isn't discoverable from the script text; the dataset's schema is
// tracked as unknown (nil) so the Validator skips column-existence checks
// for anything reading directly from it.
func (b *Builder) handleGetFile(cmd *ast.Command) error {
	filename := cmd.Sub["FILE"].Literal
	dsName := b.freshDataset(stem(filename))
	b.pipeline.Datasets = append(b.pipeline.Datasets, ir.Dataset{Name: dsName})
	b.pipeline.Operations = append(b.pipeline.Operations, ir.Operation{
		ID:      b.freshOpID(),
		Kind:    ir.LoadSav,
		Outputs: []string{dsName},
		Params:  ir.LoadSavParams{Filename: filename},
	})
	b.setActive(dsName, nil)
	return nil
}

// handleDataListFree declares a schema for an inline-style DATA LIST FREE.
// No file is named, so the dataset is loaded from the fixed filename
// "data.csv".
func (b *Builder) handleDataListFree(cmd *ast.Command) error {
	schema := varsToSchema(cmd.Sub["VARIABLES"].Vars)
	dsName := b.freshDataset("data")
	b.pipeline.Datasets = append(b.pipeline.Datasets, ir.Dataset{Name: dsName, Schema: schema})
	b.pipeline.Operations = append(b.pipeline.Operations, ir.Operation{
		ID:      b.freshOpID(),
		Kind:    ir.LoadCSV,
		Outputs: []string{dsName},
		Params:  ir.LoadCSVParams{Filename: "data.csv", SkipRows: 0, Schema: schema},
		Schema:  schema,
	})
	b.setActive(dsName, schema)
	return nil
}

func varsToSchema(vars []ast.VarSpec) ir.Schema {
	if len(vars) == 0 {
		return nil
	}
	schema := make(ir.Schema, 0, len(vars))
	for _, v := range vars {
		typ, width, prec := parseWidth(v.Width)
		schema = append(schema, ir.Column{Name: v.Name, Type: typ, Width: width, Precision: prec})
	}
	return schema
}

// parseWidth decodes an SPSS-style column format such as "F8.2" (numeric,
// width 8, 2 decimals) or "A20" (character, width 20).
func parseWidth(w string) (ir.ColumnType, int, int) {
	if w == "" {
		return ir.TypeNumeric, 0, 0
	}
	kind := w[0]
	rest := w[1:]
	whole, frac := rest, ""
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		whole, frac = rest[:i], rest[i+1:]
	}
	width := cast.ToInt(whole)
	if kind == 'A' || kind == 'a' {
		return ir.TypeString, width, 0
	}
	return ir.TypeNumeric, width, cast.ToInt(frac)
}

// ---- COMPUTE (incl. LAG) ----

func (b *Builder) handleCompute(cmd *ast.Command) error {
	if err := b.requireActive(cmd); err != nil {
		return err
	}
	target := cmd.Sub["TARGET"].Literal
	expr := cmd.Sub["EXPR"].Expr

	if call, ok := expr.(*expression.Call); ok && call.Name == "LAG" {
		return b.emitLag(target, call)
	}

	dsName := b.freshDataset(b.active + "_compute")
	schema := b.schemaOf(b.active).With(ir.Column{Name: target, Type: ir.TypeNumeric})
	b.pipeline.Operations = append(b.pipeline.Operations, ir.Operation{
		ID:      b.freshOpID(),
		Kind:    ir.Compute,
		Inputs:  []string{b.active},
		Outputs: []string{dsName},
		Params:  ir.ComputeParams{Assignments: []ir.Assignment{{Target: target, Expression: expr}}},
		Schema:  schema,
	})
	b.setActive(dsName, schema)
	return nil
}

func (b *Builder) emitLag(target string, call *expression.Call) error {
	if len(call.Args) == 0 {
		return ir.ErrLowering.New("LAG() requires a column argument")
	}
	col, ok := call.Args[0].(*expression.Column)
	if !ok {
		return ir.ErrLowering.New("LAG() argument must be a column reference")
	}
	offset := 1
	if len(call.Args) > 1 {
		if lit, ok := call.Args[1].(*expression.Literal); ok {
			offset = cast.ToInt(lit.Value)
		}
	}
	dsName := b.freshDataset(b.active + "_lag")
	schema := b.schemaOf(b.active).With(ir.Column{Name: target, Type: ir.TypeNumeric})
	b.pipeline.Operations = append(b.pipeline.Operations, ir.Operation{
		ID:      b.freshOpID(),
		Kind:    ir.Lag,
		Inputs:  []string{b.active},
		Outputs: []string{dsName},
		Params:  ir.LagParams{Source: col.Name, Target: target, Offset: offset},
		Schema:  schema,
	})
	b.setActive(dsName, schema)
	return nil
}

// ---- RECODE ----

func (b *Builder) handleRecode(cmd *ast.Command) error {
	if err := b.requireActive(cmd); err != nil {
		return err
	}
	source := cmd.Sub["SOURCE"].Literal
	target := cmd.Sub["TARGET"].Literal
	var rules []ir.RecodeRule
	for _, r := range cmd.Sub["RULES"].Rules {
		rules = append(rules, ir.RecodeRule{Lo: r.Lo, Hi: r.Hi, Match: r.Match, Value: r.Value})
	}
	dsName := b.freshDataset(b.active + "_recode")
	schema := b.schemaOf(b.active).With(ir.Column{Name: target, Type: ir.TypeNumeric})
	b.pipeline.Operations = append(b.pipeline.Operations, ir.Operation{
		ID:      b.freshOpID(),
		Kind:    ir.Recode,
		Inputs:  []string{b.active},
		Outputs: []string{dsName},
		Params:  ir.RecodeParams{Source: source, Target: target, Rules: rules},
		Schema:  schema,
	})
	b.setActive(dsName, schema)
	return nil
}

// ---- SELECT IF ----

func (b *Builder) handleSelectIf(cmd *ast.Command) error {
	if err := b.requireActive(cmd); err != nil {
		return err
	}
	dsName := b.freshDataset(b.active + "_filter")
	schema := b.schemaOf(b.active)
	b.pipeline.Operations = append(b.pipeline.Operations, ir.Operation{
		ID:      b.freshOpID(),
		Kind:    ir.SelectIf,
		Inputs:  []string{b.active},
		Outputs: []string{dsName},
		Params:  ir.SelectIfParams{Predicate: cmd.Sub["PREDICATE"].Expr},
		Schema:  schema,
	})
	b.setActive(dsName, schema)
	return nil
}

// ---- SORT CASES ----

func (b *Builder) handleSortCases(cmd *ast.Command) error {
	if err := b.requireActive(cmd); err != nil {
		return err
	}
	var keys []ir.SortKey
	for _, k := range cmd.Sub["KEYS"].Keys {
		keys = append(keys, ir.SortKey{Column: k.Column, Descending: k.Descending})
	}
	dsName := b.freshDataset(b.active + "_sorted")
	schema := b.schemaOf(b.active)
	b.pipeline.Operations = append(b.pipeline.Operations, ir.Operation{
		ID:      b.freshOpID(),
		Kind:    ir.Sort,
		Inputs:  []string{b.active},
		Outputs: []string{dsName},
		Params:  ir.SortParams{Keys: keys},
		Schema:  schema,
	})
	b.setActive(dsName, schema)
	return nil
}

// ---- MISSING VALUES ----

func (b *Builder) handleMissingValues(cmd *ast.Command) error {
	if err := b.requireActive(cmd); err != nil {
		return err
	}
	col := cmd.Sub["COLUMN"].Literal
	sentinels := cmd.Sub["SENTINELS"].Exprs
	dsName := b.freshDataset(b.active + "_missing")
	schema := b.schemaOf(b.active)
	b.pipeline.Operations = append(b.pipeline.Operations, ir.Operation{
		ID:      b.freshOpID(),
		Kind:    ir.MissingValues,
		Inputs:  []string{b.active},
		Outputs: []string{dsName},
		Params: ir.MissingValuesParams{
			Column:        col,
			Sentinels:     sentinels,
			ColumnOrder:   []string{col},
			PerColumnVals: map[string][]expression.Expression{col: sentinels},
		},
		Schema: schema,
	})
	b.setActive(dsName, schema)
	return nil
}

// ---- AGGREGATE ----

func (b *Builder) handleAggregate(cmd *ast.Command) error {
	if err := b.requireActive(cmd); err != nil {
		return err
	}
	var reductions []ir.Reduction
	for _, r := range cmd.Sub["REDUCTIONS"].Reductions {
		reductions = append(reductions, ir.Reduction{Target: r.Target, Reducer: r.Reducer, Source: r.Source})
	}
	breakKeys := cmd.Sub["BREAK"].List
	inputSchema := b.schemaOf(b.active)
	var schema ir.Schema
	for _, k := range breakKeys {
		col, ok := inputSchema.Get(k)
		if !ok {
			col = ir.Column{Name: k, Type: ir.TypeNumeric}
		}
		schema = schema.With(col)
	}
	for _, r := range reductions {
		schema = schema.With(ir.Column{Name: r.Target, Type: ir.TypeNumeric})
	}

	dsName := b.freshDataset(b.active + "_agg")
	b.pipeline.Operations = append(b.pipeline.Operations, ir.Operation{
		ID:      b.freshOpID(),
		Kind:    ir.Aggregate,
		Inputs:  []string{b.active},
		Outputs: []string{dsName},
		Params: ir.AggregateParams{
			BreakKeys:   breakKeys,
			Reductions:  reductions,
			ReplaceSelf: cmd.Sub["OUTFILE"].Literal == "*",
		},
		Schema: schema,
	})
	b.setActive(dsName, schema)
	return nil
}

// ---- MATCH FILES ----

// handleMatchFiles treats each /FILE reference as either the currently
// active dataset (a literal "*") or a fresh LOAD_SAV of that filename, then
// folds them pairwise into MATCH_FILES joins. The join kind defaults to a
// left join when none is otherwise specified.
func (b *Builder) handleMatchFiles(cmd *ast.Command) error {
	files := cmd.Sub["FILES"].List
	if len(files) < 2 {
		return ir.ErrLowering.New("MATCH FILES requires at least two /FILE references")
	}
	by := cmd.Sub["BY"].List

	var inputs []string
	for _, f := range files {
		if f == "*" {
			if err := b.requireActive(cmd); err != nil {
				return err
			}
			inputs = append(inputs, b.active)
			continue
		}
		dsName := b.freshDataset(stem(f))
		b.pipeline.Datasets = append(b.pipeline.Datasets, ir.Dataset{Name: dsName})
		b.pipeline.Operations = append(b.pipeline.Operations, ir.Operation{
			ID:      b.freshOpID(),
			Kind:    ir.LoadSav,
			Outputs: []string{dsName},
			Params:  ir.LoadSavParams{Filename: f},
		})
		b.schemas[dsName] = nil
		inputs = append(inputs, dsName)
	}

	left := inputs[0]
	schema := b.schemaOf(left)
	for _, right := range inputs[1:] {
		rightSchema := b.schemaOf(right)
		schema = schema.Union(rightSchema)
		dsName := b.freshDataset(left + "_joined")
		b.pipeline.Operations = append(b.pipeline.Operations, ir.Operation{
			ID:      b.freshOpID(),
			Kind:    ir.MatchFiles,
			Inputs:  []string{left, right},
			Outputs: []string{dsName},
			Params:  ir.MatchFilesParams{ByKeys: by, JoinKind: ir.JoinLeft},
			Schema:  schema,
		})
		left = dsName
		b.schemas[left] = schema
	}
	b.active = left
	return nil
}

// ---- DO IF / ELSE / END IF ----

// handleDoIf folds a DO IF / ELSE / END IF block into a single COMPUTE
// operation per assigned target, each wrapped in an expression.Conditional
// so DO_IF never reaches the IR as its own operation kind. Only direct
// COMPUTE assignments within each branch are
// supported; any other statement kind is an error.
func (b *Builder) handleDoIf(cmd *ast.Command) error {
	if err := b.requireActive(cmd); err != nil {
		return err
	}
	cond := cmd.Sub["PREDICATE"].Expr

	thenAssigns, thenOrder, err := collectAssignments(cmd.Branches[0])
	if err != nil {
		return err
	}
	elseAssigns := map[string]expression.Expression{}
	var elseOrder []string
	if len(cmd.Branches) > 1 {
		elseAssigns, elseOrder, err = collectAssignments(cmd.Branches[1])
		if err != nil {
			return err
		}
	}

	order := append([]string(nil), thenOrder...)
	seen := map[string]bool{}
	for _, t := range order {
		seen[t] = true
	}
	for _, t := range elseOrder {
		if !seen[t] {
			order = append(order, t)
			seen[t] = true
		}
	}

	var assignments []ir.Assignment
	for _, target := range order {
		thenExpr, hasThen := thenAssigns[target]
		if !hasThen {
			thenExpr = &expression.Column{Name: target}
		}
		elseExpr, hasElse := elseAssigns[target]
		if !hasElse {
			elseExpr = &expression.Column{Name: target}
		}
		assignments = append(assignments, ir.Assignment{
			Target:     target,
			Expression: &expression.Conditional{Cond: cond, Then: thenExpr, Else: elseExpr},
		})
	}

	schema := b.schemaOf(b.active)
	for _, target := range order {
		schema = schema.With(ir.Column{Name: target, Type: ir.TypeNumeric})
	}

	dsName := b.freshDataset(b.active + "_doif")
	b.pipeline.Operations = append(b.pipeline.Operations, ir.Operation{
		ID:      b.freshOpID(),
		Kind:    ir.Compute,
		Inputs:  []string{b.active},
		Outputs: []string{dsName},
		Params:  ir.ComputeParams{Assignments: assignments},
		Schema:  schema,
	})
	b.setActive(dsName, schema)
	return nil
}

func collectAssignments(body []*ast.Command) (map[string]expression.Expression, []string, error) {
	assigns := map[string]expression.Expression{}
	var order []string
	for _, c := range body {
		if c.Keyword != "COMPUTE" {
			return nil, nil, ir.ErrLowering.New(fmt.Sprintf("unsupported statement %q inside DO IF", c.Keyword))
		}
		target := c.Sub["TARGET"].Literal
		if _, ok := assigns[target]; !ok {
			order = append(order, target)
		}
		assigns[target] = c.Sub["EXPR"].Expr
	}
	return assigns, order, nil
}

// ---- SAVE ----

func (b *Builder) handleSave(cmd *ast.Command) error {
	if err := b.requireActive(cmd); err != nil {
		return err
	}
	outfile := cmd.Sub["OUTFILE"].Literal
	kind := ir.SaveCSV
	if strings.EqualFold(filepath.Ext(outfile), ".sav") {
		kind = ir.SaveSav
	}
	b.pipeline.Operations = append(b.pipeline.Operations, ir.Operation{
		ID:     b.freshOpID(),
		Kind:   kind,
		Inputs: []string{b.active},
		Params: ir.SaveParams{Filename: outfile},
	})
	return nil
}

// ---- STRING ----

func (b *Builder) handleStringDecl(cmd *ast.Command) error {
	if err := b.requireActive(cmd); err != nil {
		return err
	}
	col := cmd.Sub["COLUMN"].Literal
	_, width, _ := parseWidth(cmd.Sub["WIDTH"].Literal)
	schema := b.schemaOf(b.active).With(ir.Column{Name: col, Type: ir.TypeString, Width: width})
	dsName := b.freshDataset(b.active + "_string")
	b.pipeline.Operations = append(b.pipeline.Operations, ir.Operation{
		ID:      b.freshOpID(),
		Kind:    ir.StringDeclKind,
		Inputs:  []string{b.active},
		Outputs: []string{dsName},
		Params:  ir.StringDeclParams{Column: col, Width: width},
		Schema:  schema,
	})
	b.setActive(dsName, schema)
	return nil
}
