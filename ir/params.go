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

package ir

import "github.com/magicspik3/etlc/ir/expression"

// LoadCSVParams holds parameters for a LOAD_CSV operation.
type LoadCSVParams struct {
	Filename string
	SkipRows int
	Schema   Schema
}

func (p LoadCSVParams) Clone() Params { p.Schema = p.Schema.Clone(); return p }

// LoadSavParams holds parameters for a LOAD_SAV operation.
type LoadSavParams struct {
	Filename string
}

func (p LoadSavParams) Clone() Params { return p }

// SaveParams holds parameters for SAVE_CSV and SAVE_SAV operations.
type SaveParams struct {
	Filename string
}

func (p SaveParams) Clone() Params { return p }

// Assignment is one `target = expression` inside a (possibly fused) COMPUTE.
type Assignment struct {
	Target     string
	Expression expression.Expression
}

// ComputeParams holds an ordered list of assignments. A freshly-built
// COMPUTE operation carries exactly one; the Vertical Collapser fuses
// consecutive COMPUTE operations into one with several, in source order.
type ComputeParams struct {
	Assignments []Assignment
}

func (p ComputeParams) Clone() Params {
	p.Assignments = append([]Assignment(nil), p.Assignments...)
	return p
}

// RecodeRule is one `(pattern = value)` entry of a RECODE, where the
// pattern is either a single Match expression or a Lo/Hi range (THRU).
type RecodeRule struct {
	Lo, Hi expression.Expression // both set for a THRU range
	Match  expression.Expression // set for a single-value pattern
	Value  expression.Expression
}

// IsRange reports whether the rule matches an inclusive range rather than
// a single literal value.
func (r RecodeRule) IsRange() bool { return r.Lo != nil && r.Hi != nil }

// RecodeParams holds parameters for a RECODE operation.
type RecodeParams struct {
	Source string
	Target string
	Rules  []RecodeRule
}

func (p RecodeParams) Clone() Params {
	p.Rules = append([]RecodeRule(nil), p.Rules...)
	return p
}

// SelectIfParams holds parameters for a SELECT_IF operation.
type SelectIfParams struct {
	Predicate expression.Expression
}

func (p SelectIfParams) Clone() Params { return p }

// SortKey is one SORT key with its direction.
type SortKey struct {
	Column     string
	Descending bool
}

// SortParams holds parameters for a SORT operation.
type SortParams struct {
	Keys []SortKey
}

func (p SortParams) Clone() Params {
	p.Keys = append([]SortKey(nil), p.Keys...)
	return p
}

// MissingValuesParams holds parameters for a MISSING_VALUES operation. A
// freshly-built one names a single column; the Promoter pass merges
// consecutive MISSING VALUES declarations for different columns into one
// logical operation whose ColumnOrder lists every column in source order,
// with each column's sentinels in PerColumnVals.
type MissingValuesParams struct {
	Column        string
	Sentinels     []expression.Expression
	ColumnOrder   []string
	PerColumnVals map[string][]expression.Expression
}

func (p MissingValuesParams) Clone() Params {
	p.Sentinels = append([]expression.Expression(nil), p.Sentinels...)
	p.ColumnOrder = append([]string(nil), p.ColumnOrder...)
	if p.PerColumnVals != nil {
		cp := make(map[string][]expression.Expression, len(p.PerColumnVals))
		for k, v := range p.PerColumnVals {
			cp[k] = append([]expression.Expression(nil), v...)
		}
		p.PerColumnVals = cp
	}
	return p
}

// LagParams holds parameters for a LAG operation.
type LagParams struct {
	Source string
	Target string
	Offset int
}

func (p LagParams) Clone() Params { return p }

// Reduction is one `target = REDUCER(source)` entry of an AGGREGATE.
type Reduction struct {
	Target  string
	Reducer string
	Source  string
}

// AggregateParams holds parameters for an AGGREGATE operation.
type AggregateParams struct {
	BreakKeys   []string
	Reductions  []Reduction
	ReplaceSelf bool // true when OUTFILE=* (result replaces the active dataset)
}

func (p AggregateParams) Clone() Params {
	p.BreakKeys = append([]string(nil), p.BreakKeys...)
	p.Reductions = append([]Reduction(nil), p.Reductions...)
	return p
}

// JoinKind is the closed set of supported MATCH_FILES join kinds.
type JoinKind string

const (
	JoinLeft  JoinKind = "left"
	JoinInner JoinKind = "inner"
	JoinFull  JoinKind = "full"
)

// MatchFilesParams holds parameters for a MATCH_FILES operation.
type MatchFilesParams struct {
	ByKeys   []string
	JoinKind JoinKind
}

func (p MatchFilesParams) Clone() Params {
	p.ByKeys = append([]string(nil), p.ByKeys...)
	return p
}

// StringDeclParams holds parameters for a STRING_DECL operation.
type StringDeclParams struct {
	Column string
	Width  int
}

func (p StringDeclParams) Clone() Params { return p }
