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

// Package ast defines the command-level AST nodes produced by the parser,
// before lowering into the IR pipeline. Per the parser's design notes,
// expressions are parsed directly into the ir/expression tree rather than
// carried as raw strings past this layer.
package ast

import (
	"github.com/magicspik3/etlc/ir/expression"
	"github.com/magicspik3/etlc/token"
)

// Span locates a Command in the source text for diagnostics.
type Span struct {
	Line   int
	Column int
}

// VarSpec is one `name width` pair from a /VARIABLES or DATA LIST variable
// list, e.g. `id F8.0` or `name A10`.
type VarSpec struct {
	Name  string
	Width string // raw width token, e.g. "F8.0", "A10"; "" if omitted
}

// RecodeRule is one `(pattern = value)` entry of a RECODE command.
type RecodeRule struct {
	Lo, Hi expression.Expression // both set for a THRU range pattern
	Match  expression.Expression // set for a single-value pattern
	Value  expression.Expression
}

// SortKey is one SORT CASES BY key with its direction.
type SortKey struct {
	Column     string
	Descending bool
}

// Reduction is one `target = REDUCER(source)` entry of an AGGREGATE.
type Reduction struct {
	Target  string
	Reducer string
	Source  string
}

// Value is a parsed subcommand value. Which fields are populated depends
// on which subcommand it came from; see the per-command handlers in
// package parser.
type Value struct {
	Literal    string
	Int        int
	HasInt     bool
	List       []string
	Vars       []VarSpec
	Expr       expression.Expression
	Exprs      []expression.Expression
	Rules      []RecodeRule
	Keys       []SortKey
	Reductions []Reduction
}

// Command is one parsed statement: a keyword plus its subcommands.
type Command struct {
	Keyword string
	Sub     map[string]Value
	// Branches holds nested commands for a DO IF / ELSE / END IF block:
	// Branches[0] is the "if true" body, Branches[1] (if present) is the
	// "else" body. Only populated when Keyword == "DO_IF".
	Branches [][]*Command
	Span     Span
}

// NewCommand creates an empty Command for the given keyword at span.
func NewCommand(keyword string, span Span) *Command {
	return &Command{Keyword: keyword, Sub: map[string]Value{}, Span: span}
}

// TokenSpan converts a token.Token's position into a Span.
func TokenSpan(t token.Token) Span {
	return Span{Line: t.Line, Column: t.Column}
}
