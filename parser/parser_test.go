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

package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magicspik3/etlc/ir/expression"
)

func TestParseGetData(t *testing.T) {
	src := `GET DATA /TYPE=TXT /FILE='data.csv' /FIRSTCASE=2 /VARIABLES=id F8.0 score F8.2.`
	cmds, err := ParseProgram(src)
	require.NoError(t, err)
	require.Len(t, cmds, 1)

	cmd := cmds[0]
	require.Equal(t, "GET_DATA", cmd.Keyword)
	require.Equal(t, "TXT", cmd.Sub["TYPE"].Literal)
	require.Equal(t, "data.csv", cmd.Sub["FILE"].Literal)
	require.Equal(t, 2, cmd.Sub["FIRSTCASE"].Int)
	require.Equal(t, "id", cmd.Sub["VARIABLES"].Vars[0].Name)
	require.Equal(t, "F8.0", cmd.Sub["VARIABLES"].Vars[0].Width)
	require.Equal(t, "score", cmd.Sub["VARIABLES"].Vars[1].Name)
}

func TestParseGetFileSugar(t *testing.T) {
	cmds, err := ParseProgram(`GET FILE='in.sav'.`)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.Equal(t, "GET_FILE", cmds[0].Keyword)
	require.Equal(t, "in.sav", cmds[0].Sub["FILE"].Literal)
}

func TestParseDataListFree(t *testing.T) {
	cmds, err := ParseProgram(`DATA LIST FREE / id (F8.0) name (A20).`)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.Equal(t, "DATA_LIST_FREE", cmds[0].Keyword)
	vars := cmds[0].Sub["VARIABLES"].Vars
	require.Len(t, vars, 2)
	require.Equal(t, "id", vars[0].Name)
}

func TestParseCompute(t *testing.T) {
	cmds, err := ParseProgram(`COMPUTE total = price * quantity.`)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.Equal(t, "COMPUTE", cmds[0].Keyword)
	require.Equal(t, "total", cmds[0].Sub["TARGET"].Literal)

	expr := cmds[0].Sub["EXPR"].Expr
	bin, ok := expr.(*expression.BinaryOp)
	require.True(t, ok)
	require.Equal(t, "*", bin.Op)
}

func TestParseRecodeRange(t *testing.T) {
	cmds, err := ParseProgram(`RECODE score (0 THRU 49=0)(50 THRU 100=1) INTO grade.`)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.Equal(t, "score", cmds[0].Sub["SOURCE"].Literal)
	require.Equal(t, "grade", cmds[0].Sub["TARGET"].Literal)
	rules := cmds[0].Sub["RULES"].Rules
	require.Len(t, rules, 2)
	require.True(t, rules[0].Lo != nil && rules[0].Hi != nil)
}

func TestParseSelectIf(t *testing.T) {
	cmds, err := ParseProgram(`SELECT IF (age >= 18).`)
	require.NoError(t, err)
	require.Equal(t, "SELECT_IF", cmds[0].Keyword)
	_, ok := cmds[0].Sub["PREDICATE"].Expr.(*expression.BinaryOp)
	require.True(t, ok)
}

func TestParseSortCases(t *testing.T) {
	cmds, err := ParseProgram(`SORT CASES BY dept (A) salary (D).`)
	require.NoError(t, err)
	keys := cmds[0].Sub["KEYS"].Keys
	require.Len(t, keys, 2)
	require.False(t, keys[0].Descending)
	require.True(t, keys[1].Descending)
}

func TestParseMissingValues(t *testing.T) {
	cmds, err := ParseProgram(`MISSING VALUES income (-1, 999).`)
	require.NoError(t, err)
	require.Equal(t, "income", cmds[0].Sub["COLUMN"].Literal)
	require.Len(t, cmds[0].Sub["SENTINELS"].Exprs, 2)
}

func TestParseAggregate(t *testing.T) {
	cmds, err := ParseProgram(`AGGREGATE OUTFILE=* /BREAK=dept /avg_score=MEAN(score).`)
	require.NoError(t, err)
	require.Equal(t, "*", cmds[0].Sub["OUTFILE"].Literal)
	require.Equal(t, []string{"dept"}, cmds[0].Sub["BREAK"].List)
	reds := cmds[0].Sub["REDUCTIONS"].Reductions
	require.Len(t, reds, 1)
	require.Equal(t, "MEAN", reds[0].Reducer)
	require.Equal(t, "score", reds[0].Source)
}

func TestParseMatchFiles(t *testing.T) {
	cmds, err := ParseProgram(`MATCH FILES /FILE='a.sav' /FILE='b.sav' /BY id.`)
	require.NoError(t, err)
	require.Equal(t, []string{"a.sav", "b.sav"}, cmds[0].Sub["FILES"].List)
	require.Equal(t, []string{"id"}, cmds[0].Sub["BY"].List)
}

func TestParseDoIfElse(t *testing.T) {
	src := `DO IF (age >= 18).
COMPUTE adult = 1.
ELSE.
COMPUTE adult = 0.
END IF.`
	cmds, err := ParseProgram(src)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.Equal(t, "DO_IF", cmds[0].Keyword)
	require.Len(t, cmds[0].Branches, 2)
	require.Len(t, cmds[0].Branches[0], 1)
	require.Len(t, cmds[0].Branches[1], 1)
}

func TestParseSave(t *testing.T) {
	cmds, err := ParseProgram(`SAVE OUTFILE='out.sav'.`)
	require.NoError(t, err)
	require.Equal(t, "SAVE", cmds[0].Keyword)
	require.Equal(t, "out.sav", cmds[0].Sub["OUTFILE"].Literal)
}

func TestParseStringDecl(t *testing.T) {
	cmds, err := ParseProgram(`STRING label (A20).`)
	require.NoError(t, err)
	require.Equal(t, "STRING_DECL", cmds[0].Keyword)
	require.Equal(t, "label", cmds[0].Sub["COLUMN"].Literal)
}

func TestParseCallExpression(t *testing.T) {
	cmds, err := ParseProgram(`COMPUTE prev = LAG(score).`)
	require.NoError(t, err)
	call, ok := cmds[0].Sub["EXPR"].Expr.(*expression.Call)
	require.True(t, ok)
	require.Equal(t, "LAG", call.Name)
	require.Len(t, call.Args, 1)
}

func TestParseErrorOnUnrecognizedKeyword(t *testing.T) {
	_, err := ParseProgram(`FROBNICATE x.`)
	require.Error(t, err)
}
