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

package graphbuilder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magicspik3/etlc/ir"
	"github.com/magicspik3/etlc/ir/expression"
	"github.com/magicspik3/etlc/parser"
)

func build(t *testing.T, src string) *ir.Pipeline {
	t.Helper()
	cmds, err := parser.ParseProgram(src)
	require.NoError(t, err)
	p, err := Build(cmds)
	require.NoError(t, err)
	return p
}

func TestLoadCSVDeclaresDatasetAndSkipRows(t *testing.T) {
	p := build(t, `GET DATA /TYPE=TXT /FILE='data.csv' /FIRSTCASE=2 /VARIABLES=id F8.0 score F8.2.`)
	require.Len(t, p.Operations, 1)
	op := p.Operations[0]
	require.Equal(t, ir.LoadCSV, op.Kind)
	params := op.Params.(ir.LoadCSVParams)
	require.Equal(t, "data.csv", params.Filename)
	require.Equal(t, 1, params.SkipRows)
	require.True(t, p.HasDataset(op.Outputs[0]))
}

func TestComputeChainsFromActiveDataset(t *testing.T) {
	p := build(t, `GET DATA /TYPE=TXT /FILE='data.csv' /VARIABLES=price F8.2 quantity F8.0.
COMPUTE total = price * quantity.`)
	require.Len(t, p.Operations, 2)
	loadOut := p.Operations[0].Outputs[0]
	compute := p.Operations[1]
	require.Equal(t, ir.Compute, compute.Kind)
	require.Equal(t, []string{loadOut}, compute.Inputs)
	require.NotEqual(t, loadOut, compute.Outputs[0])
}

func TestComputeLagLowersToDedicatedOp(t *testing.T) {
	p := build(t, `GET DATA /TYPE=TXT /FILE='data.csv' /VARIABLES=score F8.0.
COMPUTE prev_score = LAG(score).`)
	require.Len(t, p.Operations, 2)
	lagOp := p.Operations[1]
	require.Equal(t, ir.Lag, lagOp.Kind)
	params := lagOp.Params.(ir.LagParams)
	require.Equal(t, "score", params.Source)
	require.Equal(t, "prev_score", params.Target)
	require.Equal(t, 1, params.Offset)
}

func TestSaveIsTerminalAndTypedByExtension(t *testing.T) {
	p := build(t, `GET FILE='in.sav'.
SAVE OUTFILE='out.sav'.`)
	save := p.Operations[len(p.Operations)-1]
	require.Equal(t, ir.SaveSav, save.Kind)
	require.Empty(t, save.Outputs)
}

func TestDoIfLowersToConditionalCompute(t *testing.T) {
	src := `GET DATA /TYPE=TXT /FILE='data.csv' /VARIABLES=age F8.0.
DO IF (age >= 18).
COMPUTE adult = 1.
ELSE.
COMPUTE adult = 0.
END IF.`
	p := build(t, src)
	require.Len(t, p.Operations, 2)
	op := p.Operations[1]
	require.Equal(t, ir.Compute, op.Kind)
	params := op.Params.(ir.ComputeParams)
	require.Len(t, params.Assignments, 1)
	require.Equal(t, "adult", params.Assignments[0].Target)
	cond, ok := params.Assignments[0].Expression.(*expression.Conditional)
	require.True(t, ok)
	require.NotNil(t, cond.Cond)
	require.NotNil(t, cond.Else)
}

func TestMatchFilesJoinsLoadedDatasets(t *testing.T) {
	p := build(t, `MATCH FILES /FILE='a.sav' /FILE='b.sav' /BY id.`)
	// two LOAD_SAV ops + one MATCH_FILES op
	require.Len(t, p.Operations, 3)
	join := p.Operations[2]
	require.Equal(t, ir.MatchFiles, join.Kind)
	params := join.Params.(ir.MatchFilesParams)
	require.Equal(t, ir.JoinLeft, params.JoinKind)
	require.Equal(t, []string{"id"}, params.ByKeys)
}

func TestAggregateReplaceSelfFlag(t *testing.T) {
	p := build(t, `GET DATA /TYPE=TXT /FILE='data.csv' /VARIABLES=dept F3.0 score F8.0.
AGGREGATE OUTFILE=* /BREAK=dept /avg_score=MEAN(score).`)
	agg := p.Operations[1]
	params := agg.Params.(ir.AggregateParams)
	require.True(t, params.ReplaceSelf)
	require.Equal(t, []string{"dept"}, params.BreakKeys)
}

func TestMissingValuesCarriesSentinelsPerColumn(t *testing.T) {
	p := build(t, `GET DATA /TYPE=TXT /FILE='data.csv' /VARIABLES=income F8.0.
MISSING VALUES income (-1, 999).`)
	mv := p.Operations[1].Params.(ir.MissingValuesParams)
	require.Equal(t, "income", mv.Column)
	require.Len(t, mv.Sentinels, 2)
}

func TestRequiresActiveDatasetBeforeTransform(t *testing.T) {
	cmds, err := parser.ParseProgram(`COMPUTE total = price * quantity.`)
	require.NoError(t, err)
	_, err = Build(cmds)
	require.Error(t, err)
}
