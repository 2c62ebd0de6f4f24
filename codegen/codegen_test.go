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

package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magicspik3/etlc/graphbuilder"
	"github.com/magicspik3/etlc/optimizer"
	"github.com/magicspik3/etlc/parser"
)

func generate(t *testing.T, src string) string {
	t.Helper()
	cmds, err := parser.ParseProgram(src)
	require.NoError(t, err)
	raw, err := graphbuilder.Build(cmds)
	require.NoError(t, err)
	opt, err := optimizer.NewCoordinator().Optimize(raw)
	require.NoError(t, err)
	out, err := Generate(opt)
	require.NoError(t, err)
	return out
}

func TestGenerateLoadAndSave(t *testing.T) {
	out := generate(t, `GET DATA /TYPE=TXT /FILE='data.csv' /FIRSTCASE=2 /VARIABLES=id F8.0.
SAVE OUTFILE='out.csv'.`)
	require.Contains(t, out, `read_csv("data.csv", skip = 1)`)
	require.Contains(t, out, `write_csv(`)
}

func TestGenerateComputeFusedMutate(t *testing.T) {
	out := generate(t, `GET DATA /TYPE=TXT /FILE='data.csv' /VARIABLES=price F8.2 quantity F8.0.
COMPUTE total = price * quantity.
COMPUTE tax = total * 0.1.`)
	require.Contains(t, out, "mutate(total = (price * quantity), tax = (total * 0.1))")
}

func TestGenerateRecodeCaseWhen(t *testing.T) {
	out := generate(t, `GET DATA /TYPE=TXT /FILE='data.csv' /VARIABLES=score F8.0.
RECODE score (0 THRU 49=0)(50 THRU 100=1) INTO grade.`)
	require.Contains(t, out, "case_when(between(score, 0, 49) ~ 0, between(score, 50, 100) ~ 1, TRUE ~ score)")
}

func TestGenerateSortDesc(t *testing.T) {
	out := generate(t, `GET DATA /TYPE=TXT /FILE='data.csv' /VARIABLES=dept F3.0 salary F8.0.
SORT CASES BY dept (A) salary (D).`)
	require.Contains(t, out, "arrange(dept, desc(salary))")
}

func TestGenerateMatchFilesLeftJoin(t *testing.T) {
	out := generate(t, `MATCH FILES /FILE='a.sav' /FILE='b.sav' /BY id.`)
	require.Contains(t, out, `left_join(`)
	require.Contains(t, out, `by = c("id")`)
}

func TestGenerateAggregateSummarise(t *testing.T) {
	out := generate(t, `GET DATA /TYPE=TXT /FILE='data.csv' /VARIABLES=dept F3.0 score F8.0.
AGGREGATE OUTFILE=* /BREAK=dept /avg_score=MEAN(score).`)
	require.Contains(t, out, "group_by(dept)")
	require.Contains(t, out, "avg_score = mean(score)")
}

func TestGenerateDeterministic(t *testing.T) {
	src := `GET DATA /TYPE=TXT /FILE='data.csv' /VARIABLES=price F8.2 quantity F8.0.
COMPUTE total = price * quantity.
SAVE OUTFILE='out.csv'.`
	require.Equal(t, generate(t, src), generate(t, src))
}

func TestGenerateDoIfLowersToIfElse(t *testing.T) {
	out := generate(t, `GET DATA /TYPE=TXT /FILE='data.csv' /VARIABLES=age F8.0.
DO IF (age >= 18).
COMPUTE adult = 1.
ELSE.
COMPUTE adult = 0.
END IF.`)
	require.Contains(t, out, "if_else((age >= 18), 1, 0)")
}

func TestGenerateLagMutate(t *testing.T) {
	out := generate(t, `GET DATA /TYPE=TXT /FILE='data.csv' /VARIABLES=score F8.0.
COMPUTE prev_score = LAG(score).`)
	require.Contains(t, out, "mutate(prev_score = lag(score, 1))")
}

func TestGenerateStringDeclEmitsNoMutate(t *testing.T) {
	out := generate(t, `GET DATA /TYPE=TXT /FILE='data.csv' /VARIABLES=name A10.
STRING label (A20).
COMPUTE label = CONCAT("ID_", name).`)
	require.NotContains(t, out, "as.character")
	require.Contains(t, out, `mutate(label = paste0("ID_", name))`)
}

func TestGenerateNegativeLiteralHasNoParens(t *testing.T) {
	out := generate(t, `GET DATA /TYPE=TXT /FILE='data.csv' /VARIABLES=age F8.0.
MISSING VALUES age (-9).`)
	require.Contains(t, out, "na_if(age, -9)")
	require.NotContains(t, out, "-(9)")
}

func TestGenerateAggregateReplaceSelfReusesInputVariable(t *testing.T) {
	out := generate(t, `GET DATA /TYPE=TXT /FILE='data.csv' /VARIABLES=dept F3.0 score F8.0.
AGGREGATE OUTFILE=* /BREAK=dept /avg_score=MEAN(score).
SAVE OUTFILE='out.csv'.`)
	require.Contains(t, out, "data <- data %>%\n  group_by(dept)")
	require.Contains(t, out, "write_csv(data,")
}
