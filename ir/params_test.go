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

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magicspik3/etlc/ir/expression"
)

func TestComputeParamsCloneDetachesSlice(t *testing.T) {
	p := ComputeParams{Assignments: []Assignment{{Target: "total"}}}
	clone := p.Clone().(ComputeParams)
	clone.Assignments[0].Target = "mutated"
	require.Equal(t, "total", p.Assignments[0].Target)
}

func TestRecodeParamsCloneDetachesRules(t *testing.T) {
	p := RecodeParams{Rules: []RecodeRule{{Match: &expression.Literal{Value: 1}, Value: &expression.Literal{Value: "a"}}}}
	clone := p.Clone().(RecodeParams)
	clone.Rules[0].Value = &expression.Literal{Value: "mutated"}
	require.Equal(t, "a", p.Rules[0].Value.(*expression.Literal).Value)
}

func TestRecodeRuleIsRange(t *testing.T) {
	r := RecodeRule{Lo: &expression.Literal{Value: 0}, Hi: &expression.Literal{Value: 49}}
	require.True(t, r.IsRange())

	r2 := RecodeRule{Match: &expression.Literal{Value: 1}}
	require.False(t, r2.IsRange())
}

func TestMissingValuesParamsCloneDeepCopiesPerColumnMap(t *testing.T) {
	p := MissingValuesParams{
		ColumnOrder: []string{"score"},
		PerColumnVals: map[string][]expression.Expression{
			"score": {&expression.Literal{Value: -9}},
		},
	}
	clone := p.Clone().(MissingValuesParams)
	clone.PerColumnVals["score"][0] = &expression.Literal{Value: -1}
	clone.PerColumnVals["extra"] = nil

	require.Equal(t, -9, p.PerColumnVals["score"][0].(*expression.Literal).Value)
	require.NotContains(t, p.PerColumnVals, "extra")
}

func TestAggregateParamsCloneDetachesSlices(t *testing.T) {
	p := AggregateParams{BreakKeys: []string{"dept"}, Reductions: []Reduction{{Target: "avg", Reducer: "MEAN", Source: "score"}}}
	clone := p.Clone().(AggregateParams)
	clone.BreakKeys[0] = "mutated"
	clone.Reductions[0].Target = "mutated"

	require.Equal(t, "dept", p.BreakKeys[0])
	require.Equal(t, "avg", p.Reductions[0].Target)
}

func TestMatchFilesParamsCloneDetachesByKeys(t *testing.T) {
	p := MatchFilesParams{ByKeys: []string{"id"}, JoinKind: JoinLeft}
	clone := p.Clone().(MatchFilesParams)
	clone.ByKeys[0] = "mutated"
	require.Equal(t, "id", p.ByKeys[0])
}

func TestSortParamsCloneDetachesKeys(t *testing.T) {
	p := SortParams{Keys: []SortKey{{Column: "id"}}}
	clone := p.Clone().(SortParams)
	clone.Keys[0].Column = "mutated"
	require.Equal(t, "id", p.Keys[0].Column)
}

func TestLoadCSVParamsCloneDetachesSchema(t *testing.T) {
	p := LoadCSVParams{Filename: "data.csv", Schema: Schema{{Name: "price"}}}
	clone := p.Clone().(LoadCSVParams)
	clone.Schema[0].Name = "mutated"
	require.Equal(t, "price", p.Schema[0].Name)
}
