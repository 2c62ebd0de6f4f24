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

package expression

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLiteralStringQuotesStringValues(t *testing.T) {
	require.Equal(t, `"hi"`, (&Literal{Value: "hi"}).String())
	require.Equal(t, "42", (&Literal{Value: 42}).String())
}

func TestBinaryOpStringParenthesizes(t *testing.T) {
	b := &BinaryOp{Op: "*", Left: &Column{Name: "price"}, Right: &Column{Name: "quantity"}}
	require.Equal(t, "(price * quantity)", b.String())
}

func TestConditionalStringOmitsElseWhenNil(t *testing.T) {
	c := &Conditional{Cond: &Column{Name: "x"}, Then: &Literal{Value: 1}}
	require.Equal(t, "if x then 1", c.String())

	c.Else = &Literal{Value: 0}
	require.Equal(t, "if x then 1 else 0", c.String())
}

func TestWalkVisitsEveryDescendant(t *testing.T) {
	e := &BinaryOp{
		Op:   "+",
		Left: &Column{Name: "a"},
		Right: &Call{
			Name: "ABS",
			Args: []Expression{&Column{Name: "b"}},
		},
	}

	var seen []string
	Walk(func(n Expression) bool {
		seen = append(seen, n.String())
		return true
	}, e)

	require.Equal(t, []string{"(a + ABS(b))", "a", "ABS(b)", "b"}, seen)
}

func TestWalkStopsDescendingWhenFnReturnsFalse(t *testing.T) {
	e := &Call{Name: "MEAN", Args: []Expression{&Column{Name: "score"}}}

	var seen []string
	Walk(func(n Expression) bool {
		seen = append(seen, n.String())
		return false
	}, e)

	require.Equal(t, []string{"MEAN(score)"}, seen)
}

func TestColumnRefsDedupesAndPreservesOrder(t *testing.T) {
	e := &BinaryOp{
		Op:   "+",
		Left: &Column{Name: "price"},
		Right: &BinaryOp{
			Op:    "-",
			Left:  &Column{Name: "tax"},
			Right: &Column{Name: "price"},
		},
	}
	require.Equal(t, []string{"price", "tax"}, ColumnRefs(e))
}

func TestRangeChildrenAndString(t *testing.T) {
	r := &Range{Lo: &Literal{Value: 0}, Hi: &Literal{Value: 49}}
	require.Equal(t, "0 THRU 49", r.String())
	require.Len(t, r.Children(), 2)
}

func TestConditionalChildrenIncludesElseOnlyWhenSet(t *testing.T) {
	c := &Conditional{Cond: &Column{Name: "x"}, Then: &Literal{Value: 1}}
	require.Len(t, c.Children(), 2)

	c.Else = &Literal{Value: 0}
	require.Len(t, c.Children(), 3)
}
