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

package ast

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magicspik3/etlc/token"
)

func TestNewCommandInitializesEmptySub(t *testing.T) {
	cmd := NewCommand("COMPUTE", Span{Line: 1, Column: 1})
	require.Equal(t, "COMPUTE", cmd.Keyword)
	require.NotNil(t, cmd.Sub)
	require.Empty(t, cmd.Sub)
	require.Nil(t, cmd.Branches)
}

func TestTokenSpanCopiesPosition(t *testing.T) {
	tok := token.Token{Type: token.COMPUTE, Literal: "COMPUTE", Line: 3, Column: 7}
	span := TokenSpan(tok)
	require.Equal(t, Span{Line: 3, Column: 7}, span)
}

func TestCommandSubIsIndependentlyAddressable(t *testing.T) {
	cmd := NewCommand("RECODE", Span{})
	cmd.Sub["TARGET"] = Value{Literal: "score"}
	require.Equal(t, "score", cmd.Sub["TARGET"].Literal)
}
