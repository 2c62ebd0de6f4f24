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

import errors "gopkg.in/src-d/go-errors.v1"

// Error kinds form the closed error taxonomy. Each Kind is
// constructed the way a typical Go error sentinel set is built
// (errors.NewKind("msg %s"), then .New(args...) at the raise site), via
// gopkg.in/src-d/go-errors.v1.
var (
	// ErrManifest covers a missing manifest file, malformed YAML, or a
	// missing required key.
	ErrManifest = errors.NewKind("manifest error: %s")

	// ErrParse covers lexer/parser failures. The format carries the
	// source span inline since *errors.Error formats with fmt.Sprintf.
	ErrParse = errors.NewKind("parse error at line %d, column %d: %s")

	// ErrLowering covers an AST construct with no IR representation.
	ErrLowering = errors.NewKind("lowering error: %s")

	// ErrValidation covers an IR invariant violated after optimization.
	// The operation id is included so the failure can be traced back to
	// the offending node in the topology dump.
	ErrValidation = errors.NewKind("validation error in operation %s: %s")

	// ErrCodegen covers an IR operation the current target cannot emit.
	ErrCodegen = errors.NewKind("codegen error in operation %s: %s")

	// ErrUnsupportedTarget covers an output.target value that is not
	// recognized.
	ErrUnsupportedTarget = errors.NewKind("unsupported target: %s")
)
