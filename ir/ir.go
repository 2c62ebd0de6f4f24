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

// Package ir defines the central intermediate representation for etlc: the
// Pipeline value (metadata + datasets + operations) that flows unchanged in
// shape from the Graph Builder through the Optimization Coordinator to the
// Code Generator.
package ir

// ColumnType is the gross type of a column: numeric or character. Numeric
// precision (F8.2 vs F8.0) is tracked but never validated on.
type ColumnType int

const (
	TypeNumeric ColumnType = iota
	TypeString
)

func (t ColumnType) String() string {
	if t == TypeString {
		return "character"
	}
	return "numeric"
}

// Column is one entry of a Dataset's schema.
type Column struct {
	Name      string
	Type      ColumnType
	Width     int // character width (A10 -> 10) or numeric display width (F8.x -> 8)
	Precision int // numeric decimal places (F8.2 -> 2), 0 if not applicable
}

// Schema is an ordered list of columns.
type Schema []Column

// Has reports whether name is present in the schema.
func (s Schema) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Get returns the column named name, if present.
func (s Schema) Get(name string) (Column, bool) {
	for _, c := range s {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Clone returns an independent copy of the schema.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	out := make(Schema, len(s))
	copy(out, s)
	return out
}

// With returns a new schema with col appended, or replacing the existing
// column of the same name in place if one already exists -- the way a
// COMPUTE, RECODE, LAG, or STRING_DECL target either adds a fresh column
// or redefines one carried from an earlier step.
func (s Schema) With(col Column) Schema {
	out := s.Clone()
	for i, c := range out {
		if c.Name == col.Name {
			out[i] = col
			return out
		}
	}
	return append(out, col)
}

// Union returns a schema containing every column of s followed by every
// column of other not already present in s, the way MATCH_FILES combines
// the schemas of its joined datasets.
func (s Schema) Union(other Schema) Schema {
	if s == nil && other == nil {
		return nil
	}
	out := s.Clone()
	for _, c := range other {
		if !out.Has(c.Name) {
			out = append(out, c)
		}
	}
	return out
}

// Dataset is a named, typed table declared by a LOAD operation and
// referenced by name from downstream operations.
type Dataset struct {
	Name   string
	Schema Schema
}

// OpKind is the closed set of recognized operation kinds.
type OpKind string

const (
	LoadCSV        OpKind = "LOAD_CSV"
	LoadSav        OpKind = "LOAD_SAV"
	SaveCSV        OpKind = "SAVE_CSV"
	SaveSav        OpKind = "SAVE_SAV"
	Compute        OpKind = "COMPUTE"
	Recode         OpKind = "RECODE"
	SelectIf       OpKind = "SELECT_IF"
	Sort           OpKind = "SORT"
	MissingValues  OpKind = "MISSING_VALUES"
	Lag            OpKind = "LAG"
	Aggregate      OpKind = "AGGREGATE"
	MatchFiles     OpKind = "MATCH_FILES"
	StringDeclKind OpKind = "STRING_DECL"
)

// Params is the marker interface implemented by each operation kind's
// parameter struct (ir/params.go). Modeling parameters this way, rather
// than as a free-form map, pushes "unknown parameter" bugs to compile time.
type Params interface {
	// Clone returns a copy whose slices and maps are independent of the
	// original's, so that passes never share mutable parameter state with
	// the Pipeline they were derived from. Expression trees are shared, not
	// copied; no pass modifies one in place.
	Clone() Params
}

// Operation is one node of the IR: a single dataflow step.
type Operation struct {
	ID      string
	Kind    OpKind
	Inputs  []string
	Outputs []string
	Params  Params

	// Schema is the Graph Builder's best-effort schema for this
	// operation's first output, after this operation's effect. Nil means
	// "unknown" (e.g. downstream of a LOAD_SAV, whose columns aren't
	// discoverable without reading the binary file), in which case the
	// Validator skips column-existence checks for readers of this output.
	Schema Schema
}

// Clone returns an independent copy of the Operation.
func (o Operation) Clone() Operation {
	out := o
	out.Inputs = append([]string(nil), o.Inputs...)
	out.Outputs = append([]string(nil), o.Outputs...)
	out.Schema = o.Schema.Clone()
	if o.Params != nil {
		out.Params = o.Params.Clone()
	}
	return out
}

// Metadata is a free-form mapping of project/build metadata, propagated
// unchanged through every pass.
type Metadata map[string]interface{}

// Clone returns an independent shallow copy of the metadata map.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Pipeline is the root IR value: metadata + datasets + operations, in
// topological (execution) order.
type Pipeline struct {
	Metadata   Metadata
	Datasets   []Dataset
	Operations []Operation
}

// Clone returns a new Pipeline with independently-owned slices and
// parameter structs, so that a pass can build its output by copying and
// modifying without mutating the Pipeline it was given.
func (p *Pipeline) Clone() *Pipeline {
	out := &Pipeline{Metadata: p.Metadata.Clone()}
	out.Datasets = append([]Dataset(nil), p.Datasets...)
	out.Operations = make([]Operation, len(p.Operations))
	for i, op := range p.Operations {
		out.Operations[i] = op.Clone()
	}
	return out
}

// FindOperation returns the operation with the given ID, if any.
func (p *Pipeline) FindOperation(id string) (Operation, bool) {
	for _, op := range p.Operations {
		if op.ID == id {
			return op, true
		}
	}
	return Operation{}, false
}

// ProducerOf returns the operation whose Outputs contains dataset, if any.
func (p *Pipeline) ProducerOf(dataset string) (Operation, bool) {
	for _, op := range p.Operations {
		for _, out := range op.Outputs {
			if out == dataset {
				return op, true
			}
		}
	}
	return Operation{}, false
}

// HasDataset reports whether name is a declared input Dataset.
func (p *Pipeline) HasDataset(name string) bool {
	for _, d := range p.Datasets {
		if d.Name == name {
			return true
		}
	}
	return false
}
