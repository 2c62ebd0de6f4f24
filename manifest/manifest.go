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

// Package manifest loads the YAML build manifest that points the driver at
// a source script and describes the desired output, grounded in the
// teacher's use of gopkg.in/yaml.v2 for its own config loading.
package manifest

import (
	"io/ioutil"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/magicspik3/etlc/ir"
)

// defaultOutputPath is used when output.path is omitted from the manifest
// defaults.
const defaultOutputPath = "dist/pipeline.R"

// defaultTarget is used when output.target is omitted.
const defaultTarget = "r_script"

// Output describes where and in what form the generated script is written.
type Output struct {
	Path   string `yaml:"path"`
	Target string `yaml:"target"`
}

// Inputs names the manifest's source scripts. primary_logic is the only
// recognized input today; unrecognized sibling keys are ignored by
// yaml.Unmarshal without complaint, the same permissive-top-level-key
// policy the manifest format document specifies.
type Inputs struct {
	PrimaryLogic string `yaml:"primary_logic"`
}

// Manifest is the top-level YAML document read from a build manifest.
type Manifest struct {
	Project string            `yaml:"project"`
	Inputs  Inputs            `yaml:"inputs"`
	Output  Output            `yaml:"output"`
	Meta    map[string]string `yaml:"meta"`

	// Source is the resolved, base-dir-joined absolute-or-relative path to
	// the script named by inputs.primary_logic, computed by Load.
	Source string `yaml:"-"`
}

// Load reads and parses the manifest at path, applying defaults.
func Load(path string) (*Manifest, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, ir.ErrManifest.New(err.Error())
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, ir.ErrManifest.New(err.Error())
	}
	if m.Inputs.PrimaryLogic == "" {
		return nil, ir.ErrManifest.New("missing required key \"inputs.primary_logic\"")
	}
	if m.Output.Path == "" {
		m.Output.Path = defaultOutputPath
	}
	if m.Output.Target == "" {
		m.Output.Target = defaultTarget
	}
	base := filepath.Dir(path)
	m.Source = m.Inputs.PrimaryLogic
	if !filepath.IsAbs(m.Source) {
		m.Source = filepath.Join(base, m.Source)
	}
	return &m, nil
}

// Metadata converts the manifest's free-form meta block plus its project
// name into ir.Metadata, carried unchanged through every optimizer pass.
func (m *Manifest) Metadata() ir.Metadata {
	meta := ir.Metadata{"project": m.Project}
	for k, v := range m.Meta {
		meta[k] = v
	}
	return meta
}
