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

// Package driver orchestrates a full build: load manifest, parse source,
// build the raw IR, optimize it, generate R, and write the result to disk.
package driver

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/magicspik3/etlc/codegen"
	"github.com/magicspik3/etlc/graphbuilder"
	"github.com/magicspik3/etlc/ir"
	"github.com/magicspik3/etlc/manifest"
	"github.com/magicspik3/etlc/optimizer"
	"github.com/magicspik3/etlc/parser"
)

// verificationSubdir is the artifact-directory name for the topology dumps
// and external-verifier logs, created inside the generated script's own
// output directory (dist/verification for the default dist/pipeline.R).
const verificationSubdir = "verification"

// Driver runs a full manifest-to-script build.
type Driver struct {
	Log *logrus.Logger
}

// New creates a Driver logging to the standard logrus logger.
func New() *Driver {
	return &Driver{Log: logrus.StandardLogger()}
}

// Result carries the artifacts of a successful Build.
type Result struct {
	Pipeline *ir.Pipeline
	Script   string
	Written  string
}

// BuildPath accepts either a build manifest (.yaml/.yml) or a bare source
// script, sniffed by file extension: a bare script is compiled with every
// manifest default (dist/pipeline.R, target r_script) and no project
// metadata.
func (d *Driver) BuildPath(path string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return d.Build(path)
	}
	return d.buildFromManifest(&manifest.Manifest{
		Source: path,
		Output: manifest.Output{Path: "dist/pipeline.R", Target: "r_script"},
	})
}

// Build reads the manifest at manifestPath, compiles its source script, and
// writes the generated R to the manifest's configured output path.
func (d *Driver) Build(manifestPath string) (*Result, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	return d.buildFromManifest(m)
}

func (d *Driver) buildFromManifest(m *manifest.Manifest) (*Result, error) {
	d.Log.WithField("source", m.Source).Info("reading source script")

	src, err := ioutil.ReadFile(m.Source)
	if err != nil {
		return nil, ir.ErrManifest.New(err.Error())
	}

	if m.Output.Target != "r_script" {
		return nil, ir.ErrUnsupportedTarget.New(m.Output.Target)
	}

	verificationDir := filepath.Join(filepath.Dir(m.Output.Path), verificationSubdir)

	d.Log.WithField("source", m.Source).Info("source verification (pspp)")
	d.runVerifier("pspp", []string{"--version"}, filepath.Join(verificationDir, "01_source_verification.txt"))

	cmds, err := parser.ParseProgram(string(src))
	if err != nil {
		return nil, err
	}

	raw, err := graphbuilder.Build(cmds)
	if err != nil {
		return nil, err
	}
	raw.Metadata = m.Metadata()
	d.dumpTopology(raw, filepath.Join(verificationDir, "02_raw_topology.yaml"))

	optimized, err := optimizer.NewCoordinator().Optimize(raw)
	if err != nil {
		return nil, err
	}
	d.dumpTopology(optimized, filepath.Join(verificationDir, "03_optimized_topology.yaml"))

	script, err := codegen.Generate(optimized)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(m.Output.Path), 0o755); err != nil {
		return nil, err
	}
	if err := ioutil.WriteFile(m.Output.Path, []byte(script), 0o644); err != nil {
		return nil, err
	}
	d.Log.WithField("path", m.Output.Path).Info("wrote generated script")

	d.writeArtifact(filepath.Join(verificationDir, "04_generated_code.R"), script)

	d.verify(m.Output.Path, verificationDir)

	return &Result{Pipeline: optimized, Script: script, Written: m.Output.Path}, nil
}

// dumpTopology writes a human-readable dump of p to path, one
// Operation:/Type:/Inputs:/Outputs:/Params: block per operation, for the
// topology-inspection artifacts the driver produces alongside the
// generated script. Failure to write is logged, never returned: these
// artifacts are for human inspection, not a build dependency.
func (d *Driver) dumpTopology(p *ir.Pipeline, path string) {
	var b strings.Builder
	for _, op := range p.Operations {
		fmt.Fprintf(&b, "Operation: %s\n", op.ID)
		fmt.Fprintf(&b, "  Type:    %s\n", op.Kind)
		fmt.Fprintf(&b, "  Inputs:  %s\n", formatNames(op.Inputs))
		fmt.Fprintf(&b, "  Outputs: %s\n", formatNames(op.Outputs))
		fmt.Fprintf(&b, "  Params:  %s\n", formatParams(op.Params))
	}
	d.writeArtifact(path, b.String())
}

func formatNames(names []string) string {
	return "[" + strings.Join(names, ", ") + "]"
}

// formatParams renders an operation's Params as {field: value, ...},
// reflecting over its exported fields so every Params type (and any the
// optimizer or graphbuilder adds later) picks up a dump for free.
func formatParams(p ir.Params) string {
	if p == nil {
		return "{}"
	}
	v := reflect.ValueOf(p)
	t := v.Type()
	parts := make([]string, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", field.Name, v.Field(i).Interface()))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (d *Driver) writeArtifact(path, content string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		d.Log.WithError(err).WithField("path", path).Warn("failed to create verification artifact directory")
		return
	}
	if err := ioutil.WriteFile(path, []byte(content), 0o644); err != nil {
		d.Log.WithError(err).WithField("path", path).Warn("failed to write verification artifact")
	}
}

// verify shells out to Rscript to sanity-check that the generated script at
// least parses as valid R, capturing its output into the target
// verification artifact. Failure is logged, never returned as a build
// error: Rscript may not be installed on the machine running etlc, and a
// missing verifier shouldn't block an otherwise successful build.
func (d *Driver) verify(path, verificationDir string) {
	d.runVerifier("Rscript", []string{"--vanilla", "-e", "parse(file=\"" + path + "\")"}, filepath.Join(verificationDir, "05_target_verification.txt"))
}

// runVerifier shells out to an external verifier binary, writes its
// combined output to artifactPath, and logs a warning on failure. Neither
// a missing binary nor a non-zero exit is ever surfaced as a build error.
func (d *Driver) runVerifier(name string, args []string, artifactPath string) {
	cmd := exec.Command(name, args...)
	out, err := cmd.CombinedOutput()
	d.writeArtifact(artifactPath, string(out))
	if err != nil {
		d.Log.WithError(err).WithField("verifier", name).Warn("external verification failed or unavailable")
		return
	}
	d.Log.WithField("verifier", name).Info("external verification passed")
}
