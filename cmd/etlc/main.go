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

// Command etlc compiles SPSS-like statistical scripts into tidyverse R
// pipelines.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/magicspik3/etlc/driver"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "build":
		runBuild(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "etlc: unrecognized command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: etlc build --manifest <path>")
	fmt.Fprintln(os.Stderr, "       etlc build <manifest.yaml | script.sps>")
}

func runBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	manifestPath := fs.String("manifest", "", "path to the build manifest (YAML)")
	verbose := fs.Bool("v", false, "enable debug logging")
	fs.Parse(args)

	path := *manifestPath
	if path == "" {
		if rest := fs.Args(); len(rest) > 0 {
			path = rest[0]
		}
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "etlc build: a manifest or script path is required")
		usage()
		os.Exit(2)
	}

	d := driver.New()
	if *verbose {
		d.Log.SetLevel(logrus.DebugLevel)
	}

	result, err := d.BuildPath(path)
	if err != nil {
		d.Log.WithError(err).Error("build failed")
		os.Exit(1)
	}

	fmt.Printf("wrote %s (%d operations)\n", result.Written, len(result.Pipeline.Operations))
}
