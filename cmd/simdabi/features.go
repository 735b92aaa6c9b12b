// Copyright 2025 go-highway Authors
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

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/features"
)

type hostReport struct {
	Arch     string         `yaml:"arch"`
	Vendor   string         `yaml:"vendor,omitempty"`
	Brand    string         `yaml:"brand,omitempty"`
	Detected features.Set   `yaml:"detected"`
	Features features.Set   `yaml:"features"`
	Source   string         `yaml:"source"`
	Warning  string         `yaml:"warning,omitempty"`
	MaxLanes map[string]int `yaml:"max_lanes"`
	Presets  []string       `yaml:"presets"`
}

func newFeaturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "Print the host CPU features and the selected feature set",
		Args:  cobra.NoArgs,
		RunE:  runFeatures,
	}
}

func runFeatures(cmd *cobra.Command, _ []string) error {
	name, set, err := featureSet(cmd)
	if err != nil {
		return err
	}
	cpu := features.HostCPU()
	rep := hostReport{
		Arch:     cpu.Arch,
		Vendor:   cpu.Vendor,
		Brand:    cpu.Brand,
		Detected: cpu.Detected,
		Features: set,
		Source:   cpu.Source,
		Warning:  cpu.Warning,
		MaxLanes: lo.SliceToMap(abi.AllKinds(), func(k abi.Kind) (string, int) {
			return k.String(), abi.MaxLanes(k, set)
		}),
		Presets: features.PresetNames(),
	}
	if name != "host" {
		rep.Source = "--preset " + name
	}
	newLogger(cmd).Debug("features", "arch", rep.Arch, "source", rep.Source, "set", set)

	out := cmd.OutOrStdout()
	if asYAML(cmd) {
		return writeYAML(out, rep)
	}
	fmt.Fprintf(out, "arch:      %s\n", rep.Arch)
	if rep.Vendor != "" {
		fmt.Fprintf(out, "vendor:    %s\n", rep.Vendor)
		fmt.Fprintf(out, "brand:     %s\n", rep.Brand)
	}
	fmt.Fprintf(out, "detected:  %s\n", rep.Detected)
	fmt.Fprintf(out, "features:  %s\n", set)
	fmt.Fprintf(out, "source:    %s\n", rep.Source)
	if rep.Warning != "" {
		fmt.Fprintf(out, "warning:   %s\n", rep.Warning)
	}
	lanes := lo.Map(abi.AllKinds(), func(k abi.Kind, _ int) string {
		return fmt.Sprintf("%s=%d", k, rep.MaxLanes[k.String()])
	})
	fmt.Fprintf(out, "max lanes: %s\n", strings.Join(lanes, " "))
	fmt.Fprintf(out, "presets:   %s\n", strings.Join(rep.Presets, ", "))
	return nil
}

func asYAML(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("yaml")
	return v
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encoding yaml")
	}
	return enc.Close()
}

func parseWidths(args []string) ([]int, error) {
	widths := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, errors.Wrapf(err, "width %q", a)
		}
		widths = append(widths, n)
	}
	return widths, nil
}
