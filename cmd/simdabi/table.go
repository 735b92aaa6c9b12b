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
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/features"
	"github.com/ajroetker/go-stdsimd/simd/ops"
)

type tableReport struct {
	Kind     string           `yaml:"kind"`
	Width    int              `yaml:"width"`
	Variant  string           `yaml:"variant"`
	Features string           `yaml:"features"`
	Kernels  []ops.KernelInfo `yaml:"kernels"`
}

func newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table <kind> <width>",
		Short: "Print the kernel bound to every operation",
		Long: `Table lists, for one shape, the kernel each operation runs. Kernels
named "generic" run the per-lane tier; the rest name the instruction
sequence they model.`,
		Args: cobra.ExactArgs(2),
		RunE: runTable,
	}
	cmd.Flags().Bool("hw-only", false, "Hide operations bound to the generic tier")
	return cmd
}

func runTable(cmd *cobra.Command, args []string) error {
	kind, err := abi.ParseKind(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return errors.Wrapf(err, "width %q", args[1])
	}
	name, set, err := featureSet(cmd)
	if err != nil {
		return err
	}
	t, kernels, err := kernelTable(kind, n, set)
	if err != nil {
		return errors.Wrapf(err, "%s x %d on %s", kind, n, name)
	}
	if hwOnly, _ := cmd.Flags().GetBool("hw-only"); hwOnly {
		kernels = lo.Reject(kernels, func(k ops.KernelInfo, _ int) bool { return k.Kernel == "generic" || k.Kernel == "scalar" })
	}
	newLogger(cmd).Debug("kernel table", "kind", kind, "width", n, "variant", t.Variant, "ops", len(kernels))

	rep := tableReport{Kind: kind.String(), Width: n, Variant: t.Variant.String(), Features: name, Kernels: kernels}
	out := cmd.OutOrStdout()
	if asYAML(cmd) {
		return writeYAML(out, rep)
	}
	fmt.Fprintf(out, "%s x %d on %s: %s\n", rep.Kind, rep.Width, rep.Features, rep.Variant)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OP\tKERNEL")
	for _, k := range kernels {
		fmt.Fprintf(tw, "%s\t%s\n", k.Op, k.Kernel)
	}
	return tw.Flush()
}

func kernelTable(k abi.Kind, n int, s features.Set) (abi.Traits, []ops.KernelInfo, error) {
	switch k {
	case abi.Int8:
		return kernelsOf[int8](n, s)
	case abi.Uint8:
		return kernelsOf[uint8](n, s)
	case abi.Int16:
		return kernelsOf[int16](n, s)
	case abi.Uint16:
		return kernelsOf[uint16](n, s)
	case abi.Int32:
		return kernelsOf[int32](n, s)
	case abi.Uint32:
		return kernelsOf[uint32](n, s)
	case abi.Int64:
		return kernelsOf[int64](n, s)
	case abi.Uint64:
		return kernelsOf[uint64](n, s)
	case abi.Float32:
		return kernelsOf[float32](n, s)
	case abi.Float64:
		return kernelsOf[float64](n, s)
	}
	return abi.Traits{}, nil, errors.Errorf("unsupported kind %s", k)
}

func kernelsOf[T abi.Lanes](n int, s features.Set) (abi.Traits, []ops.KernelInfo, error) {
	impl, err := ops.For[T](n, s)
	if err != nil {
		return abi.Traits{}, nil, err
	}
	return impl.Traits(), impl.Kernels(), nil
}
