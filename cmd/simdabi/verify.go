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

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/features"
	"github.com/ajroetker/go-stdsimd/simd/verify"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check hardware kernels against constant evaluation",
		Long: `Verify runs the randomized sweep: for every feature set, element kind and
width it compares each operation of the hardware table with the per-lane
table, checks that padding lanes never leak and that exact reductions
match a sequential fold. It exits non-zero on any mismatch.`,
		Args: cobra.NoArgs,
		RunE: runVerify,
	}
	cmd.Flags().StringSlice("sets", nil, "Feature sets to sweep: preset or profile names (default all)")
	cmd.Flags().StringSlice("kinds", nil, "Element kinds (default all)")
	cmd.Flags().IntSlice("widths", nil, "Widths (default a spread from 1 to 64)")
	cmd.Flags().Int("trials", 4, "Random operand sets per case")
	cmd.Flags().Uint64("seed", 1, "Random seed")
	cmd.Flags().Int("workers", 0, "Worker goroutines (0 = GOMAXPROCS)")
	return cmd
}

func runVerify(cmd *cobra.Command, _ []string) error {
	opts := verify.Options{Logger: newLogger(cmd)}
	opts.Presets, _ = cmd.Flags().GetStringSlice("sets")
	opts.Widths, _ = cmd.Flags().GetIntSlice("widths")
	opts.Trials, _ = cmd.Flags().GetInt("trials")
	opts.Seed, _ = cmd.Flags().GetUint64("seed")
	opts.Workers, _ = cmd.Flags().GetInt("workers")

	kinds, _ := cmd.Flags().GetStringSlice("kinds")
	for _, name := range kinds {
		k, err := abi.ParseKind(name)
		if err != nil {
			return err
		}
		opts.Kinds = append(opts.Kinds, k)
	}
	if profile, _ := cmd.Flags().GetString("profile"); profile != "" {
		ps, err := features.LoadProfileFile(profile)
		if err != nil {
			return err
		}
		opts.Profiles = ps
	}

	rep, err := verify.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, m := range rep.Mismatches {
		fmt.Fprintln(out, m)
	}
	fmt.Fprintf(out, "%d cases, %d skipped, %d mismatches\n", rep.Cases, rep.Skipped, len(rep.Mismatches))
	if !rep.OK() {
		return errors.Errorf("%d mismatches", len(rep.Mismatches))
	}
	return nil
}
