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

// Command simdabi inspects how vector shapes resolve to storage and which
// kernels they bind, and runs the tier-equivalence sweep.
//
// Usage:
//
//	simdabi features
//	simdabi resolve float32 1 3 8 17 --preset avx2
//	simdabi table int16 12 --preset neon
//	simdabi verify --sets avx512,neon --kinds int8,float32
//
// Feature sets are preset names, comma lists of features, or profile
// names from the YAML file given with --profile.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-stdsimd/simd/features"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "simdabi",
		Short:         "Inspect SIMD shape resolution and kernel tables",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("preset", "", "Feature set: preset name or comma list (empty = host)")
	rootCmd.PersistentFlags().String("profile", os.Getenv("GOSIMD_PROFILE"), "YAML file of named feature profiles")
	rootCmd.PersistentFlags().Bool("yaml", false, "Print YAML instead of text")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug messages")

	rootCmd.AddCommand(newFeaturesCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newTableCmd())
	rootCmd.AddCommand(newVerifyCmd())
	return rootCmd
}

// newLogger writes text logs to the command's error stream.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// featureSet resolves --preset against --profile, defaulting to the host.
func featureSet(cmd *cobra.Command) (string, features.Set, error) {
	preset, _ := cmd.Flags().GetString("preset")
	profile, _ := cmd.Flags().GetString("profile")
	if preset == "" {
		return "host", features.Host(), nil
	}
	if profile == "" {
		s, err := features.ParseSet(preset)
		return preset, s, err
	}
	ps, err := features.LoadProfileFile(profile)
	if err != nil {
		return "", 0, err
	}
	s, err := ps.Lookup(preset)
	return preset, s, err
}
