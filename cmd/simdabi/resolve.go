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
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-stdsimd/simd/abi"
)

type chunkReport struct {
	Variant    string `yaml:"variant"`
	Offset     int    `yaml:"offset"`
	PhysOffset int    `yaml:"phys_offset"`
	Size       int    `yaml:"size"`
	FullSize   int    `yaml:"full_size"`
	Bytes      int    `yaml:"bytes"`
	Mask       string `yaml:"mask"`
}

type traitsReport struct {
	Width        int           `yaml:"width"`
	Variant      string        `yaml:"variant"`
	FullSize     int           `yaml:"full_size"`
	Partial      bool          `yaml:"partial"`
	StorageBytes int           `yaml:"storage_bytes"`
	Alignment    int           `yaml:"alignment"`
	Mask         string        `yaml:"mask"`
	MaskBytes    int           `yaml:"mask_bytes"`
	Chunks       []chunkReport `yaml:"chunks"`
}

type resolveReport struct {
	Kind     string         `yaml:"kind"`
	Features string         `yaml:"features"`
	MaxWidth int            `yaml:"max_width"`
	Shapes   []traitsReport `yaml:"shapes"`
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <kind> <width>...",
		Short: "Resolve vector widths to storage layouts",
		Long: `Resolve prints the layout chosen for each width: the variant, padding,
storage size and alignment, mask representation and register chunks.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runResolve,
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	kind, err := abi.ParseKind(args[0])
	if err != nil {
		return err
	}
	widths, err := parseWidths(args[1:])
	if err != nil {
		return err
	}
	name, set, err := featureSet(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd)

	rep := resolveReport{Kind: kind.String(), Features: name, MaxWidth: abi.MaxWidth(kind, set)}
	for _, n := range widths {
		t, err := abi.TraitsFor(kind, n, set)
		if err != nil {
			return errors.Wrapf(err, "%s x %d on %s", kind, n, name)
		}
		log.Debug("resolved", "kind", kind, "width", n, "variant", t.Variant)
		rep.Shapes = append(rep.Shapes, traitsReport{
			Width:        n,
			Variant:      t.Variant.String(),
			FullSize:     t.FullSize,
			Partial:      t.IsPartial,
			StorageBytes: t.StorageBytes,
			Alignment:    t.Alignment,
			Mask:         t.MaskRepr.String(),
			MaskBytes:    t.MaskBytes,
			Chunks: lo.Map(t.Chunks, func(c abi.ChunkInfo, _ int) chunkReport {
				return chunkReport{
					Variant:    c.Variant.String(),
					Offset:     c.Offset,
					PhysOffset: c.PhysOffset,
					Size:       c.Size,
					FullSize:   c.FullSize,
					Bytes:      c.Bytes,
					Mask:       c.Mask.String(),
				}
			}),
		})
	}

	out := cmd.OutOrStdout()
	if asYAML(cmd) {
		return writeYAML(out, rep)
	}
	fmt.Fprintf(out, "%s on %s (max width %d)\n", rep.Kind, rep.Features, rep.MaxWidth)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "N\tVARIANT\tFULL\tBYTES\tALIGN\tMASK\tCHUNKS")
	for _, s := range rep.Shapes {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s/%d\t%d\n",
			s.Width, s.Variant, s.FullSize, s.StorageBytes, s.Alignment, s.Mask, s.MaskBytes, len(s.Chunks))
	}
	return tw.Flush()
}
