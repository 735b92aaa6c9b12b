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

// Package verify sweeps resolved layouts for behavioral equivalence.
//
// For every (feature preset, element kind, width) case it builds the
// hardware operation table and the constant-evaluation table of the same
// layout, feeds both random operands and compares every result bit for
// bit. It also poisons padding lanes and checks that no logical result
// changes, and checks exact reductions against a sequential fold.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/features"
)

// Check names reported in a Mismatch.
const (
	CheckTier    = "tier"
	CheckPadding = "padding"
	CheckReduce  = "reduce"
)

// DefaultWidths covers exact, padded, array and combined layouts on every
// preset.
var DefaultWidths = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 12, 15, 16, 17, 24, 31, 32, 33, 48, 63, 64}

// Options configures Run. The zero value sweeps every preset, kind and
// default width.
type Options struct {
	// Presets name the feature sets to sweep: profile names from
	// Profiles, preset names or comma lists of features.
	Presets  []string
	Profiles features.Profiles

	Kinds  []abi.Kind
	Widths []int

	// Trials is the number of random operand sets per case.
	Trials int
	Seed   uint64

	// Workers sizes the worker pool; <= 0 uses GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// Mismatch is one disagreement found by a sweep.
type Mismatch struct {
	Check   string
	Preset  string
	Kind    abi.Kind
	Variant string
	Op      string
	Lane    int
	Got     uint64
	Want    uint64
	Seed    uint64
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %s %s %s %s lane %d: got %#x, want %#x (seed %d)",
		m.Check, m.Preset, m.Kind, m.Variant, m.Op, m.Lane, m.Got, m.Want, m.Seed)
}

// Report summarizes a run.
type Report struct {
	// Cases counts the (case, trial) pairs checked.
	Cases int
	// Skipped counts widths beyond a preset's maximum.
	Skipped    int
	Mismatches []Mismatch
}

// OK reports whether no mismatch was found.
func (r *Report) OK() bool { return len(r.Mismatches) == 0 }

func (r *Report) merge(o *Report) {
	r.Cases += o.Cases
	r.Skipped += o.Skipped
	r.Mismatches = append(r.Mismatches, o.Mismatches...)
}

type namedSet struct {
	name string
	set  features.Set
}

func (o Options) normalize() (Options, []namedSet, error) {
	if len(o.Presets) == 0 {
		o.Presets = features.PresetNames()
		if len(o.Profiles) > 0 {
			o.Presets = o.Profiles.Names()
		}
	}
	if len(o.Kinds) == 0 {
		o.Kinds = abi.AllKinds()
	}
	if len(o.Widths) == 0 {
		o.Widths = DefaultWidths
	}
	if o.Trials <= 0 {
		o.Trials = 4
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	sets := make([]namedSet, 0, len(o.Presets))
	for _, p := range o.Presets {
		s, err := o.Profiles.Lookup(p)
		if err != nil {
			return o, nil, errors.Wrapf(err, "preset %q", p)
		}
		sets = append(sets, namedSet{name: p, set: s})
	}
	for _, n := range o.Widths {
		if n < 1 {
			return o, nil, errors.Wrapf(abi.ErrInvalidWidth, "width %d", n)
		}
	}
	return o, sets, nil
}

// Run sweeps every configured case. Each element kind runs in its own
// goroutine, sharing one worker pool; the first internal error cancels the
// rest. Mismatches are not errors: they are collected in the report,
// sorted.
func Run(ctx context.Context, opts Options) (*Report, error) {
	opts, sets, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	log := opts.Logger

	pool := NewPool(opts.Workers)
	defer pool.Close()

	var mu sync.Mutex
	rep := &Report{}
	g, ctx := errgroup.WithContext(ctx)
	for _, k := range opts.Kinds {
		g.Go(func() error {
			r, err := runKind(ctx, pool, k, sets, opts)
			if err != nil {
				return errors.Wrapf(err, "verify %s", k)
			}
			log.Debug("kind verified", "kind", k, "cases", r.Cases, "skipped", r.Skipped, "mismatches", len(r.Mismatches))
			mu.Lock()
			rep.merge(r)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(rep.Mismatches, func(a, b Mismatch) int {
		return strings.Compare(a.String(), b.String())
	})
	log.Info("verify finished", "cases", rep.Cases, "skipped", rep.Skipped, "mismatches", len(rep.Mismatches))
	for _, m := range rep.Mismatches {
		log.Warn("mismatch", "check", m.Check, "preset", m.Preset, "kind", m.Kind, "variant", m.Variant, "op", m.Op, "lane", m.Lane)
	}
	return rep, nil
}

func runKind(ctx context.Context, pool *Pool, k abi.Kind, sets []namedSet, opts Options) (*Report, error) {
	switch k {
	case abi.Int8:
		return runCases[int8](ctx, pool, sets, opts)
	case abi.Uint8:
		return runCases[uint8](ctx, pool, sets, opts)
	case abi.Int16:
		return runCases[int16](ctx, pool, sets, opts)
	case abi.Uint16:
		return runCases[uint16](ctx, pool, sets, opts)
	case abi.Int32:
		return runCases[int32](ctx, pool, sets, opts)
	case abi.Uint32:
		return runCases[uint32](ctx, pool, sets, opts)
	case abi.Int64:
		return runCases[int64](ctx, pool, sets, opts)
	case abi.Uint64:
		return runCases[uint64](ctx, pool, sets, opts)
	case abi.Float32:
		return runCases[float32](ctx, pool, sets, opts)
	case abi.Float64:
		return runCases[float64](ctx, pool, sets, opts)
	}
	return nil, errors.Errorf("unsupported kind %s", k)
}

type testCase struct {
	preset string
	set    features.Set
	traits abi.Traits
}

func runCases[T abi.Lanes](ctx context.Context, pool *Pool, sets []namedSet, opts Options) (*Report, error) {
	k := abi.KindOf[T]()
	rep := &Report{}
	var cases []testCase
	for _, ns := range sets {
		for _, n := range opts.Widths {
			t, err := abi.TraitsFor(k, n, ns.set)
			if errors.Is(err, abi.ErrWidthTooLarge) {
				rep.Skipped++
				continue
			}
			if err != nil {
				return nil, errors.Wrapf(err, "%s width %d", ns.name, n)
			}
			cases = append(cases, testCase{preset: ns.name, set: ns.set, traits: t})
		}
	}

	var mu sync.Mutex
	err := pool.Each(ctx, len(cases)*opts.Trials, func(i int) error {
		c := cases[i/opts.Trials]
		seed := opts.Seed*0x9e3779b97f4a7c15 + uint64(k)<<32 + uint64(i)
		ms, err := checkCase[T](c, seed)
		if err != nil {
			return errors.Wrapf(err, "%s %s", c.preset, c.traits.Variant)
		}
		mu.Lock()
		rep.Mismatches = append(rep.Mismatches, ms...)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	rep.Cases = len(cases) * opts.Trials
	return rep, nil
}
