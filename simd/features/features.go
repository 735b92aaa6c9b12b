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

// Package features describes the CPU capabilities that drive ABI resolution
// and kernel selection.
//
// A Set is an immutable snapshot of feature flags. The host snapshot is
// detected once during package initialization and never changes afterwards;
// other snapshots come from named presets, comma lists, or YAML profiles and
// are used to resolve layouts for a machine other than the one running.
package features

import (
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Feature is a single CPU capability flag.
type Feature uint8

const (
	// SSE is the original 128-bit float32 extension.
	SSE Feature = iota
	// SSE2 adds 128-bit integer and float64 lanes (x86-64 baseline).
	SSE2
	SSE3
	SSSE3
	// SSE41 adds blendv, roundps, pmulld and pminsd.
	SSE41
	// SSE42 adds the 64-bit signed compare pcmpgtq.
	SSE42
	POPCNT
	// AVX adds 256-bit float registers.
	AVX
	// AVX2 adds 256-bit integer operations and per-lane shifts.
	AVX2
	FMA
	// AVX512F is the AVX-512 foundation: 512-bit registers and k-masks.
	AVX512F
	AVX512CD
	// AVX512BW adds 8 and 16-bit lanes.
	AVX512BW
	// AVX512DQ adds vfpclass, 64-bit multiply and float64 conversions.
	AVX512DQ
	// AVX512VL makes the AVX-512 encodings available on 128 and 256-bit
	// registers.
	AVX512VL
	AVX512FP16
	// NEON is the 128/64-bit ARM vector extension (no float64 lanes on
	// 32-bit ARM).
	NEON
	// ASIMD is AArch64 Advanced SIMD: NEON plus float64 lanes and
	// across-vector reductions.
	ASIMD
	// ARMFP16 is half precision arithmetic on AArch64.
	ARMFP16
	// Altivec is the PowerPC VMX extension.
	Altivec
	// VSX adds float64 lanes on Power.
	VSX
	// POWER8 adds 64-bit integer lanes on Power.
	POWER8
	POWER9

	numFeatures
)

var featureNames = [numFeatures]string{
	SSE:        "sse",
	SSE2:       "sse2",
	SSE3:       "sse3",
	SSSE3:      "ssse3",
	SSE41:      "sse4.1",
	SSE42:      "sse4.2",
	POPCNT:     "popcnt",
	AVX:        "avx",
	AVX2:       "avx2",
	FMA:        "fma",
	AVX512F:    "avx512f",
	AVX512CD:   "avx512cd",
	AVX512BW:   "avx512bw",
	AVX512DQ:   "avx512dq",
	AVX512VL:   "avx512vl",
	AVX512FP16: "avx512fp16",
	NEON:       "neon",
	ASIMD:      "asimd",
	ARMFP16:    "fphp",
	Altivec:    "altivec",
	VSX:        "vsx",
	POWER8:     "power8",
	POWER9:     "power9",
}

// String returns the lower-case name of the feature.
func (f Feature) String() string {
	if f < numFeatures {
		return featureNames[f]
	}
	return "unknown"
}

// ErrUnknownFeature is returned when a feature or preset name is not
// recognized.
var ErrUnknownFeature = errors.New("unknown feature")

// ParseFeature looks up a feature by name. Names are case-insensitive and
// "sse41"/"sse42" are accepted for the dotted forms.
func ParseFeature(name string) (Feature, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "sse41":
		return SSE41, nil
	case "sse42":
		return SSE42, nil
	}
	for f, fn := range featureNames {
		if fn == n {
			return Feature(f), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownFeature, "%q", name)
}

// AllFeatures returns every known feature in declaration order.
func AllFeatures() []Feature {
	fs := make([]Feature, numFeatures)
	for i := range fs {
		fs[i] = Feature(i)
	}
	return fs
}

// Set is an immutable set of features. The zero value has no features and
// selects the scalar tier everywhere.
type Set uint64

// Of returns the set holding exactly fs, without implied features.
func Of(fs ...Feature) Set {
	var s Set
	for _, f := range fs {
		s |= 1 << f
	}
	return s
}

// Has reports whether f is in the set.
func (s Set) Has(f Feature) bool {
	return s&(1<<f) != 0
}

// HasAll reports whether every feature in fs is in the set.
func (s Set) HasAll(fs ...Feature) bool {
	return s&Of(fs...) == Of(fs...)
}

// HasAny reports whether at least one feature in fs is in the set.
func (s Set) HasAny(fs ...Feature) bool {
	return s&Of(fs...) != 0
}

// With returns the set with fs added.
func (s Set) With(fs ...Feature) Set {
	return s | Of(fs...)
}

// Without returns the set with fs removed.
func (s Set) Without(fs ...Feature) Set {
	return s &^ Of(fs...)
}

// IsEmpty reports whether the set has no features.
func (s Set) IsEmpty() bool {
	return s == 0
}

// implies lists the features every CPU with the key feature also has.
var implies = map[Feature][]Feature{
	SSE2:       {SSE},
	SSE3:       {SSE2},
	SSSE3:      {SSE3},
	SSE41:      {SSSE3},
	SSE42:      {SSE41},
	AVX:        {SSE42},
	AVX2:       {AVX},
	FMA:        {AVX},
	AVX512F:    {AVX2, FMA},
	AVX512CD:   {AVX512F},
	AVX512BW:   {AVX512F},
	AVX512DQ:   {AVX512F},
	AVX512VL:   {AVX512F},
	AVX512FP16: {AVX512BW},
	ASIMD:      {NEON},
	ARMFP16:    {ASIMD},
	VSX:        {Altivec},
	POWER8:     {VSX},
	POWER9:     {POWER8},
}

// Normalize adds every implied feature, so that for instance a set holding
// AVX2 also holds AVX and SSE2.
func (s Set) Normalize() Set {
	for {
		next := s
		for f, deps := range implies {
			if next.Has(f) {
				next = next.With(deps...)
			}
		}
		if next == s {
			return s
		}
		s = next
	}
}

// Features returns the members in declaration order.
func (s Set) Features() []Feature {
	return lo.Filter(AllFeatures(), func(f Feature, _ int) bool {
		return s.Has(f)
	})
}

// Names returns the member names in declaration order.
func (s Set) Names() []string {
	return lo.Map(s.Features(), func(f Feature, _ int) string {
		return f.String()
	})
}

// String renders the set as a comma list, or "none" when empty.
func (s Set) String() string {
	if s == 0 {
		return "none"
	}
	return strings.Join(s.Names(), ",")
}

var presets = map[string]Set{
	"scalar":      0,
	"sse2":        Of(SSE2).Normalize(),
	"sse4":        Of(SSE42, POPCNT).Normalize(),
	"avx":         Of(AVX, POPCNT).Normalize(),
	"avx2":        Of(AVX2, FMA, POPCNT).Normalize(),
	"avx512":      Of(AVX512F, AVX512CD, AVX512BW, AVX512DQ, AVX512VL, POPCNT).Normalize(),
	"avx512-novl": Of(AVX512F, AVX512CD, AVX512BW, AVX512DQ, POPCNT).Normalize(),
	"avx512-knl":  Of(AVX512F, AVX512CD, POPCNT).Normalize(),
	"neon":        Of(NEON),
	"asimd":       Of(ASIMD).Normalize(),
	"altivec":     Of(Altivec),
	"vsx":         Of(VSX).Normalize(),
	"power8":      Of(POWER8).Normalize(),
}

// Preset returns a named feature set.
func Preset(name string) (Set, bool) {
	s, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// PresetNames returns the preset names, sorted.
func PresetNames() []string {
	names := lo.Keys(presets)
	slices.Sort(names)
	return names
}

// ParseSet parses either a preset name or a comma separated list of
// feature and preset names. The result is normalized.
func ParseSet(list string) (Set, error) {
	var s Set
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if p, ok := Preset(part); ok {
			s |= p
			continue
		}
		f, err := ParseFeature(part)
		if err != nil {
			return 0, errors.Wrap(err, "parsing feature list")
		}
		s = s.With(f)
	}
	return s.Normalize(), nil
}

// CPU describes the host.
type CPU struct {
	// Arch is runtime.GOARCH.
	Arch string
	// Vendor and Brand come from CPUID on x86 and are empty elsewhere.
	Vendor string
	Brand  string
	// Detected is the set reported by the hardware.
	Detected Set
	// Features is the set in effect after environment overrides.
	Features Set
	// Source names where Features came from: "detected", "GOSIMD_NO_SIMD"
	// or "GOSIMD_FEATURES".
	Source string
	// Warning is set when an environment override was present but invalid.
	Warning string
}

var host CPU

func init() {
	host = detect()
	host.Detected = host.Detected.Normalize()
	host.Features = host.Detected
	host.Source = "detected"

	if NoSimdEnv() {
		host.Features = 0
		host.Source = "GOSIMD_NO_SIMD"
		return
	}
	if val := os.Getenv("GOSIMD_FEATURES"); val != "" {
		s, err := ParseSet(val)
		if err != nil {
			host.Warning = "ignoring GOSIMD_FEATURES: " + err.Error()
			return
		}
		host.Features = s
		host.Source = "GOSIMD_FEATURES"
	}
}

// Host returns the feature snapshot of the running machine, after
// environment overrides.
func Host() Set {
	return host.Features
}

// HostCPU returns the full host description.
func HostCPU() CPU {
	return host
}

// NoSimdEnv checks if the GOSIMD_NO_SIMD environment variable is set.
// When set, Host() is empty and every shape resolves to scalar storage.
func NoSimdEnv() bool {
	val := os.Getenv("GOSIMD_NO_SIMD")
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}
