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

package features

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNormalize(t *testing.T) {
	s := Of(AVX2).Normalize()
	for _, f := range []Feature{SSE, SSE2, SSE3, SSSE3, SSE41, SSE42, AVX, AVX2} {
		assert.True(t, s.Has(f), "avx2 should imply %s", f)
	}
	assert.False(t, s.Has(FMA))
	assert.False(t, s.Has(AVX512F))

	s = Of(AVX512VL).Normalize()
	assert.True(t, s.HasAll(AVX512F, AVX2, FMA, SSE2))
	assert.False(t, s.Has(AVX512BW))

	assert.Equal(t, Of(POWER9).Normalize(), Of(Altivec, VSX, POWER8, POWER9))
	assert.Equal(t, Of(ARMFP16).Normalize(), Of(NEON, ASIMD, ARMFP16))
}

func TestPresets(t *testing.T) {
	tests := []struct {
		name string
		has  []Feature
		not  []Feature
	}{
		{"scalar", nil, []Feature{SSE, NEON, Altivec}},
		{"sse2", []Feature{SSE, SSE2}, []Feature{SSE41, AVX}},
		{"avx2", []Feature{AVX, AVX2, FMA, SSE42}, []Feature{AVX512F}},
		{"avx512", []Feature{AVX512F, AVX512BW, AVX512DQ, AVX512VL, AVX2}, nil},
		{"avx512-novl", []Feature{AVX512F, AVX512BW}, []Feature{AVX512VL}},
		{"avx512-knl", []Feature{AVX512F, AVX512CD}, []Feature{AVX512BW, AVX512VL}},
		{"neon", []Feature{NEON}, []Feature{ASIMD}},
		{"asimd", []Feature{NEON, ASIMD}, nil},
		{"power8", []Feature{Altivec, VSX, POWER8}, []Feature{POWER9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := Preset(tt.name)
			require.True(t, ok)
			assert.Equal(t, s, s.Normalize(), "presets are normalized")
			for _, f := range tt.has {
				assert.True(t, s.Has(f), "missing %s", f)
			}
			for _, f := range tt.not {
				assert.False(t, s.Has(f), "unexpected %s", f)
			}
		})
	}
	assert.Contains(t, PresetNames(), "avx512-novl")
}

func TestParseSet(t *testing.T) {
	s, err := ParseSet("sse4.2, popcnt")
	require.NoError(t, err)
	assert.True(t, s.HasAll(SSE2, SSE41, SSE42, POPCNT))

	s, err = ParseSet("avx2,avx512bw")
	require.NoError(t, err)
	assert.True(t, s.HasAll(AVX512F, AVX512BW, FMA))

	s, err = ParseSet("SSE42")
	require.NoError(t, err)
	assert.True(t, s.Has(SSE42))

	s, err = ParseSet("")
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())

	_, err = ParseSet("sse2,mmx")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFeature)
	assert.Contains(t, err.Error(), `"mmx"`)
}

func TestSetString(t *testing.T) {
	assert.Equal(t, "none", Set(0).String())
	assert.Equal(t, "sse,sse2", Of(SSE2).Normalize().String())
	assert.Equal(t, []string{"neon", "asimd"}, Of(ASIMD).Normalize().Names())
}

func TestDrop(t *testing.T) {
	s, _ := Preset("avx512")
	d := s.Drop(AVX2)
	assert.False(t, d.HasAny(AVX2, AVX512F, AVX512BW, AVX512VL))
	assert.True(t, d.HasAll(AVX, SSE42))
	assert.Equal(t, d, d.Normalize())
}

const profileDoc = `
profiles:
  - name: skylake-x
    base: avx512
  - name: haswell-nofma
    base: avx2
    exclude: [fma]
  - name: custom
    features: [sse4.2, popcnt]
`

func TestLoadProfiles(t *testing.T) {
	ps, err := LoadProfiles(strings.NewReader(profileDoc))
	require.NoError(t, err)
	assert.Equal(t, []string{"custom", "haswell-nofma", "skylake-x"}, ps.Names())

	avx512, _ := Preset("avx512")
	assert.Equal(t, avx512, ps["skylake-x"])
	assert.False(t, ps["haswell-nofma"].Has(FMA))
	assert.True(t, ps["haswell-nofma"].Has(AVX2))
	assert.True(t, ps["custom"].HasAll(SSE42, POPCNT, SSE2))

	s, err := ps.Lookup("neon")
	require.NoError(t, err)
	assert.Equal(t, Of(NEON), s)
}

func TestLoadProfilesErrors(t *testing.T) {
	tests := []struct {
		name, doc, want string
	}{
		{"duplicate", "profiles:\n  - name: a\n  - name: a\n", "duplicate"},
		{"unknown base", "profiles:\n  - name: a\n    base: pentium\n", "pentium"},
		{"unknown feature", "profiles:\n  - name: a\n    features: [3dnow]\n", "3dnow"},
		{"unknown field", "profiles:\n  - name: a\n    extra: 1\n", "extra"},
		{"no name", "profiles:\n  - base: sse2\n", "without a name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProfiles(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSetYAML(t *testing.T) {
	out, err := yaml.Marshal(struct {
		F Set `yaml:"f"`
	}{Of(SSE2).Normalize()})
	require.NoError(t, err)
	assert.Equal(t, "f:\n    - sse\n    - sse2\n", string(out))

	var v struct {
		A Set `yaml:"a"`
		B Set `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: avx2\nb: [neon]\n"), &v))
	assert.True(t, v.A.Has(AVX))
	assert.Equal(t, Of(NEON), v.B)
}

func TestHostIsNormalized(t *testing.T) {
	cpu := HostCPU()
	assert.NotEmpty(t, cpu.Arch)
	assert.Equal(t, cpu.Detected, cpu.Detected.Normalize())
	if cpu.Source == "detected" {
		assert.Equal(t, cpu.Detected, Host())
	}
}
