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

package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-stdsimd/simd/features"
)

type meters float64

type level int8

func preset(t testing.TB, name string) features.Set {
	t.Helper()
	s, ok := features.Preset(name)
	require.True(t, ok, "preset %s", name)
	return s
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Int8, KindOf[int8]())
	assert.Equal(t, Uint8, KindOf[uint8]())
	assert.Equal(t, Int16, KindOf[int16]())
	assert.Equal(t, Uint16, KindOf[uint16]())
	assert.Equal(t, Int32, KindOf[int32]())
	assert.Equal(t, Uint32, KindOf[uint32]())
	assert.Equal(t, Int64, KindOf[int64]())
	assert.Equal(t, Uint64, KindOf[uint64]())
	assert.Equal(t, Float32, KindOf[float32]())
	assert.Equal(t, Float64, KindOf[float64]())
	assert.Equal(t, Float64, KindOf[meters]())
	assert.Equal(t, Int8, KindOf[level]())
}

func TestKindProperties(t *testing.T) {
	for _, k := range AllKinds() {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
		assert.Equal(t, k.Size()*8, k.Bits())
	}
	assert.Equal(t, 23, Float32.MantissaBits())
	assert.Equal(t, 52, Float64.MantissaBits())
	assert.Equal(t, 0, Int32.MantissaBits())
	assert.True(t, Float32.IsSigned())
	assert.False(t, Uint16.IsSigned())

	_, err := ParseKind("complex64")
	assert.Error(t, err)
}

func TestResolveScenarios(t *testing.T) {
	tests := []struct {
		preset string
		kind   Kind
		n      int
		want   string
	}{
		// One register, exact.
		{"sse2", Int32, 4, "NativeVector<4>"},
		{"avx2", Float32, 8, "NativeVector<8>"},
		{"avx512", Float32, 8, "Avx512Like<8>"},
		{"avx512", Int32, 16, "Avx512Like<16>"},
		{"neon", Int8, 8, "NativeVector<8>"},
		{"vsx", Float64, 2, "NativeVector<2>"},
		{"power8", Int64, 2, "NativeVector<2>"},
		// One register, padded.
		{"sse2", Int32, 3, "NativeVector<4>[3]"},
		{"avx512", Int8, 3, "Avx512Like<16>[3]"},
		{"avx512-novl", Int8, 3, "NativeVector<16>[3]"},
		{"avx512-knl", Int8, 3, "NativeVector<16>[3]"},
		{"avx512-knl", Int32, 3, "NativeVector<4>[3]"},
		{"avx2", Int32, 7, "NativeVector<8>[7]"},
		{"avx512", Int32, 13, "Avx512Like<16>[13]"},
		{"neon", Int8, 3, "NativeVector<8>[3]"},
		// Arrays.
		{"avx2", Int32, 16, "Array<NativeVector<8>,2>"},
		{"avx", Int32, 8, "Array<NativeVector<4>,2>"},
		{"neon", Float64, 3, "Array<Scalar,3>"},
		{"altivec", Float64, 2, "Array<Scalar,2>"},
		{"vsx", Int64, 2, "Array<Scalar,2>"},
		{"scalar", Float32, 5, "Array<Scalar,5>"},
		// Combines. A single leftover lane is a Scalar chunk, not a padded
		// register. An uneven multiple of a narrower tier splits by width
		// instead of forming an Array of the narrow tier.
		{"avx2", Int32, 9, "Combine<9,[NativeVector<8>,Scalar]>"},
		{"avx2", Int32, 12, "Combine<12,[NativeVector<8>,NativeVector<4>]>"},
		{"avx2", Float64, 5, "Combine<5,[NativeVector<4>,Scalar]>"},
		{"sse2", Int32, 5, "Combine<5,[NativeVector<4>,Scalar]>"},
		{"sse2", Int32, 6, "Combine<6,[NativeVector<4>,NativeVector<4>[2]]>"},
		{"avx512", Int32, 20, "Combine<20,[Avx512Like<16>,Avx512Like<4>]>"},
		{"avx512", Int32, 36, "Combine<36,[Array<Avx512Like<16>,2>,Avx512Like<4>]>"},
		// Scalar.
		{"avx512", Float64, 1, "Scalar"},
		{"scalar", Int8, 1, "Scalar"},
	}
	for _, tt := range tests {
		t.Run(tt.preset+"/"+tt.kind.String(), func(t *testing.T) {
			v, err := Resolve(tt.kind, tt.n, preset(t, tt.preset))
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
			assert.Equal(t, tt.n, v.Size())
		})
	}
}

func TestResolvePartialFlags(t *testing.T) {
	sse2 := preset(t, "sse2")

	v := MustResolve(Int32, 4, sse2)
	assert.Equal(t, NativeVector, v.Kind())
	assert.Equal(t, 4, v.FullSize())
	assert.False(t, v.IsPartial())

	v = MustResolve(Int32, 3, sse2)
	assert.Equal(t, NativeVector, v.Kind())
	assert.Equal(t, 4, v.FullSize())
	assert.True(t, v.IsPartial())

	v = MustResolve(Int8, 3, preset(t, "avx512"))
	assert.Equal(t, Avx512Like, v.Kind())
	assert.GreaterOrEqual(t, v.FullSize(), 3)
	assert.Equal(t, MaskBits, TraitsOf(Int8, v).MaskRepr)
}

func TestResolveErrors(t *testing.T) {
	sse2 := preset(t, "sse2")

	_, err := Resolve(Int32, 0, sse2)
	assert.ErrorIs(t, err, ErrInvalidWidth)

	_, err = Resolve(Kind(0), 4, sse2)
	assert.ErrorIs(t, err, ErrInvalidWidth)

	assert.Equal(t, 256, MaxWidth(Int32, sse2))
	_, err = Resolve(Int32, 256, sse2)
	assert.NoError(t, err)
	_, err = Resolve(Int32, 257, sse2)
	assert.ErrorIs(t, err, ErrWidthTooLarge)

	assert.Equal(t, 64, MaxWidth(Float64, 0))
	_, err = Resolve(Float64, 65, 0)
	assert.ErrorIs(t, err, ErrWidthTooLarge)

	assert.Panics(t, func() { MustResolve(Int8, -1, sse2) })
}

// TestResolveInvariants sweeps every kind, width and preset and checks the
// structural properties every layout must have.
func TestResolveInvariants(t *testing.T) {
	for _, name := range features.PresetNames() {
		s := preset(t, name)
		for _, k := range AllKinds() {
			valid := Tiers(k, s)
			require.Equal(t, Scalar, valid[len(valid)-1].Family)
			for n := 1; n <= MaxWidth(k, s); n++ {
				v, err := Resolve(k, n, s)
				require.NoError(t, err, "%s %s x %d", name, k, n)

				again, _ := Resolve(k, n, s)
				require.True(t, v.Equal(again), "%s %s x %d not deterministic", name, k, n)

				leaves := v.Leaves()
				sum := 0
				for i, leaf := range leaves {
					require.True(t, leaf.IsLeaf())
					sum += leaf.Size()
					if leaf.IsPartial() {
						require.Equal(t, len(leaves)-1, i, "%s %s x %d: padding before the tail", name, k, n)
					}
					if leaf.Kind() != Scalar {
						tier := Tier{Family: leaf.Kind(), Bytes: leaf.Bytes()}
						require.True(t, tier.Valid(k, s), "%s %s x %d uses invalid %s", name, k, n, tier)
						require.Equal(t, tier.Lanes(k), leaf.FullSize())
					}
				}
				require.Equal(t, n, sum, "%s %s x %d: %s", name, k, n, v)
			}
		}
	}
}

func TestTraits(t *testing.T) {
	sse2 := preset(t, "sse2")

	tr, err := TraitsFor(Int32, 3, sse2)
	require.NoError(t, err)
	assert.Equal(t, 3, tr.Size)
	assert.Equal(t, 4, tr.FullSize)
	assert.True(t, tr.IsPartial)
	assert.Equal(t, 16, tr.StorageBytes)
	assert.Equal(t, 16, tr.Alignment)
	assert.Equal(t, MaskVector, tr.MaskRepr)
	assert.Equal(t, 16, tr.MaskBytes)
	assert.Equal(t, "1110", tr.ImplicitMask().String())

	tr, err = TraitsFor(Int32, 6, sse2)
	require.NoError(t, err)
	assert.Equal(t, 8, tr.FullSize)
	assert.Equal(t, 32, tr.StorageBytes)
	assert.Equal(t, 16, tr.Alignment)
	assert.Equal(t, MaskPacked, tr.MaskRepr)
	assert.Equal(t, 1, tr.MaskBytes)
	assert.Equal(t, "11111100", tr.ImplicitMask().String())
	require.Len(t, tr.Chunks, 2)
	assert.Equal(t, 4, tr.Chunks[1].Offset)
	assert.Equal(t, 4, tr.Chunks[1].PhysOffset)
	assert.Equal(t, 2, tr.Chunks[1].Size)

	tr, err = TraitsFor(Int8, 3, preset(t, "avx512"))
	require.NoError(t, err)
	assert.Equal(t, MaskBits, tr.MaskRepr)
	assert.Equal(t, 2, tr.MaskBytes)
	assert.Equal(t, 16, tr.Alignment)

	tr, err = TraitsFor(Float64, 3, preset(t, "neon"))
	require.NoError(t, err)
	assert.Equal(t, 24, tr.StorageBytes)
	assert.Equal(t, 8, tr.Alignment)
	assert.Equal(t, MaskBool, tr.MaskRepr)
	assert.Equal(t, 3, tr.MaskBytes)
	assert.False(t, tr.IsPartial)

	tr, err = TraitsFor(Float32, 16, preset(t, "avx512"))
	require.NoError(t, err)
	assert.Equal(t, 64, tr.Alignment)
	assert.True(t, tr.ImplicitMask().All())
}
