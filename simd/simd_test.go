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

package simd

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-stdsimd/simd/features"
	"github.com/ajroetker/go-stdsimd/simd/internal/check"
	"github.com/ajroetker/go-stdsimd/simd/ops"
)

func shapeFor[T Lanes](t *testing.T, preset string, n int) *Shape[T] {
	t.Helper()
	set, ok := features.Preset(preset)
	require.True(t, ok, "preset %q", preset)
	s, err := NewShapeFor[T](n, set)
	require.NoError(t, err)
	return s
}

func TestShapeLoadStore(t *testing.T) {
	for _, preset := range []string{"scalar", "sse2", "avx2", "avx512", "neon", "vsx"} {
		for _, n := range []int{1, 3, 4, 7, 16, 24} {
			s := shapeFor[float32](t, preset, n)
			assert.Equal(t, n, s.Len())
			src := make([]float32, n)
			for i := range src {
				src[i] = float32(i) + 0.5
			}
			v := s.Load(src)
			assert.Equal(t, n, v.NumLanes())
			if diff := cmp.Diff(src, v.Data()); diff != "" {
				t.Errorf("%s/%d: Load/Store mismatch (-want +got):\n%s", preset, n, diff)
			}
		}
	}
}

func TestArithmetic(t *testing.T) {
	s := shapeFor[int32](t, "avx2", 11)
	a := s.Iota()
	b := s.Set(3)

	want := func(fn func(x int32) int32) []int32 {
		out := make([]int32, s.Len())
		for i := range out {
			out[i] = fn(int32(i))
		}
		return out
	}
	assert.Equal(t, want(func(x int32) int32 { return x + 3 }), Add(a, b).Data())
	assert.Equal(t, want(func(x int32) int32 { return x - 3 }), Sub(a, b).Data())
	assert.Equal(t, want(func(x int32) int32 { return x * 3 }), Mul(a, b).Data())
	assert.Equal(t, want(func(x int32) int32 { return x / 3 }), Div(a, b).Data())
	assert.Equal(t, want(func(x int32) int32 { return x % 3 }), Mod(a, b).Data())
	assert.Equal(t, want(func(x int32) int32 { return min(x, 3) }), Min(a, b).Data())
	assert.Equal(t, want(func(x int32) int32 { return -x }), Neg(a).Data())
	assert.Equal(t, want(func(x int32) int32 { return x << 2 }), ShiftLeft(a, 2).Data())
	assert.Equal(t, want(func(x int32) int32 { return x &^ 3 }), AndNot(a, b).Data())

	assert.Equal(t, int32(55), ReduceSum(a))
	assert.Equal(t, int32(0), ReduceMin(a))
	assert.Equal(t, int32(10), ReduceMax(a))
	assert.Equal(t, int32(55), Reduce(a, func(x, y int32) int32 { return x + y }))
}

func TestFloatRounding(t *testing.T) {
	s := shapeFor[float64](t, "sse4", 5)
	v := s.Load([]float64{2.5, -1.5, 0.4, math.Copysign(0, -1), 7})
	assert.Equal(t, []float64{3, -2, 0, 0, 7}, Round(v).Data())
	assert.Equal(t, []float64{2, -2, 0, 0, 7}, NearbyInt(v).Data())
	assert.Equal(t, []float64{2, -2, 0, 0, 7}, Floor(v).Data())
	assert.Equal(t, []float64{3, -1, 1, 0, 7}, Ceil(v).Data())
	assert.Equal(t, []float64{2, -1, 0, 0, 7}, Trunc(v).Data())
	assert.True(t, math.Signbit(Trunc(v).Get(3)), "-0 keeps its sign")
}

func TestFloatClassification(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	s := shapeFor[float32](t, "avx512", 6)
	v := s.Load([]float32{1, nan, -inf, 0, -2, 1e-40})
	w := s.Set(1)

	assert.Equal(t, "010000", IsNaN(v).String())
	assert.Equal(t, "001000", IsInf(v).String())
	assert.Equal(t, "100111", IsFinite(v).String())
	assert.Equal(t, "100010", IsNormal(v).String())
	assert.Equal(t, "001010", SignBit(v).String())
	assert.Equal(t, "010000", IsUnordered(v, w).String())
	assert.Equal(t, "011111", NotEqual(v, w).String())
	assert.Equal(t, "001111", LessThan(v, w).String())
}

func TestMasks(t *testing.T) {
	s := shapeFor[uint16](t, "neon", 5)
	m := s.FirstN(3)
	assert.Equal(t, "11100", m.String())
	assert.Equal(t, 3, m.CountTrue())
	assert.True(t, m.SomeTrue())
	assert.False(t, m.AllTrue())
	assert.Equal(t, "00011", m.Not().String())
	assert.Equal(t, 2, m.FindLastTrue())

	o := s.MaskFromBools([]bool{true, false, true, false, true})
	assert.Equal(t, "10100", m.And(o).String())
	assert.Equal(t, "11101", m.Or(o).String())
	assert.Equal(t, "01001", m.Xor(o).String())
	assert.Equal(t, "01000", m.AndNot(o).String())
	assert.Equal(t, "10110", m.Eq(o).String())
	assert.False(t, m.Equal(o))
	assert.True(t, m.Equal(s.FirstN(3)))

	idx, ok := s.MaskSet(false).FirstSet()
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
	assert.True(t, s.FirstN(99).AllTrue(), "FirstN clamps to the width")
	assert.True(t, s.FirstN(-1).NoneTrue())
}

func TestSelect(t *testing.T) {
	s := shapeFor[int8](t, "sse2", 6)
	a := s.Iota()
	m := GreaterThan(a, s.Set(2))
	assert.Equal(t, []int8{0, 0, 0, 3, 4, 5}, IfThenElseZero(m, a).Data())
	assert.Equal(t, []int8{0, 1, 2, 0, 0, 0}, IfThenZeroElse(m, a).Data())
	assert.Equal(t, []int8{-1, -1, -1, 3, 4, 5}, IfThenElse(m, a, s.Set(-1)).Data())
}

func TestTailHelpers(t *testing.T) {
	s := shapeFor[float32](t, "avx2", 8)

	var full []int
	var tail [][2]int
	s.ProcessWithTail(20, func(off int) { full = append(full, off) }, func(off, n int) { tail = append(tail, [2]int{off, n}) })
	assert.Equal(t, []int{0, 8}, full)
	assert.Equal(t, [][2]int{{16, 4}}, tail)

	full = nil
	s.ProcessWithTailNoMask(20, func(off int) { full = append(full, off) })
	assert.Equal(t, []int{0, 8, 12}, full)
	full = nil
	s.ProcessWithTailNoMask(5, func(off int) { full = append(full, off) })
	assert.Equal(t, []int{0}, full)

	assert.Equal(t, 24, s.AlignedSize(20))
	assert.Equal(t, 16, s.AlignedSize(16))
	assert.True(t, s.IsAligned(16))
	assert.False(t, s.IsAligned(20))
}

func TestTailMaskedAccess(t *testing.T) {
	s := shapeFor[float32](t, "avx2", 8)
	data := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	out := make([]float32, len(data))
	s.ProcessWithTail(len(data),
		func(off int) {
			v := s.Load(data[off:])
			Add(v, v).Store(out[off:])
		},
		func(off, count int) {
			mask := s.TailMask(count)
			v := MaskLoad(mask, data[off:])
			assert.Equal(t, float32(0), v.Get(count), "unselected lanes load zero")
			MaskStore(mask, Add(v, v), out[off:])
		})
	assert.Equal(t, []float32{2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22}, out)
}

func TestMixingShapesPanics(t *testing.T) {
	a := shapeFor[int32](t, "avx2", 4)
	b := shapeFor[int32](t, "avx2", 8)
	assert.Panics(t, func() { Add(a.Zero(), b.Zero()) })

	// Same layout resolved twice is interchangeable.
	c := shapeFor[int32](t, "avx2", 4)
	assert.NotPanics(t, func() { Add(a.Zero(), c.Zero()) })
}

func TestShiftViolation(t *testing.T) {
	defer check.Override(true)()
	s := shapeFor[int32](t, "avx2", 4)
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, &Violation{Kind: InvalidShiftAmount}))
	}()
	ShiftLeft(s.Iota(), 32)
}

func TestConstEvalAgreesWithHost(t *testing.T) {
	host, err := NewShape[float64](13)
	require.NoError(t, err)
	ref, err := NewShapeFor[float64](13, ops.ConstEval)
	require.NoError(t, err)

	xs := make([]float64, 13)
	for i := range xs {
		xs[i] = float64(i*i)*0.37 - 11
	}
	got := Sqrt(Abs(Mul(host.Load(xs), host.Set(1.5))))
	want := Sqrt(Abs(Mul(ref.Load(xs), ref.Set(1.5))))
	assert.Equal(t, want.Data(), got.Data())
	assert.Equal(t, ReduceSum(want), ReduceSum(got))
}
