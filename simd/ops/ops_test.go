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

package ops

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/bitmask"
	"github.com/ajroetker/go-stdsimd/simd/features"
	"github.com/ajroetker/go-stdsimd/simd/internal/check"
)

var testPresets = []string{"scalar", "sse2", "sse4", "avx2", "avx512", "avx512-novl", "neon", "asimd", "altivec", "vsx", "power8"}

func preset(t *testing.T, name string) features.Set {
	t.Helper()
	s, ok := features.Preset(name)
	require.True(t, ok, "preset %q", name)
	return s
}

// pair builds the hardware table for a preset and the constant-evaluation
// table of the same layout.
func pair[T abi.Lanes](t *testing.T, presetName string, n int) (hw, ref Impl[T]) {
	t.Helper()
	s := preset(t, presetName)
	tr, err := abi.TraitsFor(abi.KindOf[T](), n, s)
	require.NoError(t, err)
	hw, err = New[T](tr, s)
	require.NoError(t, err)
	ref, err = New[T](tr, ConstEval)
	require.NoError(t, err)
	return hw, ref
}

// violation runs fn and returns the kind of the *check.Violation it panics
// with, or 0 when it returns normally.
func violation(fn func()) (kind check.Kind) {
	defer func() {
		if r := recover(); r != nil {
			var v *check.Violation
			if err, ok := r.(error); ok && errors.As(err, &v) {
				kind = v.Kind
				return
			}
			panic(r)
		}
	}()
	fn()
	return 0
}

func maskOf(n int, lanes ...int) bitmask.BitMask {
	m := bitmask.New(n)
	for _, i := range lanes {
		m = m.With(i, true)
	}
	return m
}

func decodeAll[T abi.Lanes](impl Impl[T], v Vector) []T {
	out := make([]T, impl.Traits().Size)
	impl.Store(v, out)
	return out
}

func TestEncodeDecode(t *testing.T) {
	x := []int16{1, -2, 3, math.MinInt16, math.MaxInt16}
	r := Encode(x)
	assert.Equal(t, x, Decode[int16](&r, len(x)))
	assert.Equal(t, uint64(0xfffe0001), r[0]&0xffffffff)

	f := []float64{math.Inf(-1), math.Copysign(0, -1)}
	rf := Encode(f)
	assert.Equal(t, math.Float64bits(math.Inf(-1)), rf[0])
	assert.Equal(t, uint64(1)<<63, rf[1])
}

func TestFoldTreeOrder(t *testing.T) {
	concat := func(x, y string) string { return "(" + x + y + ")" }
	assert.Equal(t, "a", foldTree([]string{"a"}, concat))
	assert.Equal(t, "((ac)b)", foldTree([]string{"a", "b", "c"}, concat))
	assert.Equal(t, "((ac)(bd))", foldTree([]string{"a", "b", "c", "d"}, concat))
	assert.Equal(t, "(((ad)c)(be))", foldTree([]string{"a", "b", "c", "d", "e"}, concat))
}

func TestReduceSum(t *testing.T) {
	for _, name := range testPresets {
		for _, n := range []int{1, 2, 3, 5, 6, 7, 12, 17, 31, 64} {
			t.Run(fmt.Sprintf("%s/N=%d", name, n), func(t *testing.T) {
				hw, ref := pair[int32](t, name, n)
				want := int32(n * (n + 1) / 2)
				for _, impl := range []Impl[int32]{hw, ref} {
					v := impl.Poison(impl.Iota(1), 7)
					assert.Equal(t, want, impl.Reduce(OpPlus, v))
					assert.Equal(t, want, impl.ReduceFunc(v, func(x, y int32) int32 { return x + y }))
					assert.Equal(t, int32(1), impl.ReduceMin(v))
					assert.Equal(t, int32(n), impl.ReduceMax(v))
				}
			})
		}
	}
}

func TestReduceFloatIdentities(t *testing.T) {
	for _, name := range []string{"scalar", "sse2", "avx512", "neon"} {
		t.Run(name, func(t *testing.T) {
			hw, _ := pair[float32](t, name, 3)
			negZero := float32(math.Copysign(0, -1))
			v := hw.Poison(hw.Broadcast(negZero), 1)
			got := hw.Reduce(OpPlus, v)
			assert.True(t, math.Signbit(float64(got)), "sum of -0 lanes must stay -0")
			assert.Equal(t, float32(8), hw.Reduce(OpMul, hw.Poison(hw.Broadcast(2), 3)))
		})
	}
}

func TestPaddingTransparency(t *testing.T) {
	for _, name := range testPresets {
		t.Run(name, func(t *testing.T) {
			hw, _ := pair[int32](t, name, 3)
			in := []int32{-5, 0, 9}
			v := hw.Poison(hw.Load(in), 11)
			assert.Equal(t, in, decodeAll(hw, v))

			eq := hw.Eq(v, v)
			assert.True(t, hw.All(eq))
			assert.Equal(t, 3, hw.Count(eq))
			assert.Equal(t, "111", hw.MaskToBits(eq).String())
			assert.True(t, hw.None(hw.Ne(v, v)))
			assert.Equal(t, 3, hw.Count(hw.MaskNot(hw.MaskBroadcast(false))))

			// Padding divisors never trap.
			q := hw.Div(v, hw.Poison(hw.Load([]int32{1, 2, 3}), 4))
			assert.Equal(t, []int32{-5, 0, 3}, decodeAll(hw, q))
		})
	}
}

func TestGetWith(t *testing.T) {
	hw, _ := pair[uint8](t, "avx2", 40)
	v := hw.Iota(0)
	v2 := hw.With(v, 39, 200)
	assert.Equal(t, uint8(39), hw.Get(v, 39), "With must not modify its operand")
	assert.Equal(t, uint8(200), hw.Get(v2, 39))
	assert.Equal(t, uint8(17), hw.Get(v2, 17))

	restore := check.Override(true)
	defer restore()
	assert.Equal(t, check.LaneOutOfRange, violation(func() { hw.Get(v, 40) }))
	assert.Equal(t, check.LaneOutOfRange, violation(func() { hw.With(v, -1, 0) }))
}

func TestShiftBoundary(t *testing.T) {
	restore := check.Override(true)
	defer restore()
	for _, name := range []string{"scalar", "sse2", "avx2", "avx512", "neon", "power8"} {
		t.Run(name, func(t *testing.T) {
			hw, _ := pair[int16](t, name, 8)
			v := hw.Broadcast(-3)
			assert.Equal(t, int16(math.MinInt16), hw.Get(hw.ShiftLeft(v, 15), 0))
			assert.Equal(t, int16(-1), hw.Get(hw.ShiftRight(v, 15), 7))
			assert.Equal(t, check.InvalidShiftAmount, violation(func() { hw.ShiftLeft(v, 16) }))
			assert.Equal(t, check.InvalidShiftAmount, violation(func() { hw.ShiftRight(v, -1) }))
			assert.Equal(t, check.InvalidShiftAmount, violation(func() { hw.ShiftLeftVar(v, hw.Broadcast(16)) }))

			u, _ := pair[uint64](t, name, 4)
			w := u.Broadcast(math.MaxUint64)
			assert.Equal(t, uint64(1), u.Get(u.ShiftRight(w, 63), 3))
			assert.Equal(t, uint64(1)<<63, u.Get(u.ShiftLeftVar(w, u.Broadcast(63)), 2))
		})
	}
}

func TestIndexReductions(t *testing.T) {
	hw, _ := pair[float64](t, "avx2", 6)
	m := hw.MaskFromBits(maskOf(6, 1, 4))
	assert.Equal(t, 1, hw.MinIndex(m))
	assert.Equal(t, 4, hw.MaxIndex(m))
	assert.True(t, hw.Some(m))
	assert.False(t, hw.Some(hw.MaskBroadcast(true)))
	assert.Equal(t, "110101", hw.MaskToBits(hw.MaskEq(m, hw.MaskFromBits(maskOf(6, 1, 2)))).String())

	restore := check.Override(true)
	defer restore()
	empty := hw.MaskBroadcast(false)
	assert.Equal(t, check.EmptyMask, violation(func() { hw.MinIndex(empty) }))
	assert.Equal(t, check.EmptyMask, violation(func() { hw.MaxIndex(empty) }))
}

func TestMaskedAccess(t *testing.T) {
	restore := check.Override(true)
	defer restore()
	for _, name := range []string{"scalar", "sse4", "avx2", "avx512", "asimd"} {
		t.Run(name, func(t *testing.T) {
			hw, _ := pair[int32](t, name, 7)
			src := []int32{10, 11, 12, 13}
			m := hw.MaskFromBits(maskOf(7, 0, 3))
			v := hw.MaskedLoad(m, src)
			assert.Equal(t, []int32{10, 0, 0, 13, 0, 0, 0}, decodeAll(hw, v))

			dst := make([]int32, 4)
			hw.MaskedStore(hw.Broadcast(9), m, dst)
			assert.Equal(t, []int32{9, 0, 0, 9}, dst)

			far := hw.MaskFromBits(maskOf(7, 5))
			assert.Equal(t, check.MaskedAccessOutOfBounds, violation(func() { hw.MaskedLoad(far, src) }))
			assert.Equal(t, check.MaskedAccessOutOfBounds, violation(func() { hw.MaskedStore(v, far, dst) }))
			assert.Equal(t, check.ShortBuffer, violation(func() { hw.Load(src) }))
		})
	}
}

func TestKernelSelection(t *testing.T) {
	kernel := func(impl Impl[int32], op string) string {
		for _, k := range impl.Kernels() {
			if k.Op == op {
				return k.Kernel
			}
		}
		return ""
	}
	for _, tc := range []struct {
		preset, op, want string
	}{
		{"sse2", "mul", "pmuludq+pshufd"},
		{"sse4", "mul", "pmulld"},
		{"avx512", "mul", "vpmulld"},
		{"sse2", "blend", "pand/pandn/por"},
		{"sse4", "blend", "pblendvb"},
		{"avx512", "blend", "vpblendm"},
		{"sse2", "shlvar", "generic"},
		{"avx2", "shlvar", "vpsllv"},
		{"sse2", "div", "cvtdq2pd+divpd"},
		{"sse2", "mod", "div-mul-sub"},
		{"neon", "reduceplus", "vext+vaddq"},
		{"asimd", "reduceplus", "vaddvq"},
		{"altivec", "mul", "generic"},
		{"power8", "mul", "vmuluwm"},
		{"neon", "add", "vaddq"},
		{"asimd", "shlvar", "vminq+vshlq"},
		{"vsx", "add", "vec_add"},
		{"power8", "shl", "vec_sl"},
	} {
		t.Run(tc.preset+"/"+tc.op, func(t *testing.T) {
			hw, ref := pair[int32](t, tc.preset, 4)
			assert.Equal(t, tc.want, kernel(hw, tc.op))
			assert.Equal(t, "generic", kernel(ref, tc.op))
		})
	}
	scalar, _ := pair[int32](t, "avx2", 1)
	assert.Equal(t, "scalar", kernel(scalar, "add"))
}

func TestIntegerSqrtExact(t *testing.T) {
	const m32 = math.MaxUint32
	for _, tc := range []struct{ x, want uint64 }{
		{0, 0}, {1, 1}, {15, 3}, {16, 4},
		{1<<53 + 1, 94906265},
		{m32 * m32, m32},
		{m32*m32 - 1, m32 - 1},
		{math.MaxUint64, m32},
		{(1<<32 + 1) * (1<<31 + 1), 3037000501},
	} {
		assert.Equal(t, tc.want, isqrt(tc.x), "isqrt(%d)", tc.x)
	}

	for _, name := range []string{"scalar", "avx2", "neon"} {
		hw, ref := pair[uint64](t, name, 4)
		in := []uint64{math.MaxUint64, m32*m32 - 1, 1<<62 - 1, 9}
		want := []uint64{m32, m32 - 1, 1<<31 - 1, 3}
		assert.Equal(t, want, decodeAll(hw, hw.Sqrt(hw.Load(in))), name)
		assert.Equal(t, want, decodeAll(ref, ref.Sqrt(ref.Load(in))), name)

		shw, _ := pair[int64](t, name, 4)
		sin := []int64{math.MaxInt64, -4, 0, 1<<62 + 1}
		assert.Equal(t, []int64{3037000499, 0, 0, 1 << 31}, decodeAll(shw, shw.Sqrt(shw.Load(sin))), name)
	}
}

func TestNewKindMismatch(t *testing.T) {
	tr, err := abi.TraitsFor(abi.Int32, 4, features.Of(features.SSE2))
	require.NoError(t, err)
	_, err = New[float32](tr, ConstEval)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

// TestTierEquivalenceSample spot checks the hardware cascades against the
// constant-evaluation tables; the verify package runs the full sweep.
func TestTierEquivalenceSample(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, name := range testPresets {
		for _, n := range []int{3, 4, 16, 21} {
			t.Run(fmt.Sprintf("%s/N=%d", name, n), func(t *testing.T) {
				hw, ref := pair[int8](t, name, n)
				a, b := randInt8(rng, n), randInt8(rng, n)
				for i := range b {
					if b[i] == 0 {
						b[i] = 1
					}
				}
				same := func(op string, f func(impl Impl[int8], x, y Vector) Vector) {
					t.Helper()
					got := hw.Bits(f(hw, hw.Poison(hw.Load(a), 3), hw.Load(b)))
					want := ref.Bits(f(ref, ref.Load(a), ref.Load(b)))
					if diff := cmp.Diff(want, got); diff != "" {
						t.Errorf("%s mismatch (-ref +hw):\n%s", op, diff)
					}
				}
				same("add", Impl[int8].Add)
				same("sub", Impl[int8].Sub)
				same("mul", Impl[int8].Mul)
				same("div", Impl[int8].Div)
				same("mod", Impl[int8].Mod)
				same("min", Impl[int8].Min)
				same("max", Impl[int8].Max)
				same("andnot", Impl[int8].AndNot)
				same("select", func(impl Impl[int8], x, y Vector) Vector {
					return impl.Select(impl.Lt(x, y), x, y)
				})
				assert.Equal(t, ref.Reduce(OpMin, ref.Load(a)), hw.Reduce(OpMin, hw.Poison(hw.Load(a), 5)))
				assert.Equal(t, ref.Reduce(OpXor, ref.Load(a)), hw.Reduce(OpXor, hw.Poison(hw.Load(a), 6)))
			})
		}
	}
}

func randInt8(rng *rand.Rand, n int) []int8 {
	out := make([]int8, n)
	for i := range out {
		out[i] = int8(rng.Uint32())
	}
	return out
}
