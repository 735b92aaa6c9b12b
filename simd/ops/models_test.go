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
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/ajroetker/go-stdsimd/simd/abi"
)

func nvLayout(k abi.Kind, bytes int) *layout {
	lanes := bytes / k.Size()
	return newLayout(k, abi.ChunkInfo{Variant: abi.NativeVector, Size: lanes, FullSize: lanes, Bytes: bytes})
}

func randReg(rng *rand.Rand, l *layout) Reg {
	var r Reg
	for w := 0; w < l.words; w++ {
		r[w] = rng.Uint64()
		// Bias toward equal and boundary lanes.
		if rng.IntN(4) == 0 {
			r[w] &= 0x8000800080008000
		}
	}
	return r
}

var intKinds = []abi.Kind{abi.Int8, abi.Uint8, abi.Int16, abi.Uint16, abi.Int32, abi.Uint32, abi.Int64, abi.Uint64}

func TestSwarModels(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for _, k := range intKinds {
		t.Run(k.String(), func(t *testing.T) {
			l := nvLayout(k, 32)
			ref := func(op func(x, y uint64) uint64) kernel2 {
				return func(l *layout, a, b *Reg) Reg { return intLanes2(l, a, b, op) }
			}
			for range 200 {
				a, b := randReg(rng, l), randReg(rng, l)
				same := func(name string, got, want Reg) {
					t.Helper()
					if diff := cmp.Diff(want, got); diff != "" {
						t.Fatalf("%s(%#x, %#x) (-want +got):\n%s", name, a, b, diff)
					}
				}
				same("padd", padd(l, &a, &b), ref(func(x, y uint64) uint64 { return x + y })(l, &a, &b))
				same("psub", psub(l, &a, &b), ref(func(x, y uint64) uint64 { return x - y })(l, &a, &b))
				same("pcmpeq", pcmpeq(l, &a, &b), vcmpLanes(cmpEq)(l, &a, &b))

				gt := kernel2(pcmpgt)
				if !k.IsSigned() {
					gt = biased(pcmpgt)
				}
				same("pcmpgt", gt(l, &a, &b), vcmpLanes(cmpGt)(l, &a, &b))
				if k.Bits() == 64 && k.IsSigned() {
					same("pcmpgtq", pcmpgtqEmulated(l, &a, &b), pcmpgt(l, &a, &b))
				}

				mul := lanewiseMul(l, &a, &b)
				switch k.Bits() {
				case 8:
					same("pmullw+pand", pmullwBytes(l, &a, &b), mul)
				case 32:
					same("pmuludq", pmuludqDwords(l, &a, &b), mul)
				case 64:
					same("pmuludq*3", pmuludqQwords(l, &a, &b), mul)
				}

				m := vcmpLanes(cmpLt)(l, &a, &b)
				same("pblendvb", pblendvb(l, &m, &a, &b), bitSelect(l, &m, &a, &b))
				assert.Equal(t, vshrnBits(l, &m), movemask(l, &m))
				same("expand", expandMask(l, movemask(l, &m)), m)

				if k.IsSigned() {
					same("pabs", absXorSub(psraFor(l))(l, &a), pabs(l, &a))
				}
			}
		})
	}
}

// psraFor picks the x86 arithmetic shift sequence for the lane width.
func psraFor(l *layout) shiftKernel {
	switch l.bits {
	case 8:
		return psraBytes
	case 64:
		return psraqEmulated
	}
	return psra
}

func TestShiftModels(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	for _, k := range intKinds {
		l := nvLayout(k, 16)
		for n := 0; n < l.bits; n++ {
			t.Run(fmt.Sprintf("%s/%d", k, n), func(t *testing.T) {
				a := randReg(rng, l)
				assert.Equal(t, vshlImm(opShl)(l, &a, n), psll(l, &a, n))
				if k.IsSigned() {
					assert.Equal(t, vshlImm(opShr)(l, &a, n), psraFor(l)(l, &a, n))
					if k.Bits() == 64 {
						assert.Equal(t, vpsraq(l, &a, n), psraqEmulated(l, &a, n))
					}
				} else {
					assert.Equal(t, vshlImm(opShr)(l, &a, n), psrl(l, &a, n))
				}
				c := l.broadcastBits(uint64(n))
				for _, op := range []shiftOp{opShl, opShr} {
					want := vshlImm(op)(l, &a, n)
					assert.Equal(t, want, vpshiftv(op)(l, &a, &c))
					assert.Equal(t, want, vshlVar(op)(l, &a, &c))
					assert.Equal(t, want, vecShiftVar(op)(l, &a, &c))
				}
			})
		}
	}
}

func TestVariableShiftOutOfRange(t *testing.T) {
	l := nvLayout(abi.Int32, 16)
	a := Encode([]int32{-8, 8, -8, 8})
	c := Encode([]int32{32, 40, -1, 31})
	g := genericTier[int32]{o: newLaneOps[int32]()}
	for _, op := range []shiftOp{opShl, opShr} {
		want := g.shiftVar(op)(l, &a, &c)
		assert.Equal(t, want, vpshiftv(op)(l, &a, &c), shiftNames[op])
		assert.Equal(t, want, vshlVar(op)(l, &a, &c), shiftNames[op])
		assert.Equal(t, want, vecShiftVar(op)(l, &a, &c), shiftNames[op])
	}
	r := g.shiftVar(opShr)(l, &a, &c)
	assert.Equal(t, []int32{-1, 0, -1, 0}, Decode[int32](&r, 4))
}

func TestCvtDivide(t *testing.T) {
	l := nvLayout(abi.Int32, 16)
	a := Encode([]int32{math.MinInt32, 7, -7, 100})
	b := Encode([]int32{-1, 2, 2, -3})
	r, ok := cvtDivide(l, &a, &b)
	assert.True(t, ok)
	assert.Equal(t, []int32{math.MinInt32, 3, -3, -33}, Decode[int32](&r, 4))

	z := Encode([]int32{1, 0, 1, 1})
	_, ok = cvtDivide(l, &a, &z)
	assert.False(t, ok, "a zero divisor lane defers to the generic path")
}

func TestFloatModels(t *testing.T) {
	nan32 := math.Float32frombits(0x7fc00001)
	vals := []float32{0, float32(math.Copysign(0, -1)), 0.5, -0.5, 1.5, -2.5, 2.5, 0.49999997,
		8388607.5, -8388609, float32(math.Inf(1)), float32(math.Inf(-1)), nan32, 1e-45, -3.4e38, 7}
	l := nvLayout(abi.Float32, 64)
	g := genericTier[float32]{o: newLaneOps[float32]()}
	a := Encode(vals)
	for _, tc := range []struct {
		op   unOp
		mode roundMode
	}{
		{opTrunc, roundTrunc}, {opFloor, roundFloor}, {opCeil, roundCeil},
		{opNearbyInt, roundEven}, {opRound, roundAway},
	} {
		want := g.unary(tc.op)(l, &a)
		assert.Equal(t, want, roundLanes(tc.mode)(l, &a), unNames[tc.op])
	}
	assert.Equal(t, g.unary(opRound)(l, &a), roundViaTrunc(roundLanes(roundTrunc))(l, &a))

	for op := range numClassOps {
		want := g.classify(op)(l, &a)
		assert.Equal(t, want, classifyBitTests(op)(l, &a), classNames[op])
		k := vfpclass(op)(l, &a)
		assert.Equal(t, genericToBits(l, &want), k[0], classNames[op])
	}

	b := Encode([]float32{nan32, 0, float32(math.Copysign(0, -1)), 1, -1, 3, 2, 0, 0, 0, 0, 0, 1, 0, 0, 0})
	assert.Equal(t, g.binary(opMin)(l, &a, &b), minpsSwapped(l, &a, &b))
	assert.Equal(t, g.binary(opMax)(l, &a, &b), maxpsSwapped(l, &a, &b))
	lt := vcmpLanes(cmpLt)
	assert.Equal(t, g.binary(opMin)(l, &a, &b), compareSelect(lt, bitSelect, false)(l, &a, &b))
	assert.Equal(t, g.binary(opMax)(l, &a, &b), compareSelect(lt, bitSelect, true)(l, &a, &b))
}

func TestMovemaskBytes(t *testing.T) {
	l := nvLayout(abi.Uint8, 16)
	m := l.maskFromPred(func(i int) bool { return i%3 == 0 })
	assert.Equal(t, uint64(0b1001001001001001), movemask(l, &m))
}
