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
	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/bitmask"
	"github.com/ajroetker/go-stdsimd/simd/features"
	"github.com/ajroetker/go-stdsimd/simd/internal/check"
)

// regImpl implements the register layouts: a single Scalar, NativeVector or
// Avx512Like register, or an Array of identical registers. Every register
// shares one layout and kernel table; only the last one of a leaf can be
// partial.
type regImpl[T abi.Lanes] struct {
	traits abi.Traits
	l      *layout
	k      *kernels[T]
	o      laneOps[T]
	count  int
}

func newRegImpl[T abi.Lanes](t abi.Traits, s features.Set) *regImpl[T] {
	l := newLayout(t.Kind, t.Chunks[0])
	return &regImpl[T]{
		traits: t,
		l:      l,
		k:      bind[T](l, s),
		o:      newLaneOps[T](),
		count:  len(t.Chunks),
	}
}

func (r *regImpl[T]) Traits() abi.Traits    { return r.traits }
func (r *regImpl[T]) Kernels() []KernelInfo { return r.k.describe() }

func (r *regImpl[T]) alloc() Vector { return Vector{regs: make([]Reg, r.count)} }

// locate maps logical lane i to its register and lane within it.
func (r *regImpl[T]) locate(i int) (reg, lane int) {
	check.Lane(i, r.traits.Size)
	return i / r.l.size, i % r.l.size
}

func (r *regImpl[T]) map1(a Vector, fn kernel1) Vector {
	out := r.alloc()
	for j := range out.regs {
		out.regs[j] = fn(r.l, &a.regs[j])
	}
	return out
}

func (r *regImpl[T]) map2(a, b Vector, fn kernel2) Vector {
	out := r.alloc()
	for j := range out.regs {
		out.regs[j] = fn(r.l, &a.regs[j], &b.regs[j])
	}
	return out
}

// fillPadding returns v with every padding lane set to bits.
func (r *regImpl[T]) fillPadding(v Vector, bits uint64) Vector {
	if r.l.full == r.l.size {
		return v
	}
	out := Vector{regs: append([]Reg(nil), v.regs...)}
	for j := range out.regs {
		for i := r.l.size; i < r.l.full; i++ {
			r.l.set(&out.regs[j], i, bits)
		}
	}
	return out
}

// clip clears the padding lanes of a native mask.
func (r *regImpl[T]) clip(m *Reg) {
	im := r.l.implicitMask()
	for w := 0; w < r.l.maskWords(); w++ {
		m[w] &= im[w]
	}
}

func (r *regImpl[T]) Zero() Vector { return r.alloc() }

func (r *regImpl[T]) Broadcast(x T) Vector {
	out := r.alloc()
	b := bitsOf(x)
	for j := range out.regs {
		for i := 0; i < r.l.size; i++ {
			r.l.set(&out.regs[j], i, b)
		}
	}
	return out
}

func (r *regImpl[T]) Load(src []T) Vector {
	check.Buffer(len(src), r.traits.Size)
	out := r.alloc()
	for i, x := range src[:r.traits.Size] {
		j, lane := i/r.l.size, i%r.l.size
		r.l.set(&out.regs[j], lane, bitsOf(x))
	}
	return out
}

func (r *regImpl[T]) Store(v Vector, dst []T) {
	check.Buffer(len(dst), r.traits.Size)
	for i := range dst[:r.traits.Size] {
		j, lane := i/r.l.size, i%r.l.size
		dst[i] = fromBits[T](r.l.lane(&v.regs[j], lane))
	}
}

// window returns the part of buf starting at the first lane of register j.
func window[T any](buf []T, off int) []T {
	return buf[min(off, len(buf)):]
}

func (r *regImpl[T]) MaskedLoad(m Mask, src []T) Vector {
	out := r.alloc()
	for j := range out.regs {
		mm := m.regs[j]
		r.clip(&mm)
		out.regs[j] = r.k.maskedLoad(r.l, &mm, window(src, j*r.l.size))
	}
	return out
}

func (r *regImpl[T]) MaskedStore(v Vector, m Mask, dst []T) {
	for j := range v.regs {
		mm := m.regs[j]
		r.clip(&mm)
		r.k.maskedStore(r.l, &v.regs[j], &mm, window(dst, j*r.l.size))
	}
}

func (r *regImpl[T]) Get(v Vector, i int) T {
	j, lane := r.locate(i)
	return fromBits[T](r.l.lane(&v.regs[j], lane))
}

func (r *regImpl[T]) With(v Vector, i int, x T) Vector {
	j, lane := r.locate(i)
	out := Vector{regs: append([]Reg(nil), v.regs...)}
	r.l.set(&out.regs[j], lane, bitsOf(x))
	return out
}

func (r *regImpl[T]) Generate(fn func(i int) T) Vector {
	out := r.alloc()
	for i := 0; i < r.traits.Size; i++ {
		r.l.set(&out.regs[i/r.l.size], i%r.l.size, bitsOf(fn(i)))
	}
	return out
}

func (r *regImpl[T]) Iota(start T) Vector {
	return r.Generate(func(i int) T { return start + T(i) })
}

func (r *regImpl[T]) binary(op binOp, a, b Vector) Vector {
	if op == opDiv || op == opMod {
		b = r.fillPadding(b, bitsOf(T(1)))
	}
	return r.map2(a, b, r.k.bin[op])
}

func (r *regImpl[T]) Add(a, b Vector) Vector    { return r.binary(opAdd, a, b) }
func (r *regImpl[T]) Sub(a, b Vector) Vector    { return r.binary(opSub, a, b) }
func (r *regImpl[T]) Mul(a, b Vector) Vector    { return r.binary(opMul, a, b) }
func (r *regImpl[T]) Div(a, b Vector) Vector    { return r.binary(opDiv, a, b) }
func (r *regImpl[T]) Mod(a, b Vector) Vector    { return r.binary(opMod, a, b) }
func (r *regImpl[T]) Min(a, b Vector) Vector    { return r.binary(opMin, a, b) }
func (r *regImpl[T]) Max(a, b Vector) Vector    { return r.binary(opMax, a, b) }
func (r *regImpl[T]) And(a, b Vector) Vector    { return r.binary(opAnd, a, b) }
func (r *regImpl[T]) Or(a, b Vector) Vector     { return r.binary(opOr, a, b) }
func (r *regImpl[T]) Xor(a, b Vector) Vector    { return r.binary(opXor, a, b) }
func (r *regImpl[T]) AndNot(a, b Vector) Vector { return r.binary(opAndNot, a, b) }

func (r *regImpl[T]) unary(op unOp, a Vector) Vector { return r.map1(a, r.k.un[op]) }

func (r *regImpl[T]) Neg(a Vector) Vector       { return r.unary(opNeg, a) }
func (r *regImpl[T]) Abs(a Vector) Vector       { return r.unary(opAbs, a) }
func (r *regImpl[T]) Not(a Vector) Vector       { return r.unary(opNot, a) }
func (r *regImpl[T]) Sqrt(a Vector) Vector      { return r.unary(opSqrt, a) }
func (r *regImpl[T]) Trunc(a Vector) Vector     { return r.unary(opTrunc, a) }
func (r *regImpl[T]) Round(a Vector) Vector     { return r.unary(opRound, a) }
func (r *regImpl[T]) Ceil(a Vector) Vector      { return r.unary(opCeil, a) }
func (r *regImpl[T]) Floor(a Vector) Vector     { return r.unary(opFloor, a) }
func (r *regImpl[T]) NearbyInt(a Vector) Vector { return r.unary(opNearbyInt, a) }
func (r *regImpl[T]) Rint(a Vector) Vector      { return r.unary(opRint, a) }

func (r *regImpl[T]) Inc(a Vector) Vector { return r.Add(a, r.Broadcast(T(1))) }
func (r *regImpl[T]) Dec(a Vector) Vector { return r.Sub(a, r.Broadcast(T(1))) }

func (r *regImpl[T]) shift(op shiftOp, a Vector, n int) Vector {
	check.Shift(n, r.l.bits)
	fn := r.k.shift[op]
	out := r.alloc()
	for j := range out.regs {
		out.regs[j] = fn(r.l, &a.regs[j], n)
	}
	return out
}

func (r *regImpl[T]) ShiftLeft(a Vector, n int) Vector  { return r.shift(opShl, a, n) }
func (r *regImpl[T]) ShiftRight(a Vector, n int) Vector { return r.shift(opShr, a, n) }

func (r *regImpl[T]) shiftVar(op shiftOp, a, n Vector) Vector {
	if check.Enabled() {
		for i := 0; i < r.traits.Size; i++ {
			c := r.Get(n, i)
			check.Shift(r.o.shiftCount(c), r.l.bits)
		}
	}
	return r.map2(a, r.fillPadding(n, 0), r.k.shiftVar[op])
}

func (r *regImpl[T]) ShiftLeftVar(a, n Vector) Vector  { return r.shiftVar(opShl, a, n) }
func (r *regImpl[T]) ShiftRightVar(a, n Vector) Vector { return r.shiftVar(opShr, a, n) }

func (r *regImpl[T]) compare(op cmpOp, a, b Vector) Mask {
	out := Mask{regs: make([]Reg, r.count)}
	for j := range out.regs {
		out.regs[j] = r.k.cmp[op](r.l, &a.regs[j], &b.regs[j])
		r.clip(&out.regs[j])
	}
	return out
}

func (r *regImpl[T]) Eq(a, b Vector) Mask             { return r.compare(cmpEq, a, b) }
func (r *regImpl[T]) Ne(a, b Vector) Mask             { return r.compare(cmpNe, a, b) }
func (r *regImpl[T]) Lt(a, b Vector) Mask             { return r.compare(cmpLt, a, b) }
func (r *regImpl[T]) Le(a, b Vector) Mask             { return r.compare(cmpLe, a, b) }
func (r *regImpl[T]) Gt(a, b Vector) Mask             { return r.compare(cmpGt, a, b) }
func (r *regImpl[T]) Ge(a, b Vector) Mask             { return r.compare(cmpGe, a, b) }
func (r *regImpl[T]) IsGreater(a, b Vector) Mask      { return r.compare(cmpIsGreater, a, b) }
func (r *regImpl[T]) IsGreaterEqual(a, b Vector) Mask { return r.compare(cmpIsGreaterEqual, a, b) }
func (r *regImpl[T]) IsLess(a, b Vector) Mask         { return r.compare(cmpIsLess, a, b) }
func (r *regImpl[T]) IsLessEqual(a, b Vector) Mask    { return r.compare(cmpIsLessEqual, a, b) }
func (r *regImpl[T]) IsLessGreater(a, b Vector) Mask  { return r.compare(cmpIsLessGreater, a, b) }
func (r *regImpl[T]) IsUnordered(a, b Vector) Mask    { return r.compare(cmpIsUnordered, a, b) }

func (r *regImpl[T]) classify(op classOp, a Vector) Mask {
	out := Mask{regs: make([]Reg, r.count)}
	for j := range out.regs {
		out.regs[j] = r.k.class[op](r.l, &a.regs[j])
		r.clip(&out.regs[j])
	}
	return out
}

func (r *regImpl[T]) IsNaN(a Vector) Mask    { return r.classify(clsNaN, a) }
func (r *regImpl[T]) IsInf(a Vector) Mask    { return r.classify(clsInf, a) }
func (r *regImpl[T]) IsFinite(a Vector) Mask { return r.classify(clsFinite, a) }
func (r *regImpl[T]) IsNormal(a Vector) Mask { return r.classify(clsNormal, a) }
func (r *regImpl[T]) SignBit(a Vector) Mask  { return r.classify(clsSignBit, a) }

func (r *regImpl[T]) Select(m Mask, a, b Vector) Vector {
	out := r.alloc()
	for j := range out.regs {
		out.regs[j] = r.k.blend(r.l, &m.regs[j], &a.regs[j], &b.regs[j])
	}
	return out
}

// Reduce pads the padding lanes with the identity of op, folds the
// registers of an Array lane-wise, then reduces the last register.
func (r *regImpl[T]) Reduce(op ReduceOp, a Vector) T {
	id := r.l.broadcastBits(op.identity(r.l))
	im := r.l.implicitMask()
	regs := make([]Reg, r.count)
	for j := range regs {
		regs[j] = r.k.blend(r.l, &im, &a.regs[j], &id)
	}
	bin := r.k.bin[op.binOp()]
	acc := foldTree(regs, func(x, y Reg) Reg { return bin(r.l, &x, &y) })
	res := r.k.reduce[op](r.l, &acc)
	return fromBits[T](r.l.lane(&res, 0))
}

func (r *regImpl[T]) ReduceFunc(a Vector, fn func(x, y T) T) T {
	xs := make([]T, r.traits.Size)
	r.Store(a, xs)
	return foldTree(xs, fn)
}

func (r *regImpl[T]) ReduceMin(a Vector) T { return r.Reduce(OpMin, a) }
func (r *regImpl[T]) ReduceMax(a Vector) T { return r.Reduce(OpMax, a) }

func (r *regImpl[T]) MaskBroadcast(v bool) Mask {
	out := Mask{regs: make([]Reg, r.count)}
	if v {
		for j := range out.regs {
			out.regs[j] = r.l.implicitMask()
		}
	}
	return out
}

func (r *regImpl[T]) MaskLoad(src []bool) Mask {
	check.Buffer(len(src), r.traits.Size)
	return r.MaskFromBits(bitmask.FromBools(src[:r.traits.Size]))
}

func (r *regImpl[T]) MaskStore(m Mask, dst []bool) {
	check.Buffer(len(dst), r.traits.Size)
	copy(dst, r.MaskToBits(m).Bools())
}

func (r *regImpl[T]) MaskGet(m Mask, i int) bool {
	j, lane := r.locate(i)
	return r.l.maskLane(&m.regs[j], lane)
}

func (r *regImpl[T]) MaskWith(m Mask, i int, v bool) Mask {
	return r.MaskFromBits(r.MaskToBits(m).With(i, v))
}

func (r *regImpl[T]) maskLogic(a, b Mask, fn func(x, y uint64) uint64) Mask {
	out := Mask{regs: make([]Reg, r.count)}
	for j := range out.regs {
		for w := 0; w < r.l.maskWords(); w++ {
			out.regs[j][w] = fn(a.regs[j][w], b.regs[j][w])
		}
		r.clip(&out.regs[j])
	}
	return out
}

func (r *regImpl[T]) MaskAnd(a, b Mask) Mask {
	return r.maskLogic(a, b, func(x, y uint64) uint64 { return x & y })
}

func (r *regImpl[T]) MaskOr(a, b Mask) Mask {
	return r.maskLogic(a, b, func(x, y uint64) uint64 { return x | y })
}

func (r *regImpl[T]) MaskXor(a, b Mask) Mask {
	return r.maskLogic(a, b, func(x, y uint64) uint64 { return x ^ y })
}

func (r *regImpl[T]) MaskAndNot(a, b Mask) Mask {
	return r.maskLogic(a, b, func(x, y uint64) uint64 { return x &^ y })
}

func (r *regImpl[T]) MaskNot(m Mask) Mask {
	return r.maskLogic(m, m, func(x, _ uint64) uint64 { return ^x })
}

func (r *regImpl[T]) MaskEq(a, b Mask) Mask {
	return r.maskLogic(a, b, func(x, y uint64) uint64 { return ^(x ^ y) })
}

func (r *regImpl[T]) All(m Mask) bool {
	for j := range m.regs {
		if !r.k.all(r.l, &m.regs[j]) {
			return false
		}
	}
	return true
}

func (r *regImpl[T]) Any(m Mask) bool {
	for j := range m.regs {
		if r.k.any(r.l, &m.regs[j]) {
			return true
		}
	}
	return false
}

func (r *regImpl[T]) None(m Mask) bool { return !r.Any(m) }
func (r *regImpl[T]) Some(m Mask) bool { return r.Any(m) && !r.All(m) }

func (r *regImpl[T]) Count(m Mask) int {
	n := 0
	for j := range m.regs {
		n += r.k.count(r.l, &m.regs[j])
	}
	return n
}

func (r *regImpl[T]) MinIndex(m Mask) int {
	b := r.MaskToBits(m)
	check.NotEmpty(b.Any(), "MinIndex")
	return b.FirstSet()
}

func (r *regImpl[T]) MaxIndex(m Mask) int {
	b := r.MaskToBits(m)
	check.NotEmpty(b.Any(), "MaxIndex")
	return b.LastSet()
}

// MaskToBits concatenates the lane bits of every register, lowest register
// first.
func (r *regImpl[T]) MaskToBits(m Mask) bitmask.BitMask {
	acc := bitmask.New(0)
	for j := range m.regs {
		w := r.k.toBits(r.l, &m.regs[j]) & r.l.implicitBits
		acc = bitmask.FromWord(r.l.size, w).Prepend(acc)
	}
	return acc
}

func (r *regImpl[T]) MaskFromBits(b bitmask.BitMask) Mask {
	check.Buffer(b.Len(), r.traits.Size)
	out := Mask{regs: make([]Reg, r.count)}
	for j := range out.regs {
		w := b.Extract(j*r.l.size, r.l.size).Word(0)
		out.regs[j] = r.k.fromBits(r.l, w)
		r.clip(&out.regs[j])
	}
	return out
}

func (r *regImpl[T]) Bits(v Vector) []uint64 {
	out := make([]uint64, r.traits.Size)
	for i := range out {
		out[i] = r.l.lane(&v.regs[i/r.l.size], i%r.l.size)
	}
	return out
}

func (r *regImpl[T]) Poison(v Vector, seed uint64) Vector {
	out := Vector{regs: append([]Reg(nil), v.regs...)}
	for j := range out.regs {
		for i := r.l.size; i < r.l.full; i++ {
			r.l.set(&out.regs[j], i, poisonBits(seed, j*r.l.full+i))
		}
	}
	return out
}

// poisonBits cycles through adversarial lane patterns, ending with a hash of
// seed.
func poisonBits(seed uint64, i int) uint64 {
	switch (seed + uint64(i)) % 6 {
	case 0:
		return ^uint64(0)
	case 1:
		return 0x8080808080808080
	case 2:
		return 0x7ff8000000000001
	case 3:
		return 0x7f8000007f800000
	case 4:
		return 0
	default:
		x := seed*0x9e3779b97f4a7c15 + uint64(i)
		return x ^ x>>29
	}
}
