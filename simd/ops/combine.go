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

// part is one chunk of a Combine layout: a leaf or Array with its own
// table, holding logical lanes [off, off+size) in registers [reg, reg+n).
type part[T abi.Lanes] struct {
	impl      *regImpl[T]
	off, size int
	reg, n    int
}

func (p *part[T]) vec(v Vector) Vector {
	return Vector{regs: v.regs[p.reg : p.reg+p.n]}
}

// combineImpl implements Combine layouts. Vector operations run chunk by
// chunk; masks are kept packed as one bit-mask over all logical lanes and
// converted to each chunk's native form with Extract, back with Prepend.
type combineImpl[T abi.Lanes] struct {
	traits abi.Traits
	parts  []part[T]
	o      laneOps[T]
	nregs  int
}

func newCombineImpl[T abi.Lanes](t abi.Traits, s features.Set) *combineImpl[T] {
	c := &combineImpl[T]{traits: t, o: newLaneOps[T]()}
	off := 0
	for _, v := range t.Variant.Chunks() {
		sub := newRegImpl[T](abi.TraitsOf(t.Kind, v), s)
		c.parts = append(c.parts, part[T]{impl: sub, off: off, size: v.Size(), reg: c.nregs, n: sub.count})
		off += v.Size()
		c.nregs += sub.count
	}
	return c
}

func (c *combineImpl[T]) Traits() abi.Traits { return c.traits }

// Kernels lists the tables of every chunk, each operation prefixed with the
// chunk layout.
func (c *combineImpl[T]) Kernels() []KernelInfo {
	var out []KernelInfo
	for i := range c.parts {
		prefix := c.parts[i].impl.traits.Variant.String() + " "
		for _, ki := range c.parts[i].impl.Kernels() {
			out = append(out, KernelInfo{Op: prefix + ki.Op, Kernel: ki.Kernel})
		}
	}
	return out
}

func (c *combineImpl[T]) join(fn func(p *part[T]) Vector) Vector {
	out := Vector{regs: make([]Reg, 0, c.nregs)}
	for i := range c.parts {
		out.regs = append(out.regs, fn(&c.parts[i]).regs...)
	}
	return out
}

func (c *combineImpl[T]) map1(a Vector, fn func(r *regImpl[T], a Vector) Vector) Vector {
	return c.join(func(p *part[T]) Vector { return fn(p.impl, p.vec(a)) })
}

func (c *combineImpl[T]) map2(a, b Vector, fn func(r *regImpl[T], a, b Vector) Vector) Vector {
	return c.join(func(p *part[T]) Vector { return fn(p.impl, p.vec(a), p.vec(b)) })
}

// pack concatenates per-chunk masks into the packed form.
func (c *combineImpl[T]) pack(fn func(p *part[T]) Mask) Mask {
	acc := bitmask.New(0)
	for i := range c.parts {
		p := &c.parts[i]
		acc = p.impl.MaskToBits(fn(p)).Prepend(acc)
	}
	return Mask{packed: acc}
}

// unpack converts the lanes of chunk p to its native mask.
func (c *combineImpl[T]) unpack(m Mask, p *part[T]) Mask {
	return p.impl.MaskFromBits(m.packed.Extract(p.off, p.size))
}

func (c *combineImpl[T]) find(i int) *part[T] {
	check.Lane(i, c.traits.Size)
	for j := range c.parts {
		if p := &c.parts[j]; i < p.off+p.size {
			return p
		}
	}
	return &c.parts[len(c.parts)-1]
}

func (c *combineImpl[T]) Zero() Vector {
	return c.join(func(p *part[T]) Vector { return p.impl.Zero() })
}

func (c *combineImpl[T]) Broadcast(x T) Vector {
	return c.join(func(p *part[T]) Vector { return p.impl.Broadcast(x) })
}

func (c *combineImpl[T]) Load(src []T) Vector {
	check.Buffer(len(src), c.traits.Size)
	return c.join(func(p *part[T]) Vector { return p.impl.Load(src[p.off : p.off+p.size]) })
}

func (c *combineImpl[T]) Store(v Vector, dst []T) {
	check.Buffer(len(dst), c.traits.Size)
	for i := range c.parts {
		p := &c.parts[i]
		p.impl.Store(p.vec(v), dst[p.off:p.off+p.size])
	}
}

func (c *combineImpl[T]) MaskedLoad(m Mask, src []T) Vector {
	return c.join(func(p *part[T]) Vector {
		return p.impl.MaskedLoad(c.unpack(m, p), window(src, p.off))
	})
}

func (c *combineImpl[T]) MaskedStore(v Vector, m Mask, dst []T) {
	for i := range c.parts {
		p := &c.parts[i]
		p.impl.MaskedStore(p.vec(v), c.unpack(m, p), window(dst, p.off))
	}
}

func (c *combineImpl[T]) Get(v Vector, i int) T {
	p := c.find(i)
	return p.impl.Get(p.vec(v), i-p.off)
}

func (c *combineImpl[T]) With(v Vector, i int, x T) Vector {
	p := c.find(i)
	out := Vector{regs: append([]Reg(nil), v.regs...)}
	copy(out.regs[p.reg:], p.impl.With(p.vec(v), i-p.off, x).regs)
	return out
}

func (c *combineImpl[T]) Generate(fn func(i int) T) Vector {
	return c.join(func(p *part[T]) Vector {
		return p.impl.Generate(func(i int) T { return fn(p.off + i) })
	})
}

func (c *combineImpl[T]) Iota(start T) Vector {
	return c.Generate(func(i int) T { return start + T(i) })
}

func (c *combineImpl[T]) Add(a, b Vector) Vector    { return c.map2(a, b, (*regImpl[T]).Add) }
func (c *combineImpl[T]) Sub(a, b Vector) Vector    { return c.map2(a, b, (*regImpl[T]).Sub) }
func (c *combineImpl[T]) Mul(a, b Vector) Vector    { return c.map2(a, b, (*regImpl[T]).Mul) }
func (c *combineImpl[T]) Div(a, b Vector) Vector    { return c.map2(a, b, (*regImpl[T]).Div) }
func (c *combineImpl[T]) Mod(a, b Vector) Vector    { return c.map2(a, b, (*regImpl[T]).Mod) }
func (c *combineImpl[T]) Min(a, b Vector) Vector    { return c.map2(a, b, (*regImpl[T]).Min) }
func (c *combineImpl[T]) Max(a, b Vector) Vector    { return c.map2(a, b, (*regImpl[T]).Max) }
func (c *combineImpl[T]) And(a, b Vector) Vector    { return c.map2(a, b, (*regImpl[T]).And) }
func (c *combineImpl[T]) Or(a, b Vector) Vector     { return c.map2(a, b, (*regImpl[T]).Or) }
func (c *combineImpl[T]) Xor(a, b Vector) Vector    { return c.map2(a, b, (*regImpl[T]).Xor) }
func (c *combineImpl[T]) AndNot(a, b Vector) Vector { return c.map2(a, b, (*regImpl[T]).AndNot) }

func (c *combineImpl[T]) Neg(a Vector) Vector       { return c.map1(a, (*regImpl[T]).Neg) }
func (c *combineImpl[T]) Abs(a Vector) Vector       { return c.map1(a, (*regImpl[T]).Abs) }
func (c *combineImpl[T]) Not(a Vector) Vector       { return c.map1(a, (*regImpl[T]).Not) }
func (c *combineImpl[T]) Inc(a Vector) Vector       { return c.map1(a, (*regImpl[T]).Inc) }
func (c *combineImpl[T]) Dec(a Vector) Vector       { return c.map1(a, (*regImpl[T]).Dec) }
func (c *combineImpl[T]) Sqrt(a Vector) Vector      { return c.map1(a, (*regImpl[T]).Sqrt) }
func (c *combineImpl[T]) Trunc(a Vector) Vector     { return c.map1(a, (*regImpl[T]).Trunc) }
func (c *combineImpl[T]) Round(a Vector) Vector     { return c.map1(a, (*regImpl[T]).Round) }
func (c *combineImpl[T]) Ceil(a Vector) Vector      { return c.map1(a, (*regImpl[T]).Ceil) }
func (c *combineImpl[T]) Floor(a Vector) Vector     { return c.map1(a, (*regImpl[T]).Floor) }
func (c *combineImpl[T]) NearbyInt(a Vector) Vector { return c.map1(a, (*regImpl[T]).NearbyInt) }
func (c *combineImpl[T]) Rint(a Vector) Vector      { return c.map1(a, (*regImpl[T]).Rint) }

func (c *combineImpl[T]) ShiftLeft(a Vector, n int) Vector {
	check.Shift(n, c.o.bits)
	return c.map1(a, func(r *regImpl[T], a Vector) Vector { return r.ShiftLeft(a, n) })
}

func (c *combineImpl[T]) ShiftRight(a Vector, n int) Vector {
	check.Shift(n, c.o.bits)
	return c.map1(a, func(r *regImpl[T], a Vector) Vector { return r.ShiftRight(a, n) })
}

func (c *combineImpl[T]) ShiftLeftVar(a, n Vector) Vector {
	return c.map2(a, n, (*regImpl[T]).ShiftLeftVar)
}

func (c *combineImpl[T]) ShiftRightVar(a, n Vector) Vector {
	return c.map2(a, n, (*regImpl[T]).ShiftRightVar)
}

func (c *combineImpl[T]) compare(a, b Vector, fn func(r *regImpl[T], a, b Vector) Mask) Mask {
	return c.pack(func(p *part[T]) Mask { return fn(p.impl, p.vec(a), p.vec(b)) })
}

func (c *combineImpl[T]) Eq(a, b Vector) Mask { return c.compare(a, b, (*regImpl[T]).Eq) }
func (c *combineImpl[T]) Ne(a, b Vector) Mask { return c.compare(a, b, (*regImpl[T]).Ne) }
func (c *combineImpl[T]) Lt(a, b Vector) Mask { return c.compare(a, b, (*regImpl[T]).Lt) }
func (c *combineImpl[T]) Le(a, b Vector) Mask { return c.compare(a, b, (*regImpl[T]).Le) }
func (c *combineImpl[T]) Gt(a, b Vector) Mask { return c.compare(a, b, (*regImpl[T]).Gt) }
func (c *combineImpl[T]) Ge(a, b Vector) Mask { return c.compare(a, b, (*regImpl[T]).Ge) }

func (c *combineImpl[T]) IsGreater(a, b Vector) Mask {
	return c.compare(a, b, (*regImpl[T]).IsGreater)
}

func (c *combineImpl[T]) IsGreaterEqual(a, b Vector) Mask {
	return c.compare(a, b, (*regImpl[T]).IsGreaterEqual)
}

func (c *combineImpl[T]) IsLess(a, b Vector) Mask {
	return c.compare(a, b, (*regImpl[T]).IsLess)
}

func (c *combineImpl[T]) IsLessEqual(a, b Vector) Mask {
	return c.compare(a, b, (*regImpl[T]).IsLessEqual)
}

func (c *combineImpl[T]) IsLessGreater(a, b Vector) Mask {
	return c.compare(a, b, (*regImpl[T]).IsLessGreater)
}

func (c *combineImpl[T]) IsUnordered(a, b Vector) Mask {
	return c.compare(a, b, (*regImpl[T]).IsUnordered)
}

func (c *combineImpl[T]) classify(a Vector, fn func(r *regImpl[T], a Vector) Mask) Mask {
	return c.pack(func(p *part[T]) Mask { return fn(p.impl, p.vec(a)) })
}

func (c *combineImpl[T]) IsNaN(a Vector) Mask    { return c.classify(a, (*regImpl[T]).IsNaN) }
func (c *combineImpl[T]) IsInf(a Vector) Mask    { return c.classify(a, (*regImpl[T]).IsInf) }
func (c *combineImpl[T]) IsFinite(a Vector) Mask { return c.classify(a, (*regImpl[T]).IsFinite) }
func (c *combineImpl[T]) IsNormal(a Vector) Mask { return c.classify(a, (*regImpl[T]).IsNormal) }
func (c *combineImpl[T]) SignBit(a Vector) Mask  { return c.classify(a, (*regImpl[T]).SignBit) }

func (c *combineImpl[T]) Select(m Mask, a, b Vector) Vector {
	return c.join(func(p *part[T]) Vector {
		return p.impl.Select(c.unpack(m, p), p.vec(a), p.vec(b))
	})
}

// Reduce reduces every chunk to a scalar and folds the scalars with the
// same tree as the lanes of a register.
func (c *combineImpl[T]) Reduce(op ReduceOp, a Vector) T {
	xs := make([]T, len(c.parts))
	for i := range c.parts {
		p := &c.parts[i]
		xs[i] = p.impl.Reduce(op, p.vec(a))
	}
	bop := op.binOp()
	return foldTree(xs, func(x, y T) T { return c.o.binary(bop, x, y) })
}

func (c *combineImpl[T]) ReduceFunc(a Vector, fn func(x, y T) T) T {
	xs := make([]T, c.traits.Size)
	c.Store(a, xs)
	return foldTree(xs, fn)
}

func (c *combineImpl[T]) ReduceMin(a Vector) T { return c.Reduce(OpMin, a) }
func (c *combineImpl[T]) ReduceMax(a Vector) T { return c.Reduce(OpMax, a) }

func (c *combineImpl[T]) MaskBroadcast(v bool) Mask {
	if v {
		return Mask{packed: bitmask.Full(c.traits.Size)}
	}
	return Mask{packed: bitmask.New(c.traits.Size)}
}

func (c *combineImpl[T]) MaskLoad(src []bool) Mask {
	check.Buffer(len(src), c.traits.Size)
	return Mask{packed: bitmask.FromBools(src[:c.traits.Size])}
}

func (c *combineImpl[T]) MaskStore(m Mask, dst []bool) {
	check.Buffer(len(dst), c.traits.Size)
	copy(dst, m.packed.Bools())
}

func (c *combineImpl[T]) MaskGet(m Mask, i int) bool { return m.packed.Test(i) }

func (c *combineImpl[T]) MaskWith(m Mask, i int, v bool) Mask {
	return Mask{packed: m.packed.With(i, v)}
}

func (c *combineImpl[T]) MaskAnd(a, b Mask) Mask    { return Mask{packed: a.packed.And(b.packed)} }
func (c *combineImpl[T]) MaskOr(a, b Mask) Mask     { return Mask{packed: a.packed.Or(b.packed)} }
func (c *combineImpl[T]) MaskXor(a, b Mask) Mask    { return Mask{packed: a.packed.Xor(b.packed)} }
func (c *combineImpl[T]) MaskAndNot(a, b Mask) Mask { return Mask{packed: a.packed.AndNot(b.packed)} }
func (c *combineImpl[T]) MaskNot(m Mask) Mask       { return Mask{packed: m.packed.Not().Sanitize()} }

func (c *combineImpl[T]) MaskEq(a, b Mask) Mask {
	return Mask{packed: a.packed.Xor(b.packed).Not().Sanitize()}
}

func (c *combineImpl[T]) All(m Mask) bool  { return m.packed.All() }
func (c *combineImpl[T]) Any(m Mask) bool  { return m.packed.Any() }
func (c *combineImpl[T]) None(m Mask) bool { return m.packed.None() }
func (c *combineImpl[T]) Some(m Mask) bool { return m.packed.Any() && !m.packed.All() }
func (c *combineImpl[T]) Count(m Mask) int { return m.packed.Count() }

func (c *combineImpl[T]) MinIndex(m Mask) int {
	check.NotEmpty(m.packed.Any(), "MinIndex")
	return m.packed.FirstSet()
}

func (c *combineImpl[T]) MaxIndex(m Mask) int {
	check.NotEmpty(m.packed.Any(), "MaxIndex")
	return m.packed.LastSet()
}

func (c *combineImpl[T]) MaskToBits(m Mask) bitmask.BitMask { return m.packed }

func (c *combineImpl[T]) MaskFromBits(b bitmask.BitMask) Mask {
	check.Buffer(b.Len(), c.traits.Size)
	return Mask{packed: b.Extract(0, c.traits.Size)}
}

func (c *combineImpl[T]) Bits(v Vector) []uint64 {
	out := make([]uint64, 0, c.traits.Size)
	for i := range c.parts {
		p := &c.parts[i]
		out = append(out, p.impl.Bits(p.vec(v))...)
	}
	return out
}

func (c *combineImpl[T]) Poison(v Vector, seed uint64) Vector {
	return c.join(func(p *part[T]) Vector { return p.impl.Poison(p.vec(v), seed+uint64(p.off)) })
}
