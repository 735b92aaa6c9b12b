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

// Package ops implements the operation tables behind every resolved
// layout.
//
// A Vector holds one Reg per register-level chunk. An Impl built by New
// interprets that storage for one abi.Traits: the leaf families (Scalar,
// NativeVector, Avx512Like) and Array share a register implementation bound
// to a kernel table, Combine delegates to one implementation per chunk and
// packs its masks into a bitmask.BitMask.
//
// Kernel tables are chosen once per Impl from a features.Set. ConstEval
// binds the deterministic per-lane tier; any other set runs the hardware
// cascades, each ending in the same per-lane tier. Both must agree bit for
// bit, which the verify package checks.
package ops

import (
	"github.com/pkg/errors"

	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/bitmask"
	"github.com/ajroetker/go-stdsimd/simd/features"
)

// Vector is the storage of one vector value. It is immutable: operations
// return new values and never modify their operands.
type Vector struct {
	regs []Reg
}

// Mask is the storage of one mask value. Register layouts keep a native
// mask register per chunk; Combine keeps a packed bit-mask.
type Mask struct {
	regs   []Reg
	packed bitmask.BitMask
}

// Impl is the operation table of one resolved layout of T. Lane indices,
// buffer lengths and mask widths refer to the logical width Traits().Size.
type Impl[T abi.Lanes] interface {
	Traits() abi.Traits
	// Kernels lists the kernel bound to every operation.
	Kernels() []KernelInfo

	Zero() Vector
	Broadcast(x T) Vector
	Load(src []T) Vector
	Store(v Vector, dst []T)
	MaskedLoad(m Mask, src []T) Vector
	MaskedStore(v Vector, m Mask, dst []T)
	Get(v Vector, i int) T
	With(v Vector, i int, x T) Vector
	Generate(fn func(i int) T) Vector
	// Iota returns start, start+1, start+2, ...
	Iota(start T) Vector

	Add(a, b Vector) Vector
	Sub(a, b Vector) Vector
	Mul(a, b Vector) Vector
	Div(a, b Vector) Vector
	Mod(a, b Vector) Vector
	Min(a, b Vector) Vector
	Max(a, b Vector) Vector
	And(a, b Vector) Vector
	Or(a, b Vector) Vector
	Xor(a, b Vector) Vector
	AndNot(a, b Vector) Vector
	Neg(a Vector) Vector
	Abs(a Vector) Vector
	Not(a Vector) Vector
	Inc(a Vector) Vector
	Dec(a Vector) Vector

	ShiftLeft(a Vector, n int) Vector
	ShiftRight(a Vector, n int) Vector
	ShiftLeftVar(a, n Vector) Vector
	ShiftRightVar(a, n Vector) Vector

	Sqrt(a Vector) Vector
	Trunc(a Vector) Vector
	Round(a Vector) Vector
	Ceil(a Vector) Vector
	Floor(a Vector) Vector
	NearbyInt(a Vector) Vector
	Rint(a Vector) Vector

	Eq(a, b Vector) Mask
	Ne(a, b Vector) Mask
	Lt(a, b Vector) Mask
	Le(a, b Vector) Mask
	Gt(a, b Vector) Mask
	Ge(a, b Vector) Mask
	IsGreater(a, b Vector) Mask
	IsGreaterEqual(a, b Vector) Mask
	IsLess(a, b Vector) Mask
	IsLessEqual(a, b Vector) Mask
	IsLessGreater(a, b Vector) Mask
	IsUnordered(a, b Vector) Mask

	IsNaN(a Vector) Mask
	IsInf(a Vector) Mask
	IsFinite(a Vector) Mask
	IsNormal(a Vector) Mask
	SignBit(a Vector) Mask

	Select(m Mask, a, b Vector) Vector

	Reduce(op ReduceOp, a Vector) T
	ReduceFunc(a Vector, fn func(x, y T) T) T
	ReduceMin(a Vector) T
	ReduceMax(a Vector) T

	MaskBroadcast(v bool) Mask
	MaskLoad(src []bool) Mask
	MaskStore(m Mask, dst []bool)
	MaskGet(m Mask, i int) bool
	MaskWith(m Mask, i int, v bool) Mask
	MaskAnd(a, b Mask) Mask
	MaskOr(a, b Mask) Mask
	MaskXor(a, b Mask) Mask
	MaskAndNot(a, b Mask) Mask
	MaskNot(m Mask) Mask
	// MaskEq sets the lanes where a and b agree.
	MaskEq(a, b Mask) Mask
	All(m Mask) bool
	Any(m Mask) bool
	None(m Mask) bool
	// Some reports whether at least one lane but not every lane is set.
	Some(m Mask) bool
	Count(m Mask) int
	// MinIndex and MaxIndex return the first and last set lane. The mask
	// must have a lane set.
	MinIndex(m Mask) int
	MaxIndex(m Mask) int
	MaskToBits(m Mask) bitmask.BitMask
	MaskFromBits(b bitmask.BitMask) Mask

	// Bits returns the bit pattern of every logical lane.
	Bits(v Vector) []uint64
	// Poison fills the padding lanes of v with patterns derived from seed.
	// Logical results must not change; it exists for padding tests.
	Poison(v Vector, seed uint64) Vector
}

// ErrKindMismatch is returned by New when the traits describe a different
// element kind than T.
var ErrKindMismatch = errors.New("ops: traits kind does not match element type")

// New builds the operation table of t under capability set s.
func New[T abi.Lanes](t abi.Traits, s features.Set) (Impl[T], error) {
	if k := abi.KindOf[T](); k != t.Kind {
		return nil, errors.Wrapf(ErrKindMismatch, "traits for %s, element type %s", t.Kind, k)
	}
	if len(t.Chunks) == 0 {
		return nil, errors.Errorf("ops: traits for %s have no chunks", t.Variant)
	}
	if t.Variant.Kind() == abi.Combine {
		return newCombineImpl[T](t, s), nil
	}
	return newRegImpl[T](t, s), nil
}

// MustNew is like New but panics on error.
func MustNew[T abi.Lanes](t abi.Traits, s features.Set) Impl[T] {
	impl, err := New[T](t, s)
	if err != nil {
		panic(err)
	}
	return impl
}

// For resolves an n-lane layout of T under s and builds its table.
func For[T abi.Lanes](n int, s features.Set) (Impl[T], error) {
	t, err := abi.TraitsFor(abi.KindOf[T](), n, s)
	if err != nil {
		return nil, err
	}
	return New[T](t, s)
}

// foldTree combines xs pairwise, element i with element i+ceil(n/2), until
// one is left. The middle element of an odd-length pass carries over
// unchanged. For power-of-two lengths it is the halving order every
// register reduction uses.
func foldTree[E any](xs []E, fn func(x, y E) E) E {
	xs = append([]E(nil), xs...)
	for n := len(xs); n > 1; n = (n + 1) / 2 {
		h := (n + 1) / 2
		for i := 0; i < n/2; i++ {
			xs[i] = fn(xs[i], xs[i+h])
		}
	}
	return xs[0]
}
