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
	"fmt"

	"github.com/ajroetker/go-stdsimd/simd/internal/check"
	"github.com/ajroetker/go-stdsimd/simd/ops"
)

// Vec is an immutable vector of Len() lanes of T. The zero Vec is not
// usable; vectors come from a Shape.
type Vec[T Lanes] struct {
	s *Shape[T]
	v ops.Vector
}

// Violation is the panic value of a failed precondition check. Checks run
// only in debug builds (the simddebug tag or GOSIMD_DEBUG set).
type Violation = check.Violation

// ViolationKind classifies a Violation.
type ViolationKind = check.Kind

// Precondition violation kinds.
const (
	InvalidShiftAmount      = check.InvalidShiftAmount
	LaneOutOfRange          = check.LaneOutOfRange
	EmptyMask               = check.EmptyMask
	MaskedAccessOutOfBounds = check.MaskedAccessOutOfBounds
	ShortBuffer             = check.ShortBuffer
	SizeMismatch            = check.SizeMismatch
)

// DebugChecks reports whether precondition checks are active.
func DebugChecks() bool { return check.Enabled() }

// Shape returns the shape v was created from.
func (v Vec[T]) Shape() *Shape[T] { return v.s }

// NumLanes returns the logical lane count.
func (v Vec[T]) NumLanes() int { return v.s.n }

// Get returns lane i.
func (v Vec[T]) Get(i int) T { return v.s.impl.Get(v.v, i) }

// With returns a copy of v with lane i replaced by x.
func (v Vec[T]) With(i int, x T) Vec[T] { return v.s.vec(v.s.impl.With(v.v, i, x)) }

// Store writes the lanes to dst, which must hold at least NumLanes elements.
func (v Vec[T]) Store(dst []T) { v.s.impl.Store(v.v, dst) }

// Data returns the lanes as a new slice.
func (v Vec[T]) Data() []T {
	out := make([]T, v.s.n)
	v.Store(out)
	return out
}

// String formats the lanes like a slice.
func (v Vec[T]) String() string { return fmt.Sprint(v.Data()) }

// same panics when a and b come from different shapes.
func same[T Lanes](a, b *Shape[T]) {
	if a != b && !a.Variant().Equal(b.Variant()) {
		panic(fmt.Sprintf("simd: mixing %s and %s vectors", a.Variant(), b.Variant()))
	}
}

func bin[T Lanes](a, b Vec[T], fn func(ops.Impl[T], ops.Vector, ops.Vector) ops.Vector) Vec[T] {
	same(a.s, b.s)
	return a.s.vec(fn(a.s.impl, a.v, b.v))
}

func un[T Lanes](a Vec[T], fn func(ops.Impl[T], ops.Vector) ops.Vector) Vec[T] {
	return a.s.vec(fn(a.s.impl, a.v))
}

func compare[T Lanes](a, b Vec[T], fn func(ops.Impl[T], ops.Vector, ops.Vector) ops.Mask) Mask[T] {
	same(a.s, b.s)
	return a.s.mask(fn(a.s.impl, a.v, b.v))
}

func classify[T Lanes](a Vec[T], fn func(ops.Impl[T], ops.Vector) ops.Mask) Mask[T] {
	return a.s.mask(fn(a.s.impl, a.v))
}

// Add returns a + b. Integer lanes wrap.
func Add[T Lanes](a, b Vec[T]) Vec[T] { return bin(a, b, ops.Impl[T].Add) }

// Sub returns a - b. Integer lanes wrap.
func Sub[T Lanes](a, b Vec[T]) Vec[T] { return bin(a, b, ops.Impl[T].Sub) }

// Mul returns a * b. Integer lanes keep the low bits of the product.
func Mul[T Lanes](a, b Vec[T]) Vec[T] { return bin(a, b, ops.Impl[T].Mul) }

// Div returns a / b. Integer division by zero is undefined.
func Div[T Lanes](a, b Vec[T]) Vec[T] { return bin(a, b, ops.Impl[T].Div) }

// Mod returns the remainder of a / b, with the sign of a.
func Mod[T Lanes](a, b Vec[T]) Vec[T] { return bin(a, b, ops.Impl[T].Mod) }

// Min returns the lane-wise minimum. For floats Min(a, b) is b < a ? b : a.
func Min[T Lanes](a, b Vec[T]) Vec[T] { return bin(a, b, ops.Impl[T].Min) }

// Max returns the lane-wise maximum. For floats Max(a, b) is a < b ? b : a.
func Max[T Lanes](a, b Vec[T]) Vec[T] { return bin(a, b, ops.Impl[T].Max) }

// And returns the bitwise AND of the lane bit patterns.
func And[T Lanes](a, b Vec[T]) Vec[T] { return bin(a, b, ops.Impl[T].And) }

// Or returns the bitwise OR of the lane bit patterns.
func Or[T Lanes](a, b Vec[T]) Vec[T] { return bin(a, b, ops.Impl[T].Or) }

// Xor returns the bitwise XOR of the lane bit patterns.
func Xor[T Lanes](a, b Vec[T]) Vec[T] { return bin(a, b, ops.Impl[T].Xor) }

// AndNot returns a &^ b.
func AndNot[T Lanes](a, b Vec[T]) Vec[T] { return bin(a, b, ops.Impl[T].AndNot) }

// Neg returns -a.
func Neg[T Lanes](a Vec[T]) Vec[T] { return un(a, ops.Impl[T].Neg) }

// Abs returns |a|. The most negative integer maps to itself.
func Abs[T Lanes](a Vec[T]) Vec[T] { return un(a, ops.Impl[T].Abs) }

// Not returns the bitwise complement.
func Not[T Lanes](a Vec[T]) Vec[T] { return un(a, ops.Impl[T].Not) }

// Inc returns a + 1.
func Inc[T Lanes](a Vec[T]) Vec[T] { return un(a, ops.Impl[T].Inc) }

// Dec returns a - 1.
func Dec[T Lanes](a Vec[T]) Vec[T] { return un(a, ops.Impl[T].Dec) }

// ShiftLeft shifts every lane left by n, which must be in [0, bits).
func ShiftLeft[T Integers](a Vec[T], n int) Vec[T] {
	return a.s.vec(a.s.impl.ShiftLeft(a.v, n))
}

// ShiftRight shifts every lane right by n, arithmetic for signed lanes.
// n must be in [0, bits).
func ShiftRight[T Integers](a Vec[T], n int) Vec[T] {
	return a.s.vec(a.s.impl.ShiftRight(a.v, n))
}

// ShiftLeftVar shifts lane i left by n[i].
func ShiftLeftVar[T Integers](a, n Vec[T]) Vec[T] { return bin(a, n, ops.Impl[T].ShiftLeftVar) }

// ShiftRightVar shifts lane i right by n[i].
func ShiftRightVar[T Integers](a, n Vec[T]) Vec[T] { return bin(a, n, ops.Impl[T].ShiftRightVar) }

// Sqrt returns the correctly rounded square root.
func Sqrt[T Floats](a Vec[T]) Vec[T] { return un(a, ops.Impl[T].Sqrt) }

// Trunc rounds toward zero.
func Trunc[T Floats](a Vec[T]) Vec[T] { return un(a, ops.Impl[T].Trunc) }

// Round rounds to nearest, ties away from zero.
func Round[T Floats](a Vec[T]) Vec[T] { return un(a, ops.Impl[T].Round) }

// Ceil rounds toward positive infinity.
func Ceil[T Floats](a Vec[T]) Vec[T] { return un(a, ops.Impl[T].Ceil) }

// Floor rounds toward negative infinity.
func Floor[T Floats](a Vec[T]) Vec[T] { return un(a, ops.Impl[T].Floor) }

// NearbyInt rounds to nearest, ties to even.
func NearbyInt[T Floats](a Vec[T]) Vec[T] { return un(a, ops.Impl[T].NearbyInt) }

// Rint rounds to nearest, ties to even.
func Rint[T Floats](a Vec[T]) Vec[T] { return un(a, ops.Impl[T].Rint) }

// Equal returns a mask of the lanes where a == b.
func Equal[T Lanes](a, b Vec[T]) Mask[T] { return compare(a, b, ops.Impl[T].Eq) }

// NotEqual returns a mask of the lanes where a != b. NaN lanes are set.
func NotEqual[T Lanes](a, b Vec[T]) Mask[T] { return compare(a, b, ops.Impl[T].Ne) }

// LessThan returns a mask of the lanes where a < b.
func LessThan[T Lanes](a, b Vec[T]) Mask[T] { return compare(a, b, ops.Impl[T].Lt) }

// LessEqual returns a mask of the lanes where a <= b.
func LessEqual[T Lanes](a, b Vec[T]) Mask[T] { return compare(a, b, ops.Impl[T].Le) }

// GreaterThan returns a mask of the lanes where a > b.
func GreaterThan[T Lanes](a, b Vec[T]) Mask[T] { return compare(a, b, ops.Impl[T].Gt) }

// GreaterEqual returns a mask of the lanes where a >= b.
func GreaterEqual[T Lanes](a, b Vec[T]) Mask[T] { return compare(a, b, ops.Impl[T].Ge) }

// IsGreater is the quiet a > b.
func IsGreater[T Floats](a, b Vec[T]) Mask[T] { return compare(a, b, ops.Impl[T].IsGreater) }

// IsGreaterEqual is the quiet a >= b.
func IsGreaterEqual[T Floats](a, b Vec[T]) Mask[T] { return compare(a, b, ops.Impl[T].IsGreaterEqual) }

// IsLess is the quiet a < b.
func IsLess[T Floats](a, b Vec[T]) Mask[T] { return compare(a, b, ops.Impl[T].IsLess) }

// IsLessEqual is the quiet a <= b.
func IsLessEqual[T Floats](a, b Vec[T]) Mask[T] { return compare(a, b, ops.Impl[T].IsLessEqual) }

// IsLessGreater sets the lanes where a < b or a > b.
func IsLessGreater[T Floats](a, b Vec[T]) Mask[T] { return compare(a, b, ops.Impl[T].IsLessGreater) }

// IsUnordered sets the lanes where either operand is NaN.
func IsUnordered[T Floats](a, b Vec[T]) Mask[T] { return compare(a, b, ops.Impl[T].IsUnordered) }

// IsNaN returns a mask of the NaN lanes.
func IsNaN[T Floats](a Vec[T]) Mask[T] { return classify(a, ops.Impl[T].IsNaN) }

// IsInf returns a mask of the infinite lanes.
func IsInf[T Floats](a Vec[T]) Mask[T] { return classify(a, ops.Impl[T].IsInf) }

// IsFinite returns a mask of the lanes that are neither NaN nor infinite.
func IsFinite[T Floats](a Vec[T]) Mask[T] { return classify(a, ops.Impl[T].IsFinite) }

// IsNormal returns a mask of the normal, non-zero lanes.
func IsNormal[T Floats](a Vec[T]) Mask[T] { return classify(a, ops.Impl[T].IsNormal) }

// SignBit returns a mask of the lanes whose sign bit is set, including -0
// and negative NaNs.
func SignBit[T Lanes](a Vec[T]) Mask[T] { return classify(a, ops.Impl[T].SignBit) }

// IfThenElse returns yes where mask is set and no elsewhere.
func IfThenElse[T Lanes](mask Mask[T], yes, no Vec[T]) Vec[T] {
	same(mask.s, yes.s)
	same(yes.s, no.s)
	return yes.s.vec(yes.s.impl.Select(mask.m, yes.v, no.v))
}

// IfThenElseZero returns yes where mask is set and zero elsewhere.
func IfThenElseZero[T Lanes](mask Mask[T], yes Vec[T]) Vec[T] {
	return IfThenElse(mask, yes, yes.s.Zero())
}

// IfThenZeroElse returns zero where mask is set and no elsewhere.
func IfThenZeroElse[T Lanes](mask Mask[T], no Vec[T]) Vec[T] {
	return IfThenElse(mask, no.s.Zero(), no)
}

// MaskLoad reads the lanes selected by mask from src and zeroes the rest.
// Unselected lanes never touch src, so src may be shorter than NumLanes.
func MaskLoad[T Lanes](mask Mask[T], src []T) Vec[T] {
	return mask.s.vec(mask.s.impl.MaskedLoad(mask.m, src))
}

// MaskStore writes the lanes of v selected by mask to dst and leaves the
// other elements untouched.
func MaskStore[T Lanes](mask Mask[T], v Vec[T], dst []T) {
	same(mask.s, v.s)
	v.s.impl.MaskedStore(v.v, mask.m, dst)
}

// ReduceSum returns the sum of all lanes. Float sums use a halving tree
// order that is the same on every CPU.
func ReduceSum[T Lanes](v Vec[T]) T { return v.s.impl.Reduce(ops.OpPlus, v.v) }

// ReduceProduct returns the product of all lanes.
func ReduceProduct[T Lanes](v Vec[T]) T { return v.s.impl.Reduce(ops.OpMul, v.v) }

// ReduceMin returns the smallest lane.
func ReduceMin[T Lanes](v Vec[T]) T { return v.s.impl.ReduceMin(v.v) }

// ReduceMax returns the largest lane.
func ReduceMax[T Lanes](v Vec[T]) T { return v.s.impl.ReduceMax(v.v) }

// ReduceAnd returns the bitwise AND of all lanes.
func ReduceAnd[T Integers](v Vec[T]) T { return v.s.impl.Reduce(ops.OpAnd, v.v) }

// ReduceOr returns the bitwise OR of all lanes.
func ReduceOr[T Integers](v Vec[T]) T { return v.s.impl.Reduce(ops.OpOr, v.v) }

// ReduceXor returns the bitwise XOR of all lanes.
func ReduceXor[T Integers](v Vec[T]) T { return v.s.impl.Reduce(ops.OpXor, v.v) }

// Reduce folds the lanes with fn in the halving tree order. fn should be
// associative; it is never called with padding lanes.
func Reduce[T Lanes](v Vec[T], fn func(x, y T) T) T { return v.s.impl.ReduceFunc(v.v, fn) }
