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

// Package simd provides fixed-width data-parallel vectors whose storage is
// chosen per element type, width and CPU.
//
// A Shape fixes the element type and the logical lane count N. Creating it
// resolves the physical layout once (a single register, possibly padded, an
// array of registers, or a combination of register sizes) and binds the
// operation table for the host's features. Vectors and masks created from
// a shape are immutable values.
//
// Basic usage:
//
//	s := simd.MustShape[float32](7)
//	a := s.Load(data1)
//	b := s.Load(data2)
//	sum := simd.ReduceSum(simd.Mul(a, b))
//
// Widths that do not match a register are handled by the layout: padding
// lanes never leak into reductions, comparisons or stores.
package simd

import (
	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/bitmask"
	"github.com/ajroetker/go-stdsimd/simd/features"
	"github.com/ajroetker/go-stdsimd/simd/ops"
)

// Floats is a constraint for floating-point types.
type Floats = abi.Floats

// SignedInts is a constraint for signed integer types.
type SignedInts = abi.SignedInts

// UnsignedInts is a constraint for unsigned integer types.
type UnsignedInts = abi.UnsignedInts

// Integers is a constraint for all integer types.
type Integers = abi.Integers

// Lanes is a constraint for all types that can be stored in vector lanes.
type Lanes = abi.Lanes

// Shape is a resolved vector layout of N lanes of T together with its
// operation table.
type Shape[T Lanes] struct {
	impl ops.Impl[T]
	n    int
	set  features.Set
}

// NewShape resolves an n-lane shape for the host CPU.
func NewShape[T Lanes](n int) (*Shape[T], error) {
	return NewShapeFor[T](n, features.Host())
}

// NewShapeFor resolves an n-lane shape for the feature set s. Use
// ops.ConstEval for the portable per-lane implementation.
func NewShapeFor[T Lanes](n int, s features.Set) (*Shape[T], error) {
	impl, err := ops.For[T](n, s)
	if err != nil {
		return nil, err
	}
	return &Shape[T]{impl: impl, n: n, set: s}, nil
}

// MustShape is like NewShape but panics on error. It is meant for shapes
// fixed at package initialization.
func MustShape[T Lanes](n int) *Shape[T] {
	s, err := NewShape[T](n)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the logical lane count N.
func (s *Shape[T]) Len() int { return s.n }

// Features returns the feature set the shape was resolved for.
func (s *Shape[T]) Features() features.Set { return s.set }

// Traits describes the storage of the shape.
func (s *Shape[T]) Traits() abi.Traits { return s.impl.Traits() }

// Variant returns the resolved layout.
func (s *Shape[T]) Variant() abi.Variant { return s.impl.Traits().Variant }

// Kernels lists the kernel bound to every operation.
func (s *Shape[T]) Kernels() []ops.KernelInfo { return s.impl.Kernels() }

func (s *Shape[T]) vec(v ops.Vector) Vec[T]  { return Vec[T]{s: s, v: v} }
func (s *Shape[T]) mask(m ops.Mask) Mask[T] { return Mask[T]{s: s, m: m} }

// Zero returns a vector with every lane zero.
func (s *Shape[T]) Zero() Vec[T] { return s.vec(s.impl.Zero()) }

// Set returns a vector with every lane set to x.
func (s *Shape[T]) Set(x T) Vec[T] { return s.vec(s.impl.Broadcast(x)) }

// Load reads N lanes from src, which must hold at least N elements.
func (s *Shape[T]) Load(src []T) Vec[T] { return s.vec(s.impl.Load(src)) }

// Iota returns 0, 1, 2, ... N-1.
func (s *Shape[T]) Iota() Vec[T] { return s.vec(s.impl.Iota(0)) }

// Generate returns a vector whose lane i is fn(i).
func (s *Shape[T]) Generate(fn func(i int) T) Vec[T] { return s.vec(s.impl.Generate(fn)) }

// MaskSet returns a mask with every lane set to v.
func (s *Shape[T]) MaskSet(v bool) Mask[T] { return s.mask(s.impl.MaskBroadcast(v)) }

// MaskFromBools reads N lanes from b.
func (s *Shape[T]) MaskFromBools(b []bool) Mask[T] { return s.mask(s.impl.MaskLoad(b)) }

// MaskFromBits converts a bit-mask of at least N bits, lane i from bit i.
func (s *Shape[T]) MaskFromBits(b bitmask.BitMask) Mask[T] {
	return s.mask(s.impl.MaskFromBits(b))
}

// FirstN returns a mask with the first count lanes set. count is clamped
// to [0, N].
func (s *Shape[T]) FirstN(count int) Mask[T] {
	count = max(0, min(count, s.n))
	b := bitmask.New(s.n)
	for i := range count {
		b = b.With(i, true)
	}
	return s.MaskFromBits(b)
}
