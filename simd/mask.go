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
	"github.com/ajroetker/go-stdsimd/simd/bitmask"
	"github.com/ajroetker/go-stdsimd/simd/ops"
)

// Mask is an immutable per-lane boolean vector tied to a Shape. Padding
// lanes of the layout are never observable through it.
type Mask[T Lanes] struct {
	s *Shape[T]
	m ops.Mask
}

// NumLanes returns the logical lane count.
func (m Mask[T]) NumLanes() int { return m.s.n }

// GetBit returns lane i.
func (m Mask[T]) GetBit(i int) bool { return m.s.impl.MaskGet(m.m, i) }

// With returns a copy of m with lane i set to v.
func (m Mask[T]) With(i int, v bool) Mask[T] { return m.s.mask(m.s.impl.MaskWith(m.m, i, v)) }

// AllTrue reports whether every lane is set.
func (m Mask[T]) AllTrue() bool { return m.s.impl.All(m.m) }

// AnyTrue reports whether at least one lane is set.
func (m Mask[T]) AnyTrue() bool { return m.s.impl.Any(m.m) }

// NoneTrue reports whether no lane is set.
func (m Mask[T]) NoneTrue() bool { return m.s.impl.None(m.m) }

// SomeTrue reports whether at least one lane but not every lane is set.
func (m Mask[T]) SomeTrue() bool { return m.s.impl.Some(m.m) }

// CountTrue returns the number of set lanes.
func (m Mask[T]) CountTrue() int { return m.s.impl.Count(m.m) }

// FindFirstTrue returns the index of the first set lane. The mask must
// have a lane set; see FirstSet for a checked variant.
func (m Mask[T]) FindFirstTrue() int { return m.s.impl.MinIndex(m.m) }

// FindLastTrue returns the index of the last set lane. The mask must have
// a lane set.
func (m Mask[T]) FindLastTrue() int { return m.s.impl.MaxIndex(m.m) }

// FirstSet returns the first set lane, or false when no lane is set.
func (m Mask[T]) FirstSet() (int, bool) {
	if m.NoneTrue() {
		return -1, false
	}
	return m.FindFirstTrue(), true
}

// And returns m & o.
func (m Mask[T]) And(o Mask[T]) Mask[T] {
	same(m.s, o.s)
	return m.s.mask(m.s.impl.MaskAnd(m.m, o.m))
}

// Or returns m | o.
func (m Mask[T]) Or(o Mask[T]) Mask[T] {
	same(m.s, o.s)
	return m.s.mask(m.s.impl.MaskOr(m.m, o.m))
}

// Xor returns m ^ o.
func (m Mask[T]) Xor(o Mask[T]) Mask[T] {
	same(m.s, o.s)
	return m.s.mask(m.s.impl.MaskXor(m.m, o.m))
}

// AndNot returns m &^ o.
func (m Mask[T]) AndNot(o Mask[T]) Mask[T] {
	same(m.s, o.s)
	return m.s.mask(m.s.impl.MaskAndNot(m.m, o.m))
}

// Not returns the complement of m.
func (m Mask[T]) Not() Mask[T] { return m.s.mask(m.s.impl.MaskNot(m.m)) }

// Eq returns the lanes where m and o agree.
func (m Mask[T]) Eq(o Mask[T]) Mask[T] {
	same(m.s, o.s)
	return m.s.mask(m.s.impl.MaskEq(m.m, o.m))
}

// Equal reports whether every lane of m and o agrees.
func (m Mask[T]) Equal(o Mask[T]) bool { return m.Eq(o).AllTrue() }

// Bits packs the mask into a bit-mask, lane i in bit i.
func (m Mask[T]) Bits() bitmask.BitMask { return m.s.impl.MaskToBits(m.m) }

// Bools returns the lanes as a new slice.
func (m Mask[T]) Bools() []bool {
	out := make([]bool, m.s.n)
	m.s.impl.MaskStore(m.m, out)
	return out
}

// String formats the mask lane 0 first, e.g. "1101".
func (m Mask[T]) String() string { return m.Bits().String() }
