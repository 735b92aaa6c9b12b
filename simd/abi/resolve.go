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
	"github.com/pkg/errors"

	"github.com/ajroetker/go-stdsimd/simd/features"
)

// MaxWidthFactor bounds N to this multiple of the widest valid tier's lane
// count.
const MaxWidthFactor = 64

var (
	// ErrInvalidWidth is returned for N < 1 or an invalid element kind.
	ErrInvalidWidth = errors.New("invalid vector width")
	// ErrWidthTooLarge is returned when N exceeds MaxWidth.
	ErrWidthTooLarge = errors.New("vector width too large")
)

// MaxWidth returns the largest N that Resolve accepts for k under s.
func MaxWidth(k Kind, s features.Set) int {
	return MaxWidthFactor * MaxLanes(k, s)
}

// Resolve chooses the storage of an N-lane vector of kind k under the
// feature snapshot s:
//
//  1. N == 1 is Scalar.
//  2. A tier whose natural width equals N is used as is.
//  3. Otherwise the narrowest tier holding N is used with padding, provided
//     at most half of it is wasted or N is below the narrowest tier.
//  4. Otherwise, if N is a multiple of the widest tier, an Array of it.
//  5. Otherwise a Combine: the widest tier not exceeding the remaining lanes
//     is carved off until the remainder fits one register under rules 1-3.
//     Consecutive equal chunks are folded into Arrays.
//
// Ties between tiers of equal width go to the bit-mask family.
func Resolve(k Kind, n int, s features.Set) (Variant, error) {
	if !k.Valid() {
		return Variant{}, errors.Wrapf(ErrInvalidWidth, "element kind %d", k)
	}
	if n < 1 {
		return Variant{}, errors.Wrapf(ErrInvalidWidth, "%s x %d", k, n)
	}
	if limit := MaxWidth(k, s); n > limit {
		return Variant{}, errors.Wrapf(ErrWidthTooLarge, "%s x %d exceeds %d lanes under [%s]", k, n, limit, s)
	}

	tiers := Tiers(k, s)
	if v, ok := single(k, n, tiers); ok {
		return v, nil
	}

	widest := widestTier(k, tiers, n)
	if w := widest.Lanes(k); n%w == 0 {
		return ArrayOf(widest.Leaf(k, w), n/w), nil
	}

	var leaves []Variant
	rem := n
	for {
		if v, ok := single(k, rem, tiers); ok {
			leaves = append(leaves, v)
			break
		}
		t := widestTier(k, tiers, rem)
		w := t.Lanes(k)
		leaves = append(leaves, t.Leaf(k, w))
		rem -= w
	}
	return CombineOf(fold(leaves)...), nil
}

// MustResolve is like Resolve but panics on error. It is meant for shapes
// fixed at package initialization.
func MustResolve(k Kind, n int, s features.Set) Variant {
	v, err := Resolve(k, n, s)
	if err != nil {
		panic(err)
	}
	return v
}

// ResolveFor resolves the storage of an N-lane vector of T.
func ResolveFor[T Lanes](n int, s features.Set) (Variant, error) {
	return Resolve(KindOf[T](), n, s)
}

// single applies the one-register rules.
func single(k Kind, n int, tiers []Tier) (Variant, bool) {
	if n == 1 {
		return ScalarVariant(), true
	}
	for _, t := range tiers {
		if t.Lanes(k) == n {
			return t.Leaf(k, n), true
		}
	}

	smallest := 0
	for _, t := range tiers {
		if t.Family != Scalar && (smallest == 0 || t.Lanes(k) < smallest) {
			smallest = t.Lanes(k)
		}
	}
	var best Tier
	bestLanes := 0
	for _, t := range tiers {
		w := t.Lanes(k)
		if t.Family == Scalar || w < n {
			continue
		}
		if bestLanes == 0 || w < bestLanes {
			best, bestLanes = t, w
		}
	}
	if bestLanes == 0 {
		return Variant{}, false
	}
	if 2*n >= bestLanes || n < smallest {
		return best.Leaf(k, n), true
	}
	return Variant{}, false
}

// widestTier returns the first tier of maximal width not exceeding n.
// Scalar always qualifies.
func widestTier(k Kind, tiers []Tier, n int) Tier {
	best := Tier{Family: Scalar}
	for _, t := range tiers {
		if w := t.Lanes(k); w <= n && w > best.Lanes(k) {
			best = t
		}
	}
	return best
}

// fold merges runs of equal full-width leaves into Arrays.
func fold(leaves []Variant) []Variant {
	var out []Variant
	for i := 0; i < len(leaves); {
		j := i + 1
		for j < len(leaves) && leaves[j].Equal(leaves[i]) {
			j++
		}
		if j-i > 1 {
			out = append(out, ArrayOf(leaves[i], j-i))
		} else {
			out = append(out, leaves[i])
		}
		i = j
	}
	return out
}
