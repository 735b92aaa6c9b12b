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
	"strconv"

	"github.com/ajroetker/go-stdsimd/simd/features"
)

// Tier is one native register family at one register width.
type Tier struct {
	Family VariantKind
	// Bytes is the register width in bytes; 0 for Scalar.
	Bytes int
}

// String returns a short name such as "avx512like-64" or "vector-16".
func (t Tier) String() string {
	switch t.Family {
	case Avx512Like:
		return "avx512like-" + strconv.Itoa(t.Bytes)
	case NativeVector:
		return "vector-" + strconv.Itoa(t.Bytes)
	default:
		return "scalar"
	}
}

// Lanes returns the natural lane count of the tier for kind k.
func (t Tier) Lanes(k Kind) int {
	if t.Family == Scalar {
		return 1
	}
	return t.Bytes / k.Size()
}

// Leaf returns the tier's variant holding n logical lanes of kind k.
func (t Tier) Leaf(k Kind, n int) Variant {
	switch t.Family {
	case Avx512Like:
		return Avx512LikeOf(t.Bytes, t.Lanes(k), n)
	case NativeVector:
		return NativeVectorOf(t.Bytes, t.Lanes(k), n)
	default:
		return ScalarVariant()
	}
}

// nativeTiers is ordered most capable first. Within equal register widths the
// bit-mask family precedes the vector-mask family.
var nativeTiers = []Tier{
	{Avx512Like, 64},
	{Avx512Like, 32},
	{Avx512Like, 16},
	{NativeVector, 32},
	{NativeVector, 16},
	{NativeVector, 8},
	{Scalar, 0},
}

// Valid reports whether the tier can hold kind k under the feature set.
func (t Tier) Valid(k Kind, s features.Set) bool {
	if t.Family == Scalar {
		return true
	}
	if t.Lanes(k) < 2 {
		return false
	}
	switch t.Family {
	case Avx512Like:
		if !s.Has(features.AVX512F) {
			return false
		}
		if k.Size() < 4 && !s.Has(features.AVX512BW) {
			return false
		}
		return t.Bytes == 64 || s.Has(features.AVX512VL)
	case NativeVector:
		switch t.Bytes {
		case 32:
			return s.Has(features.AVX2) || (k.IsFloat() && s.Has(features.AVX))
		case 16:
			return valid128(k, s)
		case 8:
			return s.Has(features.NEON) && k.Size() <= 4
		}
	}
	return false
}

func valid128(k Kind, s features.Set) bool {
	switch {
	case s.Has(features.SSE2), s.Has(features.ASIMD):
		return true
	case k == Float32 && s.HasAny(features.SSE, features.Altivec):
		return true
	case s.Has(features.NEON) && k != Float64:
		return true
	case s.Has(features.Altivec) && k.Size() <= 4 && !k.IsFloat():
		return true
	case s.Has(features.VSX) && k == Float64:
		return true
	case s.Has(features.POWER8) && (k == Int64 || k == Uint64):
		return true
	}
	return false
}

// Tiers returns the tiers valid for k under s, most capable first. Scalar
// is always last.
func Tiers(k Kind, s features.Set) []Tier {
	var ts []Tier
	for _, t := range nativeTiers {
		if t.Valid(k, s) {
			ts = append(ts, t)
		}
	}
	return ts
}

// MaxLanes returns the natural lane count of the widest valid tier.
func MaxLanes(k Kind, s features.Set) int {
	m := 1
	for _, t := range Tiers(k, s) {
		m = max(m, t.Lanes(k))
	}
	return m
}
