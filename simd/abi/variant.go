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
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// VariantKind is the discriminant of a Variant.
type VariantKind uint8

const (
	// Scalar stores one lane in a plain scalar.
	Scalar VariantKind = iota
	// NativeVector stores the lanes in one vector register and represents
	// masks as vectors with all-ones or all-zeros lanes.
	NativeVector
	// Avx512Like stores the lanes in one vector register and represents
	// masks as a dense bit-mask, one bit per lane.
	Avx512Like
	// Array stores the lanes in Count registers of the same leaf variant.
	Array
	// Combine stores the lanes in an ordered list of differently sized
	// chunks. Masks are packed into one bit-mask.
	Combine
)

// String returns the variant family name.
func (k VariantKind) String() string {
	switch k {
	case Scalar:
		return "Scalar"
	case NativeVector:
		return "NativeVector"
	case Avx512Like:
		return "Avx512Like"
	case Array:
		return "Array"
	case Combine:
		return "Combine"
	default:
		return "Unknown"
	}
}

// Variant is a resolved storage strategy. It is a closed tagged union;
// Kind() selects which accessors are meaningful. Variants are immutable.
type Variant struct {
	kind   VariantKind
	bytes  int // leaf register size
	full   int // leaf physical lanes
	size   int // logical lanes
	chunks []Variant
	count  int
}

// ScalarVariant returns the one-lane scalar variant.
func ScalarVariant() Variant {
	return Variant{kind: Scalar, full: 1, size: 1}
}

// NativeVectorOf returns a vector-mask register variant of the given byte
// width holding size of its full physical lanes.
func NativeVectorOf(bytes, full, size int) Variant {
	return Variant{kind: NativeVector, bytes: bytes, full: full, size: size}
}

// Avx512LikeOf returns a bit-mask register variant of the given byte width
// holding size of its full physical lanes.
func Avx512LikeOf(bytes, full, size int) Variant {
	return Variant{kind: Avx512Like, bytes: bytes, full: full, size: size}
}

// ArrayOf returns count repetitions of chunk.
func ArrayOf(chunk Variant, count int) Variant {
	return Variant{
		kind:   Array,
		chunks: []Variant{chunk},
		count:  count,
		size:   chunk.size * count,
		full:   chunk.FullSize() * count,
	}
}

// CombineOf returns the concatenation of chunks, lane 0 in chunks[0].
func CombineOf(chunks ...Variant) Variant {
	return Variant{
		kind:   Combine,
		chunks: append([]Variant(nil), chunks...),
		size:   lo.SumBy(chunks, func(c Variant) int { return c.size }),
		full:   lo.SumBy(chunks, func(c Variant) int { return c.FullSize() }),
	}
}

// Kind returns the variant discriminant.
func (v Variant) Kind() VariantKind { return v.kind }

// IsLeaf reports whether v is a single register or scalar.
func (v Variant) IsLeaf() bool {
	return v.kind == Scalar || v.kind == NativeVector || v.kind == Avx512Like
}

// Size returns the logical lane count N.
func (v Variant) Size() int { return v.size }

// FullSize returns the physical lane count, which exceeds Size for padded
// variants.
func (v Variant) FullSize() int { return v.full }

// IsPartial reports whether the variant has padding lanes.
func (v Variant) IsPartial() bool { return v.full != v.size }

// Bytes returns the register size of a vector leaf; 0 for other kinds.
func (v Variant) Bytes() int { return v.bytes }

// Chunk returns the repeated chunk of an Array.
func (v Variant) Chunk() Variant {
	if v.kind != Array {
		return Variant{}
	}
	return v.chunks[0]
}

// Count returns the repetition count of an Array.
func (v Variant) Count() int { return v.count }

// Chunks returns the chunks of a Combine.
func (v Variant) Chunks() []Variant {
	if v.kind != Combine {
		return nil
	}
	return append([]Variant(nil), v.chunks...)
}

// Leaves returns the register-level chunks in lane order, expanding Arrays.
func (v Variant) Leaves() []Variant {
	switch v.kind {
	case Array:
		return lo.Times(v.count, func(int) Variant { return v.chunks[0] })
	case Combine:
		return lo.FlatMap(v.chunks, func(c Variant, _ int) []Variant { return c.Leaves() })
	default:
		return []Variant{v}
	}
}

// Equal reports whether v and o describe the same storage.
func (v Variant) Equal(o Variant) bool {
	if v.kind != o.kind || v.bytes != o.bytes || v.full != o.full ||
		v.size != o.size || v.count != o.count || len(v.chunks) != len(o.chunks) {
		return false
	}
	for i := range v.chunks {
		if !v.chunks[i].Equal(o.chunks[i]) {
			return false
		}
	}
	return true
}

// String renders the variant, for example "NativeVector<4>",
// "Avx512Like<16>[3]" (16 physical lanes, 3 logical), "Array<NativeVector<8>,3>"
// or "Combine<20,[Array<Avx512Like<8>,2>,Avx512Like<4>]>".
func (v Variant) String() string {
	switch v.kind {
	case Scalar:
		return "Scalar"
	case NativeVector, Avx512Like:
		if v.IsPartial() {
			return fmt.Sprintf("%s<%d>[%d]", v.kind, v.full, v.size)
		}
		return fmt.Sprintf("%s<%d>", v.kind, v.full)
	case Array:
		return fmt.Sprintf("Array<%s,%d>", v.chunks[0], v.count)
	case Combine:
		parts := lo.Map(v.chunks, func(c Variant, _ int) string { return c.String() })
		return fmt.Sprintf("Combine<%d,[%s]>", v.size, strings.Join(parts, ","))
	default:
		return "Unknown"
	}
}
