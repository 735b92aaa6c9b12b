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
	"github.com/ajroetker/go-stdsimd/simd/bitmask"
	"github.com/ajroetker/go-stdsimd/simd/features"
)

// MaxAlignment caps the alignment of any storage.
const MaxAlignment = 64

// MaskRepr is the physical representation of a mask.
type MaskRepr uint8

const (
	// MaskBool is a single boolean (Scalar).
	MaskBool MaskRepr = iota
	// MaskVector is a register with all-ones or all-zeros lanes.
	MaskVector
	// MaskBits is a dense k-register style bit-mask, one bit per lane.
	MaskBits
	// MaskPacked is a bitmask.BitMask over all logical lanes (Combine).
	MaskPacked
)

// String returns the representation name.
func (r MaskRepr) String() string {
	switch r {
	case MaskBool:
		return "bool"
	case MaskVector:
		return "vector"
	case MaskBits:
		return "bits"
	case MaskPacked:
		return "packed"
	default:
		return "unknown"
	}
}

// ChunkInfo describes one register-level chunk of a layout.
type ChunkInfo struct {
	Variant VariantKind
	// Offset is the first logical lane held by the chunk.
	Offset int
	// PhysOffset is the first physical lane held by the chunk.
	PhysOffset int
	Size       int
	FullSize   int
	Bytes      int
	Mask       MaskRepr
}

// Traits describes the storage of one resolved layout.
type Traits struct {
	Kind         Kind
	Variant      Variant
	Size         int
	FullSize     int
	IsPartial    bool
	StorageBytes int
	Alignment    int
	MaskRepr     MaskRepr
	MaskBytes    int
	// Chunks lists the register-level chunks in lane order. Leaf layouts
	// have one chunk.
	Chunks []ChunkInfo
}

// TraitsOf describes the storage of variant v holding kind k.
func TraitsOf(k Kind, v Variant) Traits {
	t := Traits{
		Kind:      k,
		Variant:   v,
		Size:      v.Size(),
		FullSize:  v.FullSize(),
		IsPartial: v.IsPartial(),
		MaskRepr:  maskRepr(v),
	}
	off, phys := 0, 0
	for _, leaf := range v.Leaves() {
		c := ChunkInfo{
			Variant:    leaf.Kind(),
			Offset:     off,
			PhysOffset: phys,
			Size:       leaf.Size(),
			FullSize:   leaf.FullSize(),
			Bytes:      leafBytes(k, leaf),
			Mask:       maskRepr(leaf),
		}
		t.Chunks = append(t.Chunks, c)
		t.StorageBytes += c.Bytes
		t.Alignment = max(t.Alignment, min(c.Bytes, MaxAlignment))
		if v.Kind() != Combine {
			t.MaskBytes += leafMaskBytes(leaf, c.Bytes)
		}
		off += c.Size
		phys += c.FullSize
	}
	if v.Kind() == Combine {
		t.MaskBytes = (t.Size + 7) / 8
	}
	return t
}

// TraitsFor resolves and describes an N-lane vector of kind k under s.
func TraitsFor(k Kind, n int, s features.Set) (Traits, error) {
	v, err := Resolve(k, n, s)
	if err != nil {
		return Traits{}, err
	}
	return TraitsOf(k, v), nil
}

// ImplicitMask returns a FullSize-bit mask with ones on the physical lanes
// that hold logical lanes and zeros on padding.
func (t Traits) ImplicitMask() bitmask.BitMask {
	m := bitmask.New(t.FullSize)
	for _, c := range t.Chunks {
		for i := 0; i < c.Size; i++ {
			m = m.With(c.PhysOffset+i, true)
		}
	}
	return m
}

func maskRepr(v Variant) MaskRepr {
	switch v.Kind() {
	case NativeVector:
		return MaskVector
	case Avx512Like:
		return MaskBits
	case Array:
		return maskRepr(v.Chunk())
	case Combine:
		return MaskPacked
	default:
		return MaskBool
	}
}

func leafBytes(k Kind, leaf Variant) int {
	if leaf.Kind() == Scalar {
		return k.Size()
	}
	return leaf.Bytes()
}

func leafMaskBytes(leaf Variant, bytes int) int {
	switch leaf.Kind() {
	case NativeVector:
		return bytes
	case Avx512Like:
		return max(1, (leaf.FullSize()+7)/8)
	default:
		return 1
	}
}
