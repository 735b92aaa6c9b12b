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
	"unsafe"

	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/internal/check"
)

// RegBytes is the size of the widest register any tier uses.
const RegBytes = 64

// Reg is the storage of one register: 512 bits as eight little-endian
// words. Lane i of a b-bit element type occupies bits [i*b, (i+1)*b). Bits
// beyond the register width of the owning tier are zero.
type Reg [8]uint64

// Builtin is the portable vector type the generic tier computes on: one Go
// value per lane.
type Builtin[T abi.Lanes] [RegBytes]T

func laneMask(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<bits - 1
}

// laneBits returns the bit pattern of lane i, zero-extended.
func laneBits(r *Reg, i, bits int) uint64 {
	pos := i * bits
	return r[pos>>6] >> (pos & 63) & laneMask(bits)
}

// setLaneBits stores the low bits of v into lane i.
func setLaneBits(r *Reg, i, bits int, v uint64) {
	pos := i * bits
	m := laneMask(bits) << (pos & 63)
	r[pos>>6] = r[pos>>6]&^m | v<<(pos&63)&m
}

func signExtend(v uint64, bits int) int64 {
	s := 64 - bits
	return int64(v<<s) >> s
}

// bitsOf encodes a lane value as its bit pattern, zero-extended to 64 bits.
func bitsOf[T abi.Lanes](v T) uint64 {
	switch unsafe.Sizeof(v) {
	case 1:
		return uint64(*(*uint8)(unsafe.Pointer(&v)))
	case 2:
		return uint64(*(*uint16)(unsafe.Pointer(&v)))
	case 4:
		return uint64(*(*uint32)(unsafe.Pointer(&v)))
	default:
		return *(*uint64)(unsafe.Pointer(&v))
	}
}

// fromBits decodes the low bits of b as a lane value. It is the inverse of
// bitsOf.
func fromBits[T abi.Lanes](b uint64) T {
	var v T
	switch unsafe.Sizeof(v) {
	case 1:
		*(*uint8)(unsafe.Pointer(&v)) = uint8(b)
	case 2:
		*(*uint16)(unsafe.Pointer(&v)) = uint16(b)
	case 4:
		*(*uint32)(unsafe.Pointer(&v)) = uint32(b)
	default:
		*(*uint64)(unsafe.Pointer(&v)) = b
	}
	return v
}

// LaneBits returns the bit pattern of x, zero-extended to 64 bits.
func LaneBits[T abi.Lanes](x T) uint64 { return bitsOf(x) }

// LaneFromBits returns the lane value whose bit pattern is the low bits
// of b.
func LaneFromBits[T abi.Lanes](b uint64) T { return fromBits[T](b) }

func elemBits[T abi.Lanes]() int {
	var v T
	return int(unsafe.Sizeof(v)) * 8
}

// Encode packs x into a register, lane i holding x[i]. len(x) must not
// exceed the lane capacity of a register.
func Encode[T abi.Lanes](x []T) Reg {
	bits := elemBits[T]()
	check.Buffer(RegBytes*8/bits, len(x))
	var r Reg
	for i, v := range x {
		setLaneBits(&r, i, bits, bitsOf(v))
	}
	return r
}

// Decode unpacks the first n lanes of r. It is the inverse of Encode.
func Decode[T abi.Lanes](r *Reg, n int) []T {
	bits := elemBits[T]()
	out := make([]T, n)
	for i := range out {
		out[i] = fromBits[T](laneBits(r, i, bits))
	}
	return out
}

func decode[T abi.Lanes](r *Reg, n int) Builtin[T] {
	var b Builtin[T]
	bits := elemBits[T]()
	for i := 0; i < n; i++ {
		b[i] = fromBits[T](laneBits(r, i, bits))
	}
	return b
}

func encode[T abi.Lanes](b *Builtin[T], n int) Reg {
	var r Reg
	bits := elemBits[T]()
	for i := 0; i < n; i++ {
		setLaneBits(&r, i, bits, bitsOf(b[i]))
	}
	return r
}

// layout is the per-register shape every kernel receives.
type layout struct {
	kind   abi.Kind
	family abi.VariantKind
	bits   int
	// full is the physical lane count, size the logical one.
	full, size int
	// words is the number of storage words the register spans.
	words int
	// implicitBits has one bit per logical lane.
	implicitBits uint64
	// implicit is the vector-mask form of implicitBits.
	implicit Reg
}

func newLayout(k abi.Kind, c abi.ChunkInfo) *layout {
	l := &layout{
		kind:   k,
		family: c.Variant,
		bits:   k.Bits(),
		full:   c.FullSize,
		size:   c.Size,
	}
	l.words = (l.full*l.bits + 63) / 64
	l.implicitBits = laneMask(l.size)
	for i := 0; i < l.size; i++ {
		setLaneBits(&l.implicit, i, l.bits, laneMask(l.bits))
	}
	return l
}

func (l *layout) isFloat() bool  { return l.kind.IsFloat() }
func (l *layout) isSigned() bool { return l.kind.IsSigned() }

// signMask returns the sign bit of one lane.
func (l *layout) signMask() uint64 { return uint64(1) << (l.bits - 1) }

// lane returns the bit pattern of lane i.
func (l *layout) lane(r *Reg, i int) uint64 { return laneBits(r, i, l.bits) }

func (l *layout) set(r *Reg, i int, v uint64) { setLaneBits(r, i, l.bits, v) }

// broadcastBits fills every physical lane with v.
func (l *layout) broadcastBits(v uint64) Reg {
	var r Reg
	for i := 0; i < l.full; i++ {
		l.set(&r, i, v)
	}
	return r
}
