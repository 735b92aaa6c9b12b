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
	"math"
	"math/bits"

	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/internal/check"
)

// Models of x86 SSE2 through AVX-512 instructions. Each function reproduces
// the lane results of one instruction or one short idiomatic sequence on
// the Reg storage, including the emulations used where an instruction is
// missing for a lane width.

// padd models paddb/w/d/q: per-lane wrapping add with the carry cut at lane
// boundaries.
func padd(l *layout, a, b *Reg) Reg {
	h := hiBits(l.bits)
	var r Reg
	for w := 0; w < l.words; w++ {
		r[w] = ((a[w] &^ h) + (b[w] &^ h)) ^ ((a[w] ^ b[w]) & h)
	}
	return r
}

// psub models psubb/w/d/q.
func psub(l *layout, a, b *Reg) Reg {
	h := hiBits(l.bits)
	var r Reg
	for w := 0; w < l.words; w++ {
		r[w] = ((a[w] | h) - (b[w] &^ h)) ^ ((a[w] ^ ^b[w]) & h)
	}
	return r
}

// pnegInt is psub from a zero register.
func pnegInt(l *layout, a *Reg) Reg {
	var zero Reg
	return psub(l, &zero, a)
}

// pmullwBytes multiplies 8-bit lanes, which x86 lacks: even bytes with
// pmullw on the masked words, odd bytes with pmullw on the high bytes, then
// the two halves are merged.
func pmullwBytes(l *layout, a, b *Reg) Reg {
	var r Reg
	for w := 0; w < l.words; w++ {
		x, y := a[w], b[w]
		var out uint64
		for j := 0; j < 64; j += 16 {
			xw, yw := x>>j&0xffff, y>>j&0xffff
			even := (xw & 0xff) * (yw & 0xff) & 0x00ff
			odd := (xw >> 8) * (yw & 0xff00) & 0xff00
			out |= (even | odd) << j
		}
		r[w] = out
	}
	return r
}

// pmuludqDwords multiplies 32-bit lanes without pmulld: pmuludq on the even
// lanes and on the odd lanes shifted down, keeping the low half of each
// 64-bit product.
func pmuludqDwords(l *layout, a, b *Reg) Reg {
	var r Reg
	for w := 0; w < l.words; w++ {
		even := uint64(uint32(a[w])) * uint64(uint32(b[w]))
		odd := (a[w] >> 32) * (b[w] >> 32)
		r[w] = uint64(uint32(even)) | odd<<32
	}
	return r
}

// pmuludqQwords multiplies 64-bit lanes without vpmullq from three 32x32
// products: lo*lo + (hi*lo + lo*hi) << 32.
func pmuludqQwords(l *layout, a, b *Reg) Reg {
	var r Reg
	for w := 0; w < l.words; w++ {
		alo, ahi := a[w]&0xffffffff, a[w]>>32
		blo, bhi := b[w]&0xffffffff, b[w]>>32
		r[w] = alo*blo + (ahi*blo+alo*bhi)<<32
	}
	return r
}

// cvtDivide divides integer lanes of up to 32 bits through float64
// (cvtdq2pd, divpd, cvttpd2dq). Every such integer is exact in a double and
// the rounded quotient never crosses an integer, so truncation yields the
// integer quotient. ok is false when a divisor lane is zero; the caller
// must then take the generic path, which panics like Go division.
func cvtDivide(l *layout, a, b *Reg) (r Reg, ok bool) {
	for i := 0; i < l.full; i++ {
		x, y := l.lane(a, i), l.lane(b, i)
		if y == 0 {
			return Reg{}, false
		}
		var fx, fy float64
		if l.isSigned() {
			fx, fy = float64(signExtend(x, l.bits)), float64(signExtend(y, l.bits))
		} else {
			fx, fy = float64(x), float64(y)
		}
		l.set(&r, i, uint64(int64(math.Trunc(fx/fy))))
	}
	return r, true
}

// minps models minps/minpd: x < y ? x : y, so unordered or equal operands
// return y. Called as minps(b, a) it computes b < a ? b : a.
func minps(l *layout, x, y *Reg) Reg {
	var r Reg
	for i := 0; i < l.full; i++ {
		xv, yv := l.lane(x, i), l.lane(y, i)
		if l.asFloat(xv) < l.asFloat(yv) {
			l.set(&r, i, xv)
		} else {
			l.set(&r, i, yv)
		}
	}
	return r
}

// maxps models maxps/maxpd: x > y ? x : y.
func maxps(l *layout, x, y *Reg) Reg {
	var r Reg
	for i := 0; i < l.full; i++ {
		xv, yv := l.lane(x, i), l.lane(y, i)
		if l.asFloat(xv) > l.asFloat(yv) {
			l.set(&r, i, xv)
		} else {
			l.set(&r, i, yv)
		}
	}
	return r
}

func minpsSwapped(l *layout, a, b *Reg) Reg { return minps(l, b, a) }
func maxpsSwapped(l *layout, a, b *Reg) Reg { return maxps(l, b, a) }

// pcmpeq models pcmpeqb/w/d/q with a word-parallel zero test of a ^ b.
func pcmpeq(l *layout, a, b *Reg) Reg {
	h := hiBits(l.bits)
	var r Reg
	for w := 0; w < l.words; w++ {
		t := a[w] ^ b[w]
		zero := ^(((t &^ h) + ^h) | t) & h
		r[w] = spread(l.bits, zero>>(l.bits-1))
	}
	return r
}

// pcmpgt models the signed pcmpgtb/w/d/q.
func pcmpgt(l *layout, a, b *Reg) Reg {
	var r Reg
	for i := 0; i < l.full; i++ {
		if signExtend(l.lane(a, i), l.bits) > signExtend(l.lane(b, i), l.bits) {
			l.set(&r, i, laneMask(l.bits))
		}
	}
	return r
}

// pcmpgtqEmulated models a signed 64-bit greater-than without SSE4.2 from
// 32-bit halves: hi > hi, or hi == hi and lo > lo unsigned.
func pcmpgtqEmulated(l *layout, a, b *Reg) Reg {
	var r Reg
	for w := 0; w < l.words; w++ {
		ahi, bhi := int32(a[w]>>32), int32(b[w]>>32)
		alo, blo := uint32(a[w]), uint32(b[w])
		if ahi > bhi || ahi == bhi && alo > blo {
			r[w] = ^uint64(0)
		}
	}
	return r
}

// biased wraps a signed compare into an unsigned one by flipping the sign
// bit of both operands (pxor with 0x80...), since x86 has no unsigned
// integer compare before AVX-512.
func biased(gt kernel2) kernel2 {
	return func(l *layout, a, b *Reg) Reg {
		bias := l.broadcastBits(l.signMask())
		x, y := vxor(l, a, &bias), vxor(l, b, &bias)
		return gt(l, &x, &y)
	}
}

// intCompareFromGt derives every predicate from pcmpeq and a greater-than
// kernel, the way SSE code does.
func intCompareFromGt(op cmpOp, gt kernel2) kernel2 {
	return func(l *layout, a, b *Reg) Reg {
		switch op {
		case cmpEq:
			return pcmpeq(l, a, b)
		case cmpNe, cmpIsLessGreater:
			m := pcmpeq(l, a, b)
			return vnot(l, &m)
		case cmpGt, cmpIsGreater:
			return gt(l, a, b)
		case cmpLt, cmpIsLess:
			return gt(l, b, a)
		case cmpLe, cmpIsLessEqual:
			m := gt(l, a, b)
			return vnot(l, &m)
		case cmpGe, cmpIsGreaterEqual:
			m := gt(l, b, a)
			return vnot(l, &m)
		default:
			return Reg{}
		}
	}
}

// pblendvb selects bytes by the top bit of each mask byte.
func pblendvb(l *layout, m, a, b *Reg) Reg {
	var r Reg
	for w := 0; w < l.words; w++ {
		sel := spread(8, m[w]>>7&0x0101010101010101)
		r[w] = a[w]&sel | b[w]&^sel
	}
	return r
}

// pabs models pabsb/w/d and vpabsq.
func pabs(l *layout, a *Reg) Reg {
	var r Reg
	for i := 0; i < l.full; i++ {
		v := signExtend(l.lane(a, i), l.bits)
		if v < 0 {
			v = -v
		}
		l.set(&r, i, uint64(v))
	}
	return r
}

// absXorSub is the SSE2 integer abs: s = x >> (bits-1) arithmetic, then
// (x ^ s) - s.
func absXorSub(sra func(l *layout, a *Reg, n int) Reg) kernel1 {
	return func(l *layout, a *Reg) Reg {
		s := sra(l, a, l.bits-1)
		x := vxor(l, a, &s)
		return psub(l, &x, &s)
	}
}

// psll models psllw/d/q; 8-bit lanes use psllw followed by a byte mask.
func psll(l *layout, a *Reg, n int) Reg {
	keep := replicate(l.bits, laneMask(l.bits)<<n&laneMask(l.bits))
	var r Reg
	for w := 0; w < l.words; w++ {
		r[w] = a[w] << n & keep
	}
	return r
}

// psrl models psrlw/d/q; 8-bit lanes use psrlw followed by a byte mask.
func psrl(l *layout, a *Reg, n int) Reg {
	keep := replicate(l.bits, laneMask(l.bits)>>n)
	var r Reg
	for w := 0; w < l.words; w++ {
		r[w] = a[w] >> n & keep
	}
	return r
}

func sraWord(bits int, x uint64, n int) uint64 {
	keep := replicate(bits, laneMask(bits)>>n)
	top := laneMask(bits) &^ (laneMask(bits) >> n)
	signs := (x & hiBits(bits)) >> (bits - 1)
	return x>>n&keep | signs*top
}

// psra models psraw/psrad.
func psra(l *layout, a *Reg, n int) Reg {
	var r Reg
	for w := 0; w < l.words; w++ {
		r[w] = sraWord(l.bits, a[w], n)
	}
	return r
}

// psraBytes shifts 8-bit lanes arithmetically with psraw: the high byte of
// each word directly, the low byte after moving it up by 8.
func psraBytes(l *layout, a *Reg, n int) Reg {
	const hiByte, loByte = 0xff00ff00ff00ff00, 0x00ff00ff00ff00ff
	var r Reg
	for w := 0; w < l.words; w++ {
		hi := sraWord(16, a[w], n) & hiByte
		lo := sraWord(16, a[w]<<8&hiByte, n) >> 8 & loByte
		r[w] = hi | lo
	}
	return r
}

// psraqEmulated shifts 64-bit lanes arithmetically without vpsraq: with s
// the sign broadcast, ((x ^ s) >> n) ^ s.
func psraqEmulated(l *layout, a *Reg, n int) Reg {
	var r Reg
	for w := 0; w < l.words; w++ {
		s := spread(64, a[w]>>63)
		r[w] = (a[w]^s)>>n ^ s
	}
	return r
}

// vpsraq models the AVX-512 64-bit arithmetic shift.
func vpsraq(l *layout, a *Reg, n int) Reg {
	var r Reg
	for w := 0; w < l.words; w++ {
		r[w] = uint64(int64(a[w]) >> n)
	}
	return r
}

// vpshiftv models vpsllv/vpsrlv/vpsrav: per-lane counts read unsigned; a
// count of at least the lane width shifts everything out.
func vpshiftv(op shiftOp) kernel2 {
	return func(l *layout, a, c *Reg) Reg {
		var r Reg
		for i := 0; i < l.full; i++ {
			x, n := l.lane(a, i), l.lane(c, i)
			if n > uint64(l.bits) {
				n = uint64(l.bits)
			}
			var v uint64
			switch {
			case op == opShl:
				v = x << n
			case l.isSigned() && !l.isFloat():
				v = uint64(signExtend(x, l.bits) >> n)
			default:
				v = x >> n
			}
			l.set(&r, i, v&laneMask(l.bits))
		}
		return r
	}
}

// movemask models pmovmskb (8-bit lanes, by a multiply that gathers the
// eight byte sign bits into the top byte), packsswb+pmovmskb (16-bit) and
// movmskps/movmskpd (32/64-bit).
func movemask(l *layout, m *Reg) uint64 {
	var out uint64
	if l.bits == 8 {
		for w := 0; w < l.words; w++ {
			b := (m[w] >> 7 & 0x0101010101010101) * 0x0102040810204080 >> 56
			out |= b << (8 * w)
		}
		return out
	}
	for i := 0; i < l.full; i++ {
		out |= l.lane(m, i) >> (l.bits - 1) << i
	}
	return out
}

// expandMask turns lane bits into a vector mask: broadcast the bits, and
// each lane with its own bit, compare equal to that bit.
func expandMask(l *layout, sel uint64) Reg {
	var r Reg
	for i := 0; i < l.full; i++ {
		bit := uint64(1) << i
		if sel&bit == bit {
			l.set(&r, i, laneMask(l.bits))
		}
	}
	return r
}

// ptestAll and ptestAny model ptest against the implicit mask: the carry
// flag reports m covering it, the zero flag reports no overlap.
func ptestAll(l *layout, m *Reg) bool {
	for w := 0; w < l.words; w++ {
		if ^m[w]&l.implicit[w] != 0 {
			return false
		}
	}
	return true
}

func ptestAny(l *layout, m *Reg) bool {
	for w := 0; w < l.words; w++ {
		if m[w]&l.implicit[w] != 0 {
			return true
		}
	}
	return false
}

// kortestAll and kortestAny test a k-register against the implicit mask.
func kortestAll(l *layout, m *Reg) bool { return m[0]&l.implicitBits == l.implicitBits }
func kortestAny(l *layout, m *Reg) bool { return m[0]&l.implicitBits != 0 }

// popcntMask counts a bit-mask or movemask result with POPCNT.
func popcntMask(toBits func(l *layout, m *Reg) uint64) func(l *layout, m *Reg) int {
	return func(l *layout, m *Reg) int {
		return bits.OnesCount64(toBits(l, m) & l.implicitBits)
	}
}

// vpcmpK models vpcmp/vpcmpu/vcmpps writing a k-register.
func vpcmpK(op cmpOp) kernel2 {
	return func(l *layout, a, b *Reg) Reg {
		var k uint64
		for i := 0; i < l.full; i++ {
			if l.lanePred(op, l.lane(a, i), l.lane(b, i)) {
				k |= 1 << i
			}
		}
		return Reg{k}
	}
}

// vpblendm selects lanes by a k-register.
func vpblendm(l *layout, m, a, b *Reg) Reg {
	var r Reg
	for i := 0; i < l.full; i++ {
		if m[0]>>i&1 != 0 {
			l.set(&r, i, l.lane(a, i))
		} else {
			l.set(&r, i, l.lane(b, i))
		}
	}
	return r
}

// kmaskFromBits and kmaskToBits convert between lane bits and k-registers,
// which are the same thing.
func kmaskFromBits(l *layout, sel uint64) Reg { return Reg{sel & laneMask(l.full)} }
func kmaskToBits(l *layout, m *Reg) uint64   { return m[0] & laneMask(l.full) }

// vfpclass categories.
const (
	fpQNaN   = 0x01
	fpPZero  = 0x02
	fpNZero  = 0x04
	fpPInf   = 0x08
	fpNInf   = 0x10
	fpDenorm = 0x20
	fpNeg    = 0x40
	fpSNaN   = 0x80
)

func (l *layout) fpCategory(v uint64) uint8 {
	exp, sign := v&expMask(l.bits), v&l.signMask()
	frac := v &^ expMask(l.bits) &^ l.signMask()
	quiet := uint64(1) << (l.kind.MantissaBits() - 1)
	var c uint8
	switch {
	case exp == expMask(l.bits) && frac == 0:
		c = fpPInf
		if sign != 0 {
			c = fpNInf
		}
	case exp == expMask(l.bits):
		c = fpSNaN
		if frac&quiet != 0 {
			c = fpQNaN
		}
	case exp == 0 && frac == 0:
		c = fpPZero
		if sign != 0 {
			c = fpNZero
		}
	case exp == 0:
		c = fpDenorm
	}
	if sign != 0 && c&(fpQNaN|fpSNaN|fpPZero|fpNZero|fpPInf|fpNInf) == 0 {
		c |= fpNeg
	}
	return c
}

// vfpclass models vfpclassps/pd (AVX512DQ) writing a k-register; SignBit
// uses vpmovd2m/vpmovq2m, which copy the lane sign bits.
func vfpclass(op classOp) kernel1 {
	return func(l *layout, a *Reg) Reg {
		var k uint64
		for i := 0; i < l.full; i++ {
			v := l.lane(a, i)
			c := l.fpCategory(v)
			var hit bool
			switch op {
			case clsNaN:
				hit = c&(fpQNaN|fpSNaN) != 0
			case clsInf:
				hit = c&(fpPInf|fpNInf) != 0
			case clsFinite:
				hit = c&(fpQNaN|fpSNaN|fpPInf|fpNInf) == 0
			case clsNormal:
				hit = c&(fpQNaN|fpSNaN|fpPInf|fpNInf|fpPZero|fpNZero|fpDenorm) == 0
			case clsSignBit:
				hit = v&l.signMask() != 0
			}
			if hit {
				k |= 1 << i
			}
		}
		return Reg{k}
	}
}

// classifyBitTests classifies float lanes into a vector mask with and/compare
// sequences on the exponent field (SSE2, NEON, Altivec).
func classifyBitTests(op classOp) kernel1 {
	return func(l *layout, a *Reg) Reg {
		expB := l.broadcastBits(expMask(l.bits))
		exp := vand(l, a, &expB)
		switch op {
		case clsNaN:
			return vcmpLanes(cmpIsUnordered)(l, a, a)
		case clsInf:
			mag := fabs(l, a)
			return pcmpeq(l, &mag, &expB)
		case clsFinite:
			m := pcmpeq(l, &exp, &expB)
			return vnot(l, &m)
		case clsNormal:
			var zero Reg
			isMax, isZero := pcmpeq(l, &exp, &expB), pcmpeq(l, &exp, &zero)
			either := vor(l, &isMax, &isZero)
			return vnot(l, &either)
		default:
			var r Reg
			for w := 0; w < l.words; w++ {
				r[w] = spread(l.bits, a[w]&hiBits(l.bits)>>(l.bits-1))
			}
			return r
		}
	}
}

// vpmaskmovLoad models vpmaskmovd/q and vmaskmovps/pd: lanes whose mask sign
// bit is set are read, the others are zero and their memory is not touched.
func vpmaskmovLoad[T abi.Lanes](l *layout, m *Reg, src []T) Reg {
	var r Reg
	for i := 0; i < l.full; i++ {
		if l.lane(m, i)>>(l.bits-1) != 0 {
			check.MaskedLane(i, len(src))
			l.set(&r, i, bitsOf(src[i]))
		}
	}
	return r
}

func vpmaskmovStore[T abi.Lanes](l *layout, a, m *Reg, dst []T) {
	for i := 0; i < l.full; i++ {
		if l.lane(m, i)>>(l.bits-1) != 0 {
			check.MaskedLane(i, len(dst))
			dst[i] = fromBits[T](l.lane(a, i))
		}
	}
}

// kmovLoad models a k-masked vmovdqu8/16/32/64 with zeroing.
func kmovLoad[T abi.Lanes](l *layout, m *Reg, src []T) Reg {
	var r Reg
	for k := m[0] & laneMask(l.full); k != 0; k &= k - 1 {
		i := bits.TrailingZeros64(k)
		check.MaskedLane(i, len(src))
		l.set(&r, i, bitsOf(src[i]))
	}
	return r
}

func kmovStore[T abi.Lanes](l *layout, a, m *Reg, dst []T) {
	for k := m[0] & laneMask(l.full); k != 0; k &= k - 1 {
		i := bits.TrailingZeros64(k)
		check.MaskedLane(i, len(dst))
		dst[i] = fromBits[T](l.lane(a, i))
	}
}
