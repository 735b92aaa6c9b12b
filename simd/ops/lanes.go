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

import "math"

// Word-parallel helpers used by the hardware models. A word holds 64/bits
// lanes; the constants below repeat one per-lane pattern across a word.

// loBits has the lowest bit of every lane set.
func loBits(bits int) uint64 {
	switch bits {
	case 8:
		return 0x0101010101010101
	case 16:
		return 0x0001000100010001
	case 32:
		return 0x0000000100000001
	}
	return 1
}

// hiBits has the sign bit of every lane set.
func hiBits(bits int) uint64 {
	return loBits(bits) << (bits - 1)
}

// replicate repeats a per-lane pattern v (v < 2^bits) across a word.
func replicate(bits int, v uint64) uint64 {
	return v * loBits(bits)
}

// spread turns a word with at most the lowest bit of each lane set into a
// word with those lanes all ones.
func spread(bits int, lsb uint64) uint64 {
	return lsb * laneMask(bits)
}

func f32(v uint64) float32 { return math.Float32frombits(uint32(v)) }
func f64(v uint64) float64 { return math.Float64frombits(v) }

func f32bits(x float32) uint64 { return uint64(math.Float32bits(x)) }
func f64bits(x float64) uint64 { return math.Float64bits(x) }

// asFloat widens a float lane to float64. The conversion is exact and
// preserves ordering, so predicates evaluated on it match the lane type.
func (l *layout) asFloat(v uint64) float64 {
	if l.bits == 32 {
		return float64(f32(v))
	}
	return f64(v)
}

// floatLanes2 applies a lane-wise float operation in the lane's own
// precision.
func floatLanes2(l *layout, a, b *Reg, op32 func(x, y float32) float32, op64 func(x, y float64) float64) Reg {
	var r Reg
	for i := 0; i < l.full; i++ {
		x, y := l.lane(a, i), l.lane(b, i)
		if l.bits == 32 {
			l.set(&r, i, f32bits(op32(f32(x), f32(y))))
		} else {
			l.set(&r, i, f64bits(op64(f64(x), f64(y))))
		}
	}
	return r
}

// intLanes2 applies a lane-wise integer operation on raw lane bits.
func intLanes2(l *layout, a, b *Reg, op func(x, y uint64) uint64) Reg {
	var r Reg
	for i := 0; i < l.full; i++ {
		l.set(&r, i, op(l.lane(a, i), l.lane(b, i)))
	}
	return r
}

// lanePred evaluates a comparison on raw lane bits, signed, unsigned or
// float according to the kind.
func (l *layout) lanePred(op cmpOp, x, y uint64) bool {
	if l.isFloat() {
		fx, fy := l.asFloat(x), l.asFloat(y)
		switch op {
		case cmpEq:
			return fx == fy
		case cmpNe:
			return fx != fy
		case cmpLt, cmpIsLess:
			return fx < fy
		case cmpLe, cmpIsLessEqual:
			return fx <= fy
		case cmpGt, cmpIsGreater:
			return fx > fy
		case cmpGe, cmpIsGreaterEqual:
			return fx >= fy
		case cmpIsLessGreater:
			return fx < fy || fx > fy
		default:
			return fx != fx || fy != fy
		}
	}
	var lt, gt bool
	if l.isSigned() {
		sx, sy := signExtend(x, l.bits), signExtend(y, l.bits)
		lt, gt = sx < sy, sx > sy
	} else {
		lt, gt = x < y, x > y
	}
	switch op {
	case cmpEq:
		return x == y
	case cmpNe, cmpIsLessGreater:
		return x != y
	case cmpLt, cmpIsLess:
		return lt
	case cmpLe, cmpIsLessEqual:
		return !gt
	case cmpGt, cmpIsGreater:
		return gt
	case cmpGe, cmpIsGreaterEqual:
		return !lt
	default:
		return false
	}
}

// vcmpLanes models compare instructions that exist for every predicate and
// produce a vector mask (NEON vceq/vcgt/vcge, Altivec vec_cmp*, cmpps).
func vcmpLanes(op cmpOp) kernel2 {
	return func(l *layout, a, b *Reg) Reg {
		var r Reg
		for i := 0; i < l.full; i++ {
			if l.lanePred(op, l.lane(a, i), l.lane(b, i)) {
				l.set(&r, i, laneMask(l.bits))
			}
		}
		return r
	}
}

// Bitwise models shared by every vector ISA (pand/por/pxor, vand/vorr/veor,
// vec_and/vec_or/vec_xor).

func vand(l *layout, a, b *Reg) Reg {
	var r Reg
	for w := 0; w < l.words; w++ {
		r[w] = a[w] & b[w]
	}
	return r
}

func vor(l *layout, a, b *Reg) Reg {
	var r Reg
	for w := 0; w < l.words; w++ {
		r[w] = a[w] | b[w]
	}
	return r
}

func vxor(l *layout, a, b *Reg) Reg {
	var r Reg
	for w := 0; w < l.words; w++ {
		r[w] = a[w] ^ b[w]
	}
	return r
}

// vandn computes ^a & b, the operand order of pandn and vbic's mirror.
func vandn(l *layout, a, b *Reg) Reg {
	var r Reg
	for w := 0; w < l.words; w++ {
		r[w] = ^a[w] & b[w]
	}
	return r
}

func vnot(l *layout, a *Reg) Reg {
	var r Reg
	for w := 0; w < l.words; w++ {
		r[w] = ^a[w]
	}
	return r
}

// bitSelect is (m & a) | (^m & b): pand/pandn/por on SSE2, vbsl on NEON,
// vec_sel on Altivec.
func bitSelect(l *layout, m, a, b *Reg) Reg {
	var r Reg
	for w := 0; w < l.words; w++ {
		r[w] = m[w]&a[w] | ^m[w]&b[w]
	}
	return r
}

// extractHigh moves lanes [h, 2h) down to [0, h) and zeroes the rest, the
// shuffle step of a horizontal reduction (vextracti128, movhlps, pshufd,
// vext).
func extractHigh(l *layout, a *Reg, h int) Reg {
	var r Reg
	for i := 0; i < h; i++ {
		l.set(&r, i, l.lane(a, h+i))
	}
	return r
}

// halvingReduce folds a register with the given binary kernel in the same
// lane order as the generic tier.
func halvingReduce(bin kernel2) kernel1 {
	return func(l *layout, a *Reg) Reg {
		r := *a
		for n := l.full; n > 1; n /= 2 {
			hi := extractHigh(l, &r, n/2)
			r = bin(l, &r, &hi)
		}
		var out Reg
		l.set(&out, 0, l.lane(&r, 0))
		return out
	}
}

// Rounding modes of the hardware round instructions.
type roundMode uint8

const (
	roundTrunc roundMode = iota
	roundFloor
	roundCeil
	roundEven
	roundAway
)

func (m roundMode) apply(x float64) float64 {
	switch m {
	case roundTrunc:
		return math.Trunc(x)
	case roundFloor:
		return math.Floor(x)
	case roundCeil:
		return math.Ceil(x)
	case roundEven:
		return math.RoundToEven(x)
	default:
		return math.Round(x)
	}
}

// roundLanes models a round-to-integral instruction with an immediate mode
// (roundps, vrndscaleps, frint*, vrfi*, xvrdpi*). NaN lanes keep their bits.
func roundLanes(mode roundMode) kernel1 {
	return func(l *layout, a *Reg) Reg {
		var r Reg
		for i := 0; i < l.full; i++ {
			v := l.lane(a, i)
			x := l.asFloat(v)
			if x != x {
				l.set(&r, i, v)
				continue
			}
			y := mode.apply(x)
			if l.bits == 32 {
				l.set(&r, i, f32bits(float32(y)))
			} else {
				l.set(&r, i, f64bits(y))
			}
		}
		return r
	}
}

// roundViaTrunc builds round-half-away-from-zero on ISAs whose round
// instruction lacks that mode: truncate, then step away from zero when the
// discarded fraction is at least one half.
func roundViaTrunc(trunc kernel1) kernel1 {
	return func(l *layout, a *Reg) Reg {
		r := trunc(l, a)
		for i := 0; i < l.full; i++ {
			x, t := l.asFloat(l.lane(a, i)), l.asFloat(l.lane(&r, i))
			if !(math.Abs(x-t) >= 0.5) {
				continue
			}
			t = math.Copysign(math.Abs(t)+1, x)
			if l.bits == 32 {
				l.set(&r, i, f32bits(float32(t)))
			} else {
				l.set(&r, i, f64bits(t))
			}
		}
		return r
	}
}

// sqrtLanes models sqrtps/vsqrtq/xvsqrt.
func sqrtLanes(l *layout, a *Reg) Reg {
	var r Reg
	for i := 0; i < l.full; i++ {
		v := l.lane(a, i)
		if l.bits == 32 {
			l.set(&r, i, f32bits(float32(math.Sqrt(float64(f32(v))))))
		} else {
			l.set(&r, i, f64bits(math.Sqrt(f64(v))))
		}
	}
	return r
}

func fadd(l *layout, a, b *Reg) Reg {
	return floatLanes2(l, a, b, func(x, y float32) float32 { return x + y }, func(x, y float64) float64 { return x + y })
}

func fsub(l *layout, a, b *Reg) Reg {
	return floatLanes2(l, a, b, func(x, y float32) float32 { return x - y }, func(x, y float64) float64 { return x - y })
}

func fmul(l *layout, a, b *Reg) Reg {
	return floatLanes2(l, a, b, func(x, y float32) float32 { return x * y }, func(x, y float64) float64 { return x * y })
}

func fdiv(l *layout, a, b *Reg) Reg {
	return floatLanes2(l, a, b, func(x, y float32) float32 { return x / y }, func(x, y float64) float64 { return x / y })
}

// fabs and fneg clear or flip the sign bits (andnps/xorps, vabs/vneg).
func fabs(l *layout, a *Reg) Reg {
	var r Reg
	h := hiBits(l.bits)
	for w := 0; w < l.words; w++ {
		r[w] = a[w] &^ h
	}
	return r
}

func fneg(l *layout, a *Reg) Reg {
	var r Reg
	h := hiBits(l.bits)
	for w := 0; w < l.words; w++ {
		r[w] = a[w] ^ h
	}
	return r
}

// lanewiseMul models instructions that multiply every lane width directly
// (pmullw, pmulld, vpmullq, vmulq, vec_mul), keeping the low half.
func lanewiseMul(l *layout, a, b *Reg) Reg {
	return intLanes2(l, a, b, func(x, y uint64) uint64 { return x * y })
}

// laneMinMax models direct integer min/max (pminsd, pminub, vminq, vec_min).
func laneMinMax(isMax bool) kernel2 {
	return func(l *layout, a, b *Reg) Reg {
		var r Reg
		for i := 0; i < l.full; i++ {
			x, y := l.lane(a, i), l.lane(b, i)
			pick := x
			if isMax && l.lanePred(cmpLt, x, y) || !isMax && l.lanePred(cmpLt, y, x) {
				pick = y
			}
			l.set(&r, i, pick)
		}
		return r
	}
}

// compareSelect builds min/max from a compare and a bit select: the NEON and
// Power float sequence, and the integer fallback where no direct min/max
// exists. It returns b where b < a (min) or a < b (max), else a.
func compareSelect(lt kernel2, sel func(l *layout, m, a, b *Reg) Reg, isMax bool) kernel2 {
	return func(l *layout, a, b *Reg) Reg {
		var m Reg
		if isMax {
			m = lt(l, a, b)
		} else {
			m = lt(l, b, a)
		}
		return sel(l, &m, b, a)
	}
}
