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

// Models of ARM NEON (ARMv7) and Advanced SIMD (AArch64) instructions.

// vshlImm models vshlq_n/vshrq_n with an immediate count; the same lane
// semantics as vec_sl/vec_sr/vec_sra with a splatted count on Power.
func vshlImm(op shiftOp) func(l *layout, a *Reg, n int) Reg {
	return func(l *layout, a *Reg, n int) Reg {
		var r Reg
		for i := 0; i < l.full; i++ {
			x := l.lane(a, i)
			switch {
			case op == opShl:
				x <<= n
			case l.isSigned():
				x = uint64(signExtend(x, l.bits) >> n)
			default:
				x >>= n
			}
			l.set(&r, i, x&laneMask(l.bits))
		}
		return r
	}
}

// vshlVar models the register form of vshl, which shifts left by a signed
// per-lane count and right by a negative one. Counts are first clamped with
// vminq_u to the lane width; right shifts negate them with vnegq.
func vshlVar(op shiftOp) kernel2 {
	return func(l *layout, a, c *Reg) Reg {
		var r Reg
		for i := 0; i < l.full; i++ {
			x, n := l.lane(a, i), min(l.lane(c, i), uint64(l.bits))
			s := int64(n)
			if op == opShr {
				s = -s
			}
			var v uint64
			switch {
			case s >= 0:
				v = x << uint(s)
			case l.isSigned():
				v = uint64(signExtend(x, l.bits) >> uint(-s))
			default:
				v = x >> uint(-s)
			}
			l.set(&r, i, v&laneMask(l.bits))
		}
		return r
	}
}

// vaddv models the across-vector integer reductions of AArch64 (addv,
// sminv/uminv, smaxv/umaxv, and the orr/eor/and folds built on vpadd).
// Integer operations are associative and commutative, so a left fold gives
// the same result as the halving tree.
func vaddv(op ReduceOp) kernel1 {
	return func(l *layout, a *Reg) Reg {
		acc := l.lane(a, 0)
		for i := 1; i < l.full; i++ {
			x := l.lane(a, i)
			switch op {
			case OpPlus:
				acc += x
			case OpMin:
				if l.lanePred(cmpLt, x, acc) {
					acc = x
				}
			case OpMax:
				if l.lanePred(cmpLt, acc, x) {
					acc = x
				}
			}
		}
		var out Reg
		l.set(&out, 0, acc)
		return out
	}
}

// vshrnBits gathers the top bit of each mask lane into lane bits, the
// vshrn/vaddv sequence NEON uses in place of a movemask instruction.
func vshrnBits(l *layout, m *Reg) uint64 {
	var out uint64
	for i := 0; i < l.full; i++ {
		out |= l.lane(m, i) >> (l.bits - 1) << i
	}
	return out
}

// vtstBits expands lane bits into a vector mask: broadcast the bits, and
// vtst each lane against its own bit.
func vtstBits(l *layout, sel uint64) Reg {
	return l.maskFromPred(func(i int) bool { return sel>>i&1 != 0 })
}
