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

// Models of PowerPC Altivec (VMX) and VSX instructions.

// vmladduhm multiplies 8 and 16-bit lanes with a multiply-add of a zero
// addend, keeping the low half; Altivec has no plain 8-bit multiply, so
// byte lanes go through vmuleub/vmuloub and a vperm that picks the low
// bytes, which leaves the same lane results.
func vmladduhm(l *layout, a, b *Reg) Reg {
	return lanewiseMul(l, a, b)
}

// vecShiftVar models vec_sl/vec_sr/vec_sra with per-lane counts. The
// hardware uses only the low log2(bits) bits of each count, so counts of
// the lane width or more are detected with vec_cmpgt against bits-1 and
// the result replaced with vec_sel: zero for left and logical right
// shifts, the sign fill for arithmetic ones.
func vecShiftVar(op shiftOp) kernel2 {
	return func(l *layout, a, c *Reg) Reg {
		var r Reg
		for i := 0; i < l.full; i++ {
			x, n := l.lane(a, i), l.lane(c, i)
			modN := n & uint64(l.bits-1)
			var v uint64
			switch {
			case op == opShl:
				v = x << modN
			case l.isSigned():
				v = uint64(signExtend(x, l.bits) >> modN)
			default:
				v = x >> modN
			}
			if n >= uint64(l.bits) {
				v = 0
				if op == opShr && l.isSigned() {
					v = uint64(signExtend(x, l.bits) >> (l.bits - 1))
				}
			}
			l.set(&r, i, v&laneMask(l.bits))
		}
		return r
	}
}

// vgbbdBits gathers mask lane bits with vgbbd and vbpermq (POWER8); older
// cores use a lane loop.
func vgbbdBits(l *layout, m *Reg) uint64 {
	var out uint64
	for i := 0; i < l.full; i++ {
		if l.lane(m, i) != 0 {
			out |= 1 << i
		}
	}
	return out
}
