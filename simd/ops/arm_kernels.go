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
	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/features"
)

// bindARM overrides the generic table with NEON and AArch64 Advanced SIMD
// kernels.
func bindARM[T abi.Lanes](k *kernels[T], l *layout, s features.Set) {
	asimd := s.Has(features.ASIMD)
	isInt := !l.isFloat()
	// ARMv7 NEON lacks most 64-bit lane integer operations.
	int64OK := l.bits < 64 || asimd

	cascade(k, "add", &k.bin[opAdd],
		option[kernel2]{"vaddq_f", !isInt, fadd},
		option[kernel2]{"vaddq", isInt, padd},
	)
	cascade(k, "sub", &k.bin[opSub],
		option[kernel2]{"vsubq_f", !isInt, fsub},
		option[kernel2]{"vsubq", isInt, psub},
	)
	cascade(k, "mul", &k.bin[opMul],
		option[kernel2]{"vmulq_f", !isInt, fmul},
		option[kernel2]{"vmulq", isInt && l.bits < 64, lanewiseMul},
	)
	cascade(k, "div", &k.bin[opDiv], option[kernel2]{"vdivq_f", !isInt && asimd, fdiv})

	lt := vcmpLanes(cmpLt)
	cascade(k, "min", &k.bin[opMin],
		option[kernel2]{"vcgtq+vbslq", !isInt, compareSelect(lt, bitSelect, false)},
		option[kernel2]{"vminq", isInt && l.bits < 64, laneMinMax(false)},
		option[kernel2]{"vcgtq+vbslq", isInt && asimd, compareSelect(lt, bitSelect, false)},
	)
	cascade(k, "max", &k.bin[opMax],
		option[kernel2]{"vcgtq+vbslq", !isInt, compareSelect(lt, bitSelect, true)},
		option[kernel2]{"vmaxq", isInt && l.bits < 64, laneMinMax(true)},
		option[kernel2]{"vcgtq+vbslq", isInt && asimd, compareSelect(lt, bitSelect, true)},
	)
	cascade(k, "and", &k.bin[opAnd], option[kernel2]{"vandq", true, vand})
	cascade(k, "or", &k.bin[opOr], option[kernel2]{"vorrq", true, vor})
	cascade(k, "xor", &k.bin[opXor], option[kernel2]{"veorq", true, vxor})
	cascade(k, "andnot", &k.bin[opAndNot], option[kernel2]{"vbicq", true, func(l *layout, a, b *Reg) Reg { return vandn(l, b, a) }})

	if isInt {
		cascade(k, "shl", &k.shift[opShl], option[shiftKernel]{"vshlq_n", true, vshlImm(opShl)})
		cascade(k, "shr", &k.shift[opShr], option[shiftKernel]{"vshrq_n", true, vshlImm(opShr)})
		cascade(k, "shlvar", &k.shiftVar[opShl], option[kernel2]{"vminq+vshlq", int64OK, vshlVar(opShl)})
		cascade(k, "shrvar", &k.shiftVar[opShr], option[kernel2]{"vminq+vnegq+vshlq", int64OK, vshlVar(opShr)})
	}

	cascade(k, "abs", &k.un[opAbs],
		option[kernel1]{"vabsq_f", !isInt, fabs},
		option[kernel1]{"vabsq", isInt && l.isSigned() && int64OK, pabs},
	)
	cascade(k, "neg", &k.un[opNeg],
		option[kernel1]{"vnegq_f", !isInt, fneg},
		option[kernel1]{"vnegq", isInt && int64OK, pnegInt},
	)
	cascade(k, "not", &k.un[opNot], option[kernel1]{"vmvnq", true, vnot})
	if !isInt && asimd {
		cascade(k, "sqrt", &k.un[opSqrt], option[kernel1]{"vsqrtq", true, sqrtLanes})
		for _, r := range []struct {
			op   unOp
			name string
			mode roundMode
		}{
			{opTrunc, "vrndq", roundTrunc},
			{opFloor, "vrndmq", roundFloor},
			{opCeil, "vrndpq", roundCeil},
			{opNearbyInt, "vrndiq", roundEven},
			{opRint, "vrndxq", roundEven},
			{opRound, "vrndaq", roundAway},
		} {
			cascade(k, unNames[r.op], &k.un[r.op], option[kernel1]{r.name, true, roundLanes(r.mode)})
		}
	}

	for op := range numCmpOps {
		cascade(k, cmpNames[op], &k.cmp[op], option[kernel2]{"vceqq/vcgtq", !isInt || int64OK, vcmpLanes(op)})
	}
	for op := range numClassOps {
		cascade(k, classNames[op], &k.class[op], option[kernel1]{"vandq+vceqq", !isInt, classifyBitTests(op)})
	}
	cascade(k, "blend", &k.blend, option[blendKernel]{"vbslq", true, bitSelect})
	cascade(k, "tobits", &k.toBits, option[maskToBits]{"vshrn", true, vshrnBits})
	cascade(k, "frombits", &k.fromBits, option[maskFromBits]{"vtstq", true, vtstBits})

	reduceFromBin(k, "vext")
	if isInt && asimd {
		cascade(k, "reduceplus", &k.reduce[OpPlus], option[kernel1]{"vaddvq", true, vaddv(OpPlus)})
		cascade(k, "reducemin", &k.reduce[OpMin], option[kernel1]{"vminvq", l.bits < 64, vaddv(OpMin)})
		cascade(k, "reducemax", &k.reduce[OpMax], option[kernel1]{"vmaxvq", l.bits < 64, vaddv(OpMax)})
	}
}
