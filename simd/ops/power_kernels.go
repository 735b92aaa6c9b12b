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

// bindPower overrides the generic table with Altivec and VSX kernels.
func bindPower[T abi.Lanes](k *kernels[T], l *layout, s features.Set) {
	vsx, p8 := s.Has(features.VSX), s.Has(features.POWER8)
	isInt := !l.isFloat()
	f64 := l.kind == abi.Float64
	// 64-bit integer lanes arrived with POWER8; float64 lanes with VSX.
	laneOK := isInt && (l.bits < 64 || p8) || !isInt && (!f64 || vsx)

	fp := "vec_"
	if f64 {
		fp = "xv"
	}

	cascade(k, "add", &k.bin[opAdd],
		option[kernel2]{fp + "add", !isInt && laneOK, fadd},
		option[kernel2]{"vec_add", isInt && laneOK, padd},
	)
	cascade(k, "sub", &k.bin[opSub],
		option[kernel2]{fp + "sub", !isInt && laneOK, fsub},
		option[kernel2]{"vec_sub", isInt && laneOK, psub},
	)
	cascade(k, "mul", &k.bin[opMul],
		option[kernel2]{"vec_madd", !isInt && laneOK, fmul},
		option[kernel2]{"vmladduhm", isInt && l.bits <= 16, vmladduhm},
		option[kernel2]{"vmuluwm", isInt && l.bits == 32 && p8, lanewiseMul},
	)
	cascade(k, "div", &k.bin[opDiv], option[kernel2]{"xvdiv", !isInt && vsx, fdiv})

	lt := vcmpLanes(cmpLt)
	cascade(k, "min", &k.bin[opMin],
		option[kernel2]{"vec_cmpgt+vec_sel", !isInt && laneOK, compareSelect(lt, bitSelect, false)},
		option[kernel2]{"vec_min", isInt && laneOK, laneMinMax(false)},
	)
	cascade(k, "max", &k.bin[opMax],
		option[kernel2]{"vec_cmpgt+vec_sel", !isInt && laneOK, compareSelect(lt, bitSelect, true)},
		option[kernel2]{"vec_max", isInt && laneOK, laneMinMax(true)},
	)
	cascade(k, "and", &k.bin[opAnd], option[kernel2]{"vec_and", true, vand})
	cascade(k, "or", &k.bin[opOr], option[kernel2]{"vec_or", true, vor})
	cascade(k, "xor", &k.bin[opXor], option[kernel2]{"vec_xor", true, vxor})
	cascade(k, "andnot", &k.bin[opAndNot], option[kernel2]{"vec_andc", true, func(l *layout, a, b *Reg) Reg { return vandn(l, b, a) }})

	if isInt && laneOK {
		cascade(k, "shl", &k.shift[opShl], option[shiftKernel]{"vec_sl", true, vshlImm(opShl)})
		cascade(k, "shr", &k.shift[opShr], option[shiftKernel]{"vec_sr/vec_sra", true, vshlImm(opShr)})
		cascade(k, "shlvar", &k.shiftVar[opShl], option[kernel2]{"vec_sl+vec_sel", true, vecShiftVar(opShl)})
		cascade(k, "shrvar", &k.shiftVar[opShr], option[kernel2]{"vec_sr+vec_sel", true, vecShiftVar(opShr)})
	}

	cascade(k, "abs", &k.un[opAbs],
		option[kernel1]{fp + "abs", !isInt, fabs},
		option[kernel1]{"vec_abs", isInt && l.isSigned() && laneOK, pabs},
	)
	cascade(k, "neg", &k.un[opNeg],
		option[kernel1]{fp + "neg", !isInt, fneg},
		option[kernel1]{"vec_sub", isInt && laneOK, pnegInt},
	)
	cascade(k, "not", &k.un[opNot], option[kernel1]{"vec_nor", true, vnot})
	cascade(k, "sqrt", &k.un[opSqrt], option[kernel1]{"xvsqrt", !isInt && vsx, sqrtLanes})

	if !isInt && laneOK {
		trunc, floor, ceil, near, away := "vrfiz", "vrfim", "vrfip", "vrfin", "xvrspi"
		if f64 {
			trunc, floor, ceil, near, away = "xvrdpiz", "xvrdpim", "xvrdpip", "xvrdpic", "xvrdpi"
		}
		cascade(k, "trunc", &k.un[opTrunc], option[kernel1]{trunc, true, roundLanes(roundTrunc)})
		cascade(k, "floor", &k.un[opFloor], option[kernel1]{floor, true, roundLanes(roundFloor)})
		cascade(k, "ceil", &k.un[opCeil], option[kernel1]{ceil, true, roundLanes(roundCeil)})
		cascade(k, "nearbyint", &k.un[opNearbyInt], option[kernel1]{near, true, roundLanes(roundEven)})
		cascade(k, "rint", &k.un[opRint], option[kernel1]{near, true, roundLanes(roundEven)})
		cascade(k, "round", &k.un[opRound],
			option[kernel1]{away, vsx, roundLanes(roundAway)},
			option[kernel1]{trunc + "+fixup", true, roundViaTrunc(roundLanes(roundTrunc))},
		)
	}

	for op := range numCmpOps {
		cascade(k, cmpNames[op], &k.cmp[op], option[kernel2]{"vec_cmp", laneOK, vcmpLanes(op)})
	}
	for op := range numClassOps {
		cascade(k, classNames[op], &k.class[op], option[kernel1]{"vec_and+vec_cmpeq", !isInt && laneOK, classifyBitTests(op)})
	}
	cascade(k, "blend", &k.blend, option[blendKernel]{"vec_sel", true, bitSelect})
	cascade(k, "tobits", &k.toBits, option[maskToBits]{"vgbbd+vbpermq", p8, vgbbdBits})

	reduceFromBin(k, "vec_sld")
}
