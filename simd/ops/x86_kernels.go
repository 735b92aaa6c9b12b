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

// bindX86 overrides the generic table with SSE2 through AVX-512 kernels.
// Every branch tests the flag it relies on; the resolver only hands out a
// layout whose base extension is present, so the register width itself
// needs no further guard.
func bindX86[T abi.Lanes](k *kernels[T], l *layout, s features.Set) {
	a512 := l.family == abi.Avx512Like
	sse2 := s.Has(features.SSE2) || a512
	sse41 := s.Has(features.SSE41) || a512
	avx2 := s.Has(features.AVX2) || a512
	isInt := !l.isFloat()

	vp := func(base string) string {
		if a512 {
			return "v" + base
		}
		return base
	}

	cascade(k, "add", &k.bin[opAdd],
		option[kernel2]{vp("addp"), !isInt, fadd},
		option[kernel2]{vp("padd"), isInt && sse2, padd},
	)
	cascade(k, "sub", &k.bin[opSub],
		option[kernel2]{vp("subp"), !isInt, fsub},
		option[kernel2]{vp("psub"), isInt && sse2, psub},
	)
	cascade(k, "mul", &k.bin[opMul],
		option[kernel2]{vp("mulp"), !isInt, fmul},
		option[kernel2]{"pmullw+pand", isInt && sse2 && l.bits == 8, pmullwBytes},
		option[kernel2]{vp("pmullw"), isInt && sse2 && l.bits == 16, lanewiseMul},
		option[kernel2]{vp("pmulld"), isInt && sse41 && l.bits == 32, lanewiseMul},
		option[kernel2]{"pmuludq+pshufd", isInt && sse2 && l.bits == 32, pmuludqDwords},
		option[kernel2]{"vpmullq", isInt && a512 && s.Has(features.AVX512DQ) && l.bits == 64, lanewiseMul},
		option[kernel2]{"pmuludq*3", isInt && sse2 && l.bits == 64, pmuludqQwords},
	)
	generic := k.bin[opDiv]
	cascade(k, "div", &k.bin[opDiv],
		option[kernel2]{vp("divp"), !isInt, fdiv},
		option[kernel2]{"cvtdq2pd+divpd", isInt && sse2 && l.bits <= 32, divOrGeneric(cvtDivide, generic)},
	)

	directMin := isInt && (a512 ||
		l.bits == 8 && !l.isSigned() && sse2 ||
		l.bits == 16 && l.isSigned() && sse2 ||
		l.bits <= 32 && sse41)
	for _, isMax := range []bool{false, true} {
		op, name, swapped := opMin, "min", kernel2(minpsSwapped)
		if isMax {
			op, name, swapped = opMax, "max", maxpsSwapped
		}
		cascade(k, name, &k.bin[op],
			option[kernel2]{vp(name + "p"), !isInt, swapped},
			option[kernel2]{vp("p" + name), directMin, laneMinMax(isMax)},
		)
	}

	for _, b := range []struct {
		op   binOp
		name string
		fn   kernel2
	}{
		{opAnd, "pand", vand},
		{opOr, "por", vor},
		{opXor, "pxor", vxor},
		{opAndNot, "pandn", func(l *layout, a, b *Reg) Reg { return vandn(l, b, a) }},
	} {
		cascade(k, binNames[b.op], &k.bin[b.op], option[kernel2]{vp(b.name), sse2 || !isInt, b.fn})
	}

	// Shifts.
	sra := shiftKernel(psra)
	switch {
	case l.bits == 8:
		sra = psraBytes
	case l.bits == 64 && a512:
		sra = vpsraq
	case l.bits == 64:
		sra = psraqEmulated
	}
	if isInt && sse2 {
		cascade(k, "shl", &k.shift[opShl], option[shiftKernel]{vp("psll"), true, psll})
		if l.isSigned() {
			cascade(k, "shr", &k.shift[opShr], option[shiftKernel]{vp("psra"), true, sra})
		} else {
			cascade(k, "shr", &k.shift[opShr], option[shiftKernel]{vp("psrl"), true, psrl})
		}
		wide := l.bits >= 32 || a512 && l.bits == 16
		cascade(k, "shlvar", &k.shiftVar[opShl], option[kernel2]{"vpsllv", avx2 && wide, vpshiftv(opShl)})
		sraOK := !l.isSigned() || l.bits == 32 || a512
		cascade(k, "shrvar", &k.shiftVar[opShr], option[kernel2]{"vpsrlv/vpsrav", avx2 && wide && sraOK, vpshiftv(opShr)})
	}

	// Unary.
	var abs kernel1
	switch {
	case !l.isSigned():
		abs = func(l *layout, a *Reg) Reg { return *a }
	case l.bits == 64 && !a512:
		abs = absXorSub(sra)
	case s.Has(features.SSSE3) || a512:
		abs = pabs
	default:
		abs = absXorSub(sra)
	}
	cascade(k, "abs", &k.un[opAbs],
		option[kernel1]{vp("andnp"), !isInt, fabs},
		option[kernel1]{vp("pabs"), isInt && sse2, abs},
	)
	cascade(k, "neg", &k.un[opNeg],
		option[kernel1]{vp("xorp"), !isInt, fneg},
		option[kernel1]{vp("psub"), isInt && sse2, pnegInt},
	)
	cascade(k, "not", &k.un[opNot], option[kernel1]{vp("pxor"), sse2 || !isInt, vnot})
	cascade(k, "sqrt", &k.un[opSqrt], option[kernel1]{vp("sqrtp"), !isInt, sqrtLanes})
	if !isInt {
		rnd := vp("roundp")
		if a512 {
			rnd = "vrndscalep"
		}
		for _, r := range []struct {
			op   unOp
			mode roundMode
		}{
			{opTrunc, roundTrunc}, {opFloor, roundFloor}, {opCeil, roundCeil},
			{opNearbyInt, roundEven}, {opRint, roundEven},
		} {
			cascade(k, unNames[r.op], &k.un[r.op], option[kernel1]{rnd, sse41, roundLanes(r.mode)})
		}
		cascade(k, "round", &k.un[opRound], option[kernel1]{rnd + "+fixup", sse41, roundViaTrunc(roundLanes(roundTrunc))})
	}

	// Compares, classification, blends and mask handling.
	if a512 {
		for op := range numCmpOps {
			name := "vpcmp"
			if !isInt {
				name = "vcmpp"
			}
			cascade(k, cmpNames[op], &k.cmp[op], option[kernel2]{name, true, vpcmpK(op)})
		}
		for op := range numClassOps {
			cascade(k, classNames[op], &k.class[op], option[kernel1]{"vfpclass", !isInt && s.Has(features.AVX512DQ), vfpclass(op)})
		}
		cascade(k, "blend", &k.blend, option[blendKernel]{"vpblendm", true, vpblendm})
		cascade(k, "tobits", &k.toBits, option[maskToBits]{"kmov", true, kmaskToBits})
		cascade(k, "frombits", &k.fromBits, option[maskFromBits]{"kmov", true, kmaskFromBits})
		cascade(k, "all", &k.all, option[maskTest]{"kortest", true, kortestAll})
		cascade(k, "any", &k.any, option[maskTest]{"kortest", true, kortestAny})
		cascade(k, "count", &k.count, option[func(l *layout, m *Reg) int]{"popcnt", s.Has(features.POPCNT), popcntMask(kmaskToBits)})
		cascade(k, "maskedload", &k.maskedLoad, option[func(l *layout, m *Reg, src []T) Reg]{"vmovdqu{k}{z}", true, kmovLoad[T]})
		cascade(k, "maskedstore", &k.maskedStore, option[func(l *layout, a, m *Reg, dst []T)]{"vmovdqu{k}", true, kmovStore[T]})
	} else {
		var gt kernel2 = pcmpgt
		if l.bits == 64 && !s.Has(features.SSE42) {
			gt = pcmpgtqEmulated
		}
		if isInt && !l.isSigned() {
			gt = biased(gt)
		}
		for op := range numCmpOps {
			cascade(k, cmpNames[op], &k.cmp[op],
				option[kernel2]{"cmpp", !isInt, vcmpLanes(op)},
				option[kernel2]{"pcmpeq/pcmpgt", isInt && sse2, intCompareFromGt(op, gt)},
			)
		}
		for op := range numClassOps {
			cascade(k, classNames[op], &k.class[op], option[kernel1]{"pand+pcmpeq", !isInt && sse2, classifyBitTests(op)})
		}
		cascade(k, "blend", &k.blend,
			option[blendKernel]{"pblendvb", sse41, pblendvb},
			option[blendKernel]{"pand/pandn/por", true, bitSelect},
		)
		cascade(k, "tobits", &k.toBits, option[maskToBits]{"pmovmskb/movmskp", true, movemask})
		cascade(k, "frombits", &k.fromBits, option[maskFromBits]{"pand+pcmpeq", sse2, expandMask})
		cascade(k, "all", &k.all, option[maskTest]{"ptest", sse41, ptestAll})
		cascade(k, "any", &k.any, option[maskTest]{"ptest", sse41, ptestAny})
		cascade(k, "count", &k.count, option[func(l *layout, m *Reg) int]{"movmsk+popcnt", s.Has(features.POPCNT), popcntMask(movemask)})
		maskmov := l.bits >= 32 && (avx2 || !isInt && s.Has(features.AVX))
		cascade(k, "maskedload", &k.maskedLoad, option[func(l *layout, m *Reg, src []T) Reg]{"vpmaskmov", maskmov, vpmaskmovLoad[T]})
		cascade(k, "maskedstore", &k.maskedStore, option[func(l *layout, a, m *Reg, dst []T)]{"vpmaskmov", maskmov, vpmaskmovStore[T]})
	}

	if isInt && !directMin && sse2 {
		lt, blend := k.cmp[cmpLt], k.blend
		cascade(k, "min", &k.bin[opMin], option[kernel2]{"pcmpgt+blend", true, compareSelect(lt, blend, false)})
		cascade(k, "max", &k.bin[opMax], option[kernel2]{"pcmpgt+blend", true, compareSelect(lt, blend, true)})
	}

	bindArchSIMD(k, l, s)
	reduceFromBin(k, "shuffle")
}
