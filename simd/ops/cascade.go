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
	"cmp"
	"slices"

	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/features"
)

// ConstEval is the capability set of the constant-evaluation context: with
// no feature available every operation binds the deterministic per-lane
// path.
const ConstEval features.Set = 0

// KernelInfo names the kernel bound to one operation.
type KernelInfo struct {
	Op     string
	Kernel string
}

type (
	shiftKernel  = func(l *layout, a *Reg, n int) Reg
	blendKernel  = func(l *layout, m, a, b *Reg) Reg
	maskTest     = func(l *layout, m *Reg) bool
	maskToBits   = func(l *layout, m *Reg) uint64
	maskFromBits = func(l *layout, sel uint64) Reg
)

// kernels is the operation table of one register layout. It is filled once
// from the generic tier and then overridden, operation by operation, by the
// first hardware option whose feature guard holds.
type kernels[T abi.Lanes] struct {
	bin      [numBinOps]kernel2
	un       [numUnOps]kernel1
	shift    [numShiftOps]shiftKernel
	shiftVar [numShiftOps]kernel2
	cmp      [numCmpOps]kernel2
	class    [numClassOps]kernel1
	reduce   [numReduceOps]kernel1
	blend    blendKernel
	toBits   maskToBits
	fromBits maskFromBits
	count    func(l *layout, m *Reg) int
	all, any maskTest

	maskedLoad  func(l *layout, m *Reg, src []T) Reg
	maskedStore func(l *layout, a, m *Reg, dst []T)

	names map[string]string
}

// option is one branch of a cascade.
type option[K any] struct {
	name string
	when bool
	fn   K
}

// cascade binds dst to the first option whose guard holds. When none does
// the generic kernel already in dst stays.
func cascade[K any, T abi.Lanes](k *kernels[T], op string, dst *K, opts ...option[K]) {
	for _, o := range opts {
		if o.when {
			*dst = o.fn
			k.names[op] = o.name
			return
		}
	}
}

// isa is the instruction set family a capability set targets.
type isa uint8

const (
	isaNone isa = iota
	isaX86
	isaARM
	isaPower
)

func isaOf(s features.Set) isa {
	switch {
	case s.HasAny(features.SSE, features.SSE2, features.AVX, features.AVX2, features.AVX512F):
		return isaX86
	case s.HasAny(features.NEON, features.ASIMD):
		return isaARM
	case s.HasAny(features.Altivec, features.VSX):
		return isaPower
	}
	return isaNone
}

// bind builds the kernel table for layout l under capability set s.
func bind[T abi.Lanes](l *layout, s features.Set) *kernels[T] {
	k := genericKernels[T](l)
	if l.family == abi.Scalar {
		return k
	}
	switch isaOf(s) {
	case isaX86:
		bindX86(k, l, s)
	case isaARM:
		bindARM(k, l, s)
	case isaPower:
		bindPower(k, l, s)
	}
	bindDerived(k, l)
	return k
}

func genericKernels[T abi.Lanes](l *layout) *kernels[T] {
	g := genericTier[T]{o: newLaneOps[T]()}
	name := "generic"
	if l.family == abi.Scalar {
		name = "scalar"
	}
	k := &kernels[T]{names: map[string]string{}}
	for op := range numBinOps {
		k.bin[op] = g.binary(op)
		k.names[binNames[op]] = name
	}
	for op := range numUnOps {
		k.un[op] = g.unary(op)
		k.names[unNames[op]] = name
	}
	for op := range numShiftOps {
		k.shift[op] = g.shift(op)
		k.shiftVar[op] = g.shiftVar(op)
		k.names[shiftNames[op]] = name
		k.names[shiftNames[op]+"var"] = name
	}
	for op := range numCmpOps {
		k.cmp[op] = g.compare(op)
		k.names[cmpNames[op]] = name
	}
	for op := range numClassOps {
		k.class[op] = g.classify(op)
		k.names[classNames[op]] = name
	}
	for op := range numReduceOps {
		k.reduce[op] = g.reduce(op)
		k.names["reduce"+op.String()] = name
	}
	k.blend = g.blend
	k.toBits = genericToBits
	k.fromBits = genericFromBits
	k.count = genericCount
	k.all = func(l *layout, m *Reg) bool { return genericCount(l, m) == l.size }
	k.any = func(l *layout, m *Reg) bool { return genericCount(l, m) > 0 }
	k.maskedLoad = func(l *layout, m *Reg, src []T) Reg {
		return genericMaskedLoad(l, genericToBits(l, m), src)
	}
	k.maskedStore = func(l *layout, a, m *Reg, dst []T) {
		genericMaskedStore(l, a, genericToBits(l, m), dst)
	}
	for _, op := range []string{"blend", "tobits", "frombits", "count", "all", "any", "maskedload", "maskedstore"} {
		k.names[op] = name
	}
	return k
}

// divOrGeneric runs a hardware division that may decline, in which case the
// generic kernel computes the result.
func divOrGeneric(div func(l *layout, a, b *Reg) (Reg, bool), fallback kernel2) kernel2 {
	return func(l *layout, a, b *Reg) Reg {
		if r, ok := div(l, a, b); ok {
			return r
		}
		return fallback(l, a, b)
	}
}

// bindDerived fills in operations composed from other kernels once the
// primitive cascades are settled.
func bindDerived[T abi.Lanes](k *kernels[T], l *layout) {
	if l.isFloat() {
		return
	}
	// Integer modulus is a - (a / b) * b on every ISA. A per-lane division
	// keeps the per-lane modulus, which panics on zero the same way.
	if n := k.names["div"]; n == "generic" || n == "scalar" {
		return
	}
	div, mul, sub := k.bin[opDiv], k.bin[opMul], k.bin[opSub]
	k.bin[opMod] = func(l *layout, a, b *Reg) Reg {
		q := div(l, a, b)
		p := mul(l, &q, b)
		return sub(l, a, &p)
	}
	k.names["mod"] = "div-mul-sub"
}

// reduceFromBin rebinds the reductions to a halving tree over the bound
// binary kernels.
func reduceFromBin[T abi.Lanes](k *kernels[T], prefix string) {
	for op := range numReduceOps {
		bop := op.binOp()
		if k.names[binNames[bop]] == "generic" {
			continue
		}
		k.reduce[op] = halvingReduce(k.bin[bop])
		k.names["reduce"+op.String()] = prefix + "+" + k.names[binNames[bop]]
	}
}

// describe lists the bound kernel of every operation, sorted by operation.
func (k *kernels[T]) describe() []KernelInfo {
	out := make([]KernelInfo, 0, len(k.names))
	for op, name := range k.names {
		out = append(out, KernelInfo{Op: op, Kernel: name})
	}
	slices.SortFunc(out, func(a, b KernelInfo) int { return cmp.Compare(a.Op, b.Op) })
	return out
}
