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

package verify

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/pkg/errors"

	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/bitmask"
	"github.com/ajroetker/go-stdsimd/simd/ops"
)

type (
	binFn[T abi.Lanes] func(ops.Impl[T], ops.Vector, ops.Vector) ops.Vector
	unFn[T abi.Lanes]  func(ops.Impl[T], ops.Vector) ops.Vector
	cmpFn[T abi.Lanes] func(ops.Impl[T], ops.Vector, ops.Vector) ops.Mask
	clsFn[T abi.Lanes] func(ops.Impl[T], ops.Vector) ops.Mask
)

type named[F any] struct {
	name string
	fn   F
}

func binOps[T abi.Lanes]() []named[binFn[T]] {
	return []named[binFn[T]]{
		{"add", ops.Impl[T].Add},
		{"sub", ops.Impl[T].Sub},
		{"mul", ops.Impl[T].Mul},
		{"min", ops.Impl[T].Min},
		{"max", ops.Impl[T].Max},
		{"and", ops.Impl[T].And},
		{"or", ops.Impl[T].Or},
		{"xor", ops.Impl[T].Xor},
		{"andnot", ops.Impl[T].AndNot},
	}
}

// divOps take a divisor without zero lanes.
func divOps[T abi.Lanes]() []named[binFn[T]] {
	return []named[binFn[T]]{
		{"div", ops.Impl[T].Div},
		{"mod", ops.Impl[T].Mod},
	}
}

func unOps[T abi.Lanes](float bool) []named[unFn[T]] {
	out := []named[unFn[T]]{
		{"neg", ops.Impl[T].Neg},
		{"abs", ops.Impl[T].Abs},
		{"not", ops.Impl[T].Not},
		{"inc", ops.Impl[T].Inc},
		{"dec", ops.Impl[T].Dec},
	}
	if float {
		out = append(out, []named[unFn[T]]{
			{"sqrt", ops.Impl[T].Sqrt},
			{"trunc", ops.Impl[T].Trunc},
			{"round", ops.Impl[T].Round},
			{"ceil", ops.Impl[T].Ceil},
			{"floor", ops.Impl[T].Floor},
			{"nearbyint", ops.Impl[T].NearbyInt},
			{"rint", ops.Impl[T].Rint},
		}...)
	}
	return out
}

func cmpOps[T abi.Lanes](float bool) []named[cmpFn[T]] {
	out := []named[cmpFn[T]]{
		{"eq", ops.Impl[T].Eq},
		{"ne", ops.Impl[T].Ne},
		{"lt", ops.Impl[T].Lt},
		{"le", ops.Impl[T].Le},
		{"gt", ops.Impl[T].Gt},
		{"ge", ops.Impl[T].Ge},
	}
	if float {
		out = append(out, []named[cmpFn[T]]{
			{"isgreater", ops.Impl[T].IsGreater},
			{"isgreaterequal", ops.Impl[T].IsGreaterEqual},
			{"isless", ops.Impl[T].IsLess},
			{"islessequal", ops.Impl[T].IsLessEqual},
			{"islessgreater", ops.Impl[T].IsLessGreater},
			{"isunordered", ops.Impl[T].IsUnordered},
		}...)
	}
	return out
}

func classOps[T abi.Lanes](float bool) []named[clsFn[T]] {
	out := []named[clsFn[T]]{{"signbit", ops.Impl[T].SignBit}}
	if float {
		out = append(out, []named[clsFn[T]]{
			{"isnan", ops.Impl[T].IsNaN},
			{"isinf", ops.Impl[T].IsInf},
			{"isfinite", ops.Impl[T].IsFinite},
			{"isnormal", ops.Impl[T].IsNormal},
		}...)
	}
	return out
}

func reduceOps(float bool) []ops.ReduceOp {
	if float {
		return []ops.ReduceOp{ops.OpPlus, ops.OpMul, ops.OpMin, ops.OpMax}
	}
	return []ops.ReduceOp{ops.OpPlus, ops.OpMul, ops.OpAnd, ops.OpOr, ops.OpXor, ops.OpMin, ops.OpMax}
}

// checker accumulates the mismatches of one case and trial.
type checker[T abi.Lanes] struct {
	c       testCase
	kind    abi.Kind
	hw, ref ops.Impl[T]
	seed    uint64
	out     []Mismatch
}

func (ck *checker[T]) fail(check, op string, lane int, got, want uint64) {
	ck.out = append(ck.out, Mismatch{
		Check:   check,
		Preset:  ck.c.preset,
		Kind:    ck.kind,
		Variant: ck.c.traits.Variant.String(),
		Op:      op,
		Lane:    lane,
		Got:     got,
		Want:    want,
		Seed:    ck.seed,
	})
}

// lanes reports the first differing lane of two bit dumps.
func (ck *checker[T]) lanes(check, op string, got, want []uint64) {
	for i := range want {
		if got[i] != want[i] {
			ck.fail(check, op, i, got[i], want[i])
			return
		}
	}
}

func (ck *checker[T]) masks(check, op string, got, want bitmask.BitMask) {
	if got.Equal(want) {
		return
	}
	i := got.Xor(want).FirstSet()
	ck.fail(check, op, i, b2u(got.Test(i)), b2u(want.Test(i)))
}

func (ck *checker[T]) scalar(check, op string, got, want T) {
	if g, w := ops.LaneBits(got), ops.LaneBits(want); g != w {
		ck.fail(check, op, -1, g, w)
	}
}

func (ck *checker[T]) ints(check, op string, got, want int) {
	if got != want {
		ck.fail(check, op, -1, uint64(got), uint64(want))
	}
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// operands is one random input set, loaded into both tables.
type operands[T abi.Lanes] struct {
	a, b, div, counts []T
	bits              bitmask.BitMask
	shift             int
}

func newOperands[T abi.Lanes](r *rand.Rand, k abi.Kind, n int) operands[T] {
	o := operands[T]{
		a:      make([]T, n),
		b:      make([]T, n),
		div:    make([]T, n),
		counts: make([]T, n),
		bits:   bitmask.New(n),
		shift:  r.IntN(k.Bits()),
	}
	for i := range n {
		o.a[i] = randomLane[T](r, k)
		o.b[i] = randomLane[T](r, k)
		if r.IntN(4) == 0 {
			o.b[i] = o.a[i]
		}
		o.div[i] = o.b[i]
		if !k.IsFloat() && o.div[i] == 0 {
			o.div[i] = 1
		}
		o.counts[i] = T(r.IntN(k.Bits()))
		o.bits = o.bits.With(i, r.IntN(2) == 0)
	}
	return o
}

func checkCase[T abi.Lanes](c testCase, seed uint64) ([]Mismatch, error) {
	k := c.traits.Kind
	hw, err := ops.New[T](c.traits, c.set)
	if err != nil {
		return nil, err
	}
	ref, err := ops.New[T](c.traits, ops.ConstEval)
	if err != nil {
		return nil, err
	}
	if hw.Traits().Size != c.traits.Size {
		return nil, errors.Errorf("table width %d, want %d", hw.Traits().Size, c.traits.Size)
	}

	ck := &checker[T]{c: c, kind: k, hw: hw, ref: ref, seed: seed}
	r := rand.New(rand.NewPCG(seed, uint64(k)))
	o := newOperands[T](r, k, c.traits.Size)
	ck.tiers(o)
	ck.padding(o, seed)
	ck.reductions(r)
	return ck.out, nil
}

// tiers compares the hardware table against constant evaluation.
func (ck *checker[T]) tiers(o operands[T]) {
	hw, ref := ck.hw, ck.ref
	float := ck.kind.IsFloat()
	ha, hb, hd := hw.Load(o.a), hw.Load(o.b), hw.Load(o.div)
	ra, rb, rd := ref.Load(o.a), ref.Load(o.b), ref.Load(o.div)
	vec := func(op string, got, want ops.Vector) {
		ck.lanes(CheckTier, op, hw.Bits(got), ref.Bits(want))
	}
	mask := func(op string, got, want ops.Mask) {
		ck.masks(CheckTier, op, hw.MaskToBits(got), ref.MaskToBits(want))
	}

	for _, op := range binOps[T]() {
		vec(op.name, op.fn(hw, ha, hb), op.fn(ref, ra, rb))
	}
	for _, op := range divOps[T]() {
		vec(op.name, op.fn(hw, ha, hd), op.fn(ref, ra, rd))
	}
	for _, op := range unOps[T](float) {
		vec(op.name, op.fn(hw, ha), op.fn(ref, ra))
	}
	if !float {
		vec("shl", hw.ShiftLeft(ha, o.shift), ref.ShiftLeft(ra, o.shift))
		vec("shr", hw.ShiftRight(ha, o.shift), ref.ShiftRight(ra, o.shift))
		hc, rc := hw.Load(o.counts), ref.Load(o.counts)
		vec("shlvar", hw.ShiftLeftVar(ha, hc), ref.ShiftLeftVar(ra, rc))
		vec("shrvar", hw.ShiftRightVar(ha, hc), ref.ShiftRightVar(ra, rc))
	}
	for _, op := range cmpOps[T](float) {
		mask(op.name, op.fn(hw, ha, hb), op.fn(ref, ra, rb))
	}
	for _, op := range classOps[T](float) {
		mask(op.name, op.fn(hw, ha), op.fn(ref, ra))
	}

	hm, rm := hw.MaskFromBits(o.bits), ref.MaskFromBits(o.bits)
	ck.masks(CheckTier, "frombits", hw.MaskToBits(hm), o.bits)
	vec("select", hw.Select(hm, ha, hb), ref.Select(rm, ra, rb))
	mask("masknot", hw.MaskNot(hm), ref.MaskNot(rm))
	hlt, rlt := hw.Lt(ha, hb), ref.Lt(ra, rb)
	mask("maskand", hw.MaskAnd(hm, hlt), ref.MaskAnd(rm, rlt))
	mask("maskor", hw.MaskOr(hm, hlt), ref.MaskOr(rm, rlt))
	mask("maskxor", hw.MaskXor(hm, hlt), ref.MaskXor(rm, rlt))
	mask("maskandnot", hw.MaskAndNot(hm, hlt), ref.MaskAndNot(rm, rlt))
	mask("maskeq", hw.MaskEq(hm, hlt), ref.MaskEq(rm, rlt))
	ck.ints(CheckTier, "count", hw.Count(hm), ref.Count(rm))
	ck.ints(CheckTier, "all", int(b2u(hw.All(hm))), int(b2u(ref.All(rm))))
	ck.ints(CheckTier, "any", int(b2u(hw.Any(hm))), int(b2u(ref.Any(rm))))
	if ref.Any(rm) {
		ck.ints(CheckTier, "minindex", hw.MinIndex(hm), ref.MinIndex(rm))
		ck.ints(CheckTier, "maxindex", hw.MaxIndex(hm), ref.MaxIndex(rm))
	}

	for _, op := range reduceOps(float) {
		ck.scalar(CheckTier, "reduce"+op.String(), hw.Reduce(op, ha), ref.Reduce(op, ra))
	}

	// The shortest source a masked load may read is up to the last
	// selected lane.
	src := o.a[:o.bits.LastSet()+1]
	vec("maskedload", hw.MaskedLoad(hm, src), ref.MaskedLoad(rm, src))
	got, want := slices.Clone(o.b), slices.Clone(o.b)
	hw.MaskedStore(ha, hm, got)
	ref.MaskedStore(ra, rm, want)
	for i := range want {
		if ops.LaneBits(got[i]) != ops.LaneBits(want[i]) {
			ck.fail(CheckTier, "maskedstore", i, ops.LaneBits(got[i]), ops.LaneBits(want[i]))
			break
		}
	}
}

// padding checks that poisoned padding lanes change no logical result.
func (ck *checker[T]) padding(o operands[T], seed uint64) {
	hw := ck.hw
	if !ck.c.traits.IsPartial {
		return
	}
	float := ck.kind.IsFloat()
	a, b, d := hw.Load(o.a), hw.Load(o.b), hw.Load(o.div)
	pa, pb, pd := hw.Poison(a, seed), hw.Poison(b, seed+1), hw.Poison(d, seed+2)
	vec := func(op string, poisoned, clean ops.Vector) {
		ck.lanes(CheckPadding, op, hw.Bits(poisoned), hw.Bits(clean))
	}
	mask := func(op string, poisoned, clean ops.Mask) {
		ck.masks(CheckPadding, op, hw.MaskToBits(poisoned), hw.MaskToBits(clean))
	}

	for _, op := range binOps[T]() {
		vec(op.name, op.fn(hw, pa, pb), op.fn(hw, a, b))
	}
	for _, op := range divOps[T]() {
		vec(op.name, op.fn(hw, pa, pd), op.fn(hw, a, d))
	}
	if !float {
		pc, c := hw.Poison(hw.Load(o.counts), seed+3), hw.Load(o.counts)
		vec("shlvar", hw.ShiftLeftVar(pa, pc), hw.ShiftLeftVar(a, c))
		vec("shrvar", hw.ShiftRightVar(pa, pc), hw.ShiftRightVar(a, c))
	}
	for _, op := range cmpOps[T](float) {
		mask(op.name, op.fn(hw, pa, pb), op.fn(hw, a, b))
	}
	for _, op := range classOps[T](float) {
		mask(op.name, op.fn(hw, pa), op.fn(hw, a))
	}
	eq, peq := hw.Eq(a, a), hw.Eq(pa, pa)
	ck.ints(CheckPadding, "all", int(b2u(hw.All(peq))), int(b2u(hw.All(eq))))
	ck.ints(CheckPadding, "count", hw.Count(hw.MaskNot(peq)), hw.Count(hw.MaskNot(eq)))
	for _, op := range reduceOps(float) {
		ck.scalar(CheckPadding, "reduce"+op.String(), hw.Reduce(op, pa), hw.Reduce(op, a))
	}
}

// reductions checks exact reductions against a sequential fold over the
// logical lanes. Float operands are small integers so that sums are exact
// in any order.
func (ck *checker[T]) reductions(r *rand.Rand) {
	hw := ck.hw
	n := hw.Traits().Size
	xs := make([]T, n)
	for i := range xs {
		if ck.kind.IsFloat() {
			xs[i] = T(r.IntN(129) - 64)
		} else {
			xs[i] = randomLane[T](r, ck.kind)
		}
	}
	v := hw.Load(xs)

	fold := func(fn func(x, y T) T) T {
		acc := xs[0]
		for _, x := range xs[1:] {
			acc = fn(acc, x)
		}
		return acc
	}
	add := func(x, y T) T { return x + y }
	ck.scalar(CheckReduce, "plus", hw.Reduce(ops.OpPlus, v), fold(add))
	ck.scalar(CheckReduce, "func", hw.ReduceFunc(v, add), fold(add))
	ck.scalar(CheckReduce, "min", hw.ReduceMin(v), fold(func(x, y T) T { return min(x, y) }))
	ck.scalar(CheckReduce, "max", hw.ReduceMax(v), fold(func(x, y T) T { return max(x, y) }))
	if !ck.kind.IsFloat() {
		ck.scalar(CheckReduce, "mul", hw.Reduce(ops.OpMul, v), fold(func(x, y T) T { return x * y }))
	}
}

// randomLane draws a lane value, favoring edge cases.
func randomLane[T abi.Lanes](r *rand.Rand, k abi.Kind) T {
	switch k {
	case abi.Float32:
		return ops.LaneFromBits[T](uint64(math.Float32bits(float32(randomFloat(r, 126)))))
	case abi.Float64:
		return ops.LaneFromBits[T](math.Float64bits(randomFloat(r, 1022)))
	}
	bits := k.Bits()
	if r.IntN(4) == 0 {
		edges := []uint64{0, 1, math.MaxUint64, 1 << (bits - 1), 1<<(bits-1) - 1}
		return ops.LaneFromBits[T](edges[r.IntN(len(edges))])
	}
	return ops.LaneFromBits[T](r.Uint64())
}

// randomFloat returns either a special value or a signed number with a
// binary exponent up to maxExp, which float32 callers keep in range.
func randomFloat(r *rand.Rand, maxExp int) float64 {
	if r.IntN(6) == 0 {
		specials := []float64{
			0, math.Copysign(0, -1), math.Inf(1), math.Inf(-1), math.NaN(),
			0.5, -0.5, 1.5, 2.5, -2.5, 3, math.SmallestNonzeroFloat32, 1e-310,
		}
		return specials[r.IntN(len(specials))]
	}
	x := math.Ldexp(r.Float64()+0.5, r.IntN(2*maxExp/4+1)-maxExp/4)
	if r.IntN(2) == 0 {
		x = -x
	}
	return x
}
