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

	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/bitmask"
	"github.com/ajroetker/go-stdsimd/simd/internal/check"
)

type (
	kernel1 = func(l *layout, a *Reg) Reg
	kernel2 = func(l *layout, a, b *Reg) Reg
)

// laneOps holds the per-lane semantics of every operation on T. The generic
// tier applies them lane by lane over a Builtin; the scalar tier applies
// them to its single lane. Hardware kernels must agree with them bit for
// bit.
type laneOps[T abi.Lanes] struct {
	bits   int
	float  bool
	signed bool
	sign   uint64
	mask   uint64
	// shifter is 2^mantissa: adding and subtracting it rounds any smaller
	// magnitude to an integer in the current rounding mode.
	shifter T
	half    T
}

func newLaneOps[T abi.Lanes]() laneOps[T] {
	k := abi.KindOf[T]()
	o := laneOps[T]{
		bits:   k.Bits(),
		float:  k.IsFloat(),
		signed: k.IsSigned() && !k.IsFloat(),
		mask:   laneMask(k.Bits()),
		sign:   uint64(1) << (k.Bits() - 1),
	}
	if o.float {
		shifter, half := math.Ldexp(1, k.MantissaBits()), 0.5
		o.shifter, o.half = T(shifter), T(half)
	}
	return o
}

func (o laneOps[T]) binary(op binOp, x, y T) T {
	switch op {
	case opAdd:
		return x + y
	case opSub:
		return x - y
	case opMul:
		return x * y
	case opDiv:
		return x / y
	case opMod:
		return o.mod(x, y)
	case opMin:
		if y < x {
			return y
		}
		return x
	case opMax:
		if x < y {
			return y
		}
		return x
	case opAnd:
		return fromBits[T](bitsOf(x) & bitsOf(y))
	case opOr:
		return fromBits[T](bitsOf(x) | bitsOf(y))
	case opXor:
		return fromBits[T](bitsOf(x) ^ bitsOf(y))
	case opAndNot:
		return fromBits[T](bitsOf(x) &^ bitsOf(y))
	}
	panic("ops: unknown binary op")
}

func (o laneOps[T]) mod(x, y T) T {
	if o.float {
		return T(math.Mod(float64(x), float64(y)))
	}
	if o.signed {
		return fromBits[T](uint64(signExtend(bitsOf(x), o.bits) % signExtend(bitsOf(y), o.bits)))
	}
	return fromBits[T](bitsOf(x) % bitsOf(y))
}

// isqrt returns floor(sqrt(x)). The float64 estimate can be off by one once
// x needs more than 53 bits; the two loops settle it.
func isqrt(x uint64) uint64 {
	r := uint64(math.Sqrt(float64(x)))
	for r > math.MaxUint32 || r*r > x {
		r--
	}
	for r < math.MaxUint32 && (r+1)*(r+1) <= x {
		r++
	}
	return r
}

func (o laneOps[T]) unary(op unOp, x T) T {
	switch op {
	case opNeg:
		if o.float {
			return fromBits[T](bitsOf(x) ^ o.sign)
		}
		return -x
	case opAbs:
		return o.abs(x)
	case opNot:
		return fromBits[T](^bitsOf(x) & o.mask)
	case opSqrt:
		if o.float {
			return T(math.Sqrt(float64(x)))
		}
		if x <= 0 {
			return 0
		}
		return T(isqrt(bitsOf(x)))
	}
	if !o.float {
		return x
	}
	switch op {
	case opTrunc:
		return o.trunc(x)
	case opRound:
		return o.round(x)
	case opCeil:
		return o.ceil(x)
	case opFloor:
		return o.floor(x)
	case opNearbyInt, opRint:
		return o.nearbyInt(x)
	}
	panic("ops: unknown unary op")
}

func (o laneOps[T]) abs(x T) T {
	switch {
	case o.float:
		return fromBits[T](bitsOf(x) &^ o.sign)
	case o.signed && x < 0:
		return -x
	}
	return x
}

func (o laneOps[T]) copySign(r, x T) T {
	return fromBits[T](bitsOf(r)&^o.sign | bitsOf(x)&o.sign)
}

// nearbyInt rounds to an integer in the default round-to-nearest-even mode
// using the shifter: for |x| < 2^mantissa, (|x| + 2^mantissa) has no
// fractional bits left, so the addition performs the rounding and the
// subtraction is exact. Larger magnitudes, infinities and NaN are already
// integral and pass through unchanged.
func (o laneOps[T]) nearbyInt(x T) T {
	ax := o.abs(x)
	if !(ax < o.shifter) {
		return x
	}
	r := T(ax+o.shifter) - o.shifter
	return o.copySign(r, x)
}

func (o laneOps[T]) trunc(x T) T {
	ax := o.abs(x)
	if !(ax < o.shifter) {
		return x
	}
	r := o.nearbyInt(ax)
	if r > ax {
		r--
	}
	return o.copySign(r, x)
}

func (o laneOps[T]) floor(x T) T {
	if !(o.abs(x) < o.shifter) {
		return x
	}
	r := o.nearbyInt(x)
	if r > x {
		r--
	}
	return o.copySign(r, x)
}

func (o laneOps[T]) ceil(x T) T {
	if !(o.abs(x) < o.shifter) {
		return x
	}
	r := o.nearbyInt(x)
	if r < x {
		r++
	}
	return o.copySign(r, x)
}

// round rounds half away from zero: truncate, then step one unit away from
// zero when the discarded fraction is at least one half.
func (o laneOps[T]) round(x T) T {
	t := o.trunc(x)
	if o.abs(x-t) >= o.half {
		t = o.copySign(o.abs(t)+1, x)
	}
	return t
}

func (o laneOps[T]) shift(op shiftOp, x T, n int) T {
	b := bitsOf(x)
	if op == opShl {
		return fromBits[T](b << n & o.mask)
	}
	if o.signed {
		return fromBits[T](uint64(signExtend(b, o.bits)>>n) & o.mask)
	}
	return fromBits[T](b >> n)
}

// shiftCount interprets a lane of the count operand of a variable shift.
// Counts outside [0, bits] are clamped to bits, which shifts every bit out
// the way the x86 variable shifts do.
func (o laneOps[T]) shiftCount(c T) int {
	v := int64(bitsOf(c))
	if o.signed {
		v = signExtend(bitsOf(c), o.bits)
	}
	if v < 0 || v > int64(o.bits) {
		return o.bits
	}
	return int(v)
}

func (o laneOps[T]) compare(op cmpOp, x, y T) bool {
	switch op {
	case cmpEq:
		return x == y
	case cmpNe:
		return x != y
	case cmpLt, cmpIsLess:
		return x < y
	case cmpLe, cmpIsLessEqual:
		return x <= y
	case cmpGt, cmpIsGreater:
		return x > y
	case cmpGe, cmpIsGreaterEqual:
		return x >= y
	case cmpIsLessGreater:
		return x < y || x > y
	case cmpIsUnordered:
		return x != x || y != y
	}
	panic("ops: unknown compare op")
}

func (o laneOps[T]) classify(op classOp, x T) bool {
	if !o.float {
		switch op {
		case clsNormal:
			return x != 0
		case clsSignBit:
			return o.signed && bitsOf(x)&o.sign != 0
		}
		return op == clsFinite
	}
	exp := bitsOf(x) & expMask(o.bits)
	switch op {
	case clsNaN:
		return x != x
	case clsInf:
		return bitsOf(x)&^o.sign == expMask(o.bits)
	case clsFinite:
		return exp != expMask(o.bits)
	case clsNormal:
		return exp != 0 && exp != expMask(o.bits)
	case clsSignBit:
		return bitsOf(x)&o.sign != 0
	}
	panic("ops: unknown classification op")
}

// Native mask packing. A NativeVector mask lane is all ones or all zeros; a
// bit-mask or scalar mask keeps lane i in bit i of word 0.

func (l *layout) maskFromPred(pred func(i int) bool) Reg {
	var r Reg
	for i := 0; i < l.full; i++ {
		if !pred(i) {
			continue
		}
		if l.family == abi.NativeVector {
			l.set(&r, i, laneMask(l.bits))
		} else {
			r[0] |= 1 << i
		}
	}
	return r
}

func (l *layout) maskLane(m *Reg, i int) bool {
	if l.family == abi.NativeVector {
		return l.lane(m, i) != 0
	}
	return m[0]>>i&1 != 0
}

// implicitMask returns the native mask selecting the logical lanes.
func (l *layout) implicitMask() Reg {
	if l.family == abi.NativeVector {
		return l.implicit
	}
	return Reg{l.implicitBits}
}

// maskWords is the number of words a native mask occupies.
func (l *layout) maskWords() int {
	if l.family == abi.NativeVector {
		return l.words
	}
	return 1
}

// genericTier builds the portable kernels for T.
type genericTier[T abi.Lanes] struct {
	o laneOps[T]
}

func (g genericTier[T]) binary(op binOp) kernel2 {
	return func(l *layout, a, b *Reg) Reg {
		x, y := decode[T](a, l.full), decode[T](b, l.full)
		var z Builtin[T]
		for i := 0; i < l.full; i++ {
			z[i] = g.o.binary(op, x[i], y[i])
		}
		return encode(&z, l.full)
	}
}

func (g genericTier[T]) unary(op unOp) kernel1 {
	return func(l *layout, a *Reg) Reg {
		x := decode[T](a, l.full)
		for i := 0; i < l.full; i++ {
			x[i] = g.o.unary(op, x[i])
		}
		return encode(&x, l.full)
	}
}

func (g genericTier[T]) shift(op shiftOp) func(l *layout, a *Reg, n int) Reg {
	return func(l *layout, a *Reg, n int) Reg {
		x := decode[T](a, l.full)
		for i := 0; i < l.full; i++ {
			x[i] = g.o.shift(op, x[i], n)
		}
		return encode(&x, l.full)
	}
}

func (g genericTier[T]) shiftVar(op shiftOp) kernel2 {
	return func(l *layout, a, c *Reg) Reg {
		x, n := decode[T](a, l.full), decode[T](c, l.full)
		for i := 0; i < l.full; i++ {
			x[i] = g.o.shift(op, x[i], g.o.shiftCount(n[i]))
		}
		return encode(&x, l.full)
	}
}

func (g genericTier[T]) compare(op cmpOp) kernel2 {
	return func(l *layout, a, b *Reg) Reg {
		x, y := decode[T](a, l.full), decode[T](b, l.full)
		return l.maskFromPred(func(i int) bool { return g.o.compare(op, x[i], y[i]) })
	}
}

func (g genericTier[T]) classify(op classOp) kernel1 {
	return func(l *layout, a *Reg) Reg {
		x := decode[T](a, l.full)
		return l.maskFromPred(func(i int) bool { return g.o.classify(op, x[i]) })
	}
}

func (g genericTier[T]) blend(l *layout, m, a, b *Reg) Reg {
	x, y := decode[T](a, l.full), decode[T](b, l.full)
	for i := 0; i < l.full; i++ {
		if !l.maskLane(m, i) {
			x[i] = y[i]
		}
	}
	return encode(&x, l.full)
}

// reduce folds the register with a halving tree: lane i is combined with
// lane i+n/2 until one lane is left. Every tier uses this order so float
// results agree bit for bit.
func (g genericTier[T]) reduce(op ReduceOp) kernel1 {
	bop := op.binOp()
	return func(l *layout, a *Reg) Reg {
		x := decode[T](a, l.full)
		for n := l.full; n > 1; n /= 2 {
			h := n / 2
			for i := 0; i < h; i++ {
				x[i] = g.o.binary(bop, x[i], x[i+h])
			}
		}
		return encode(&x, 1)
	}
}

func genericToBits(l *layout, m *Reg) uint64 {
	var b uint64
	for i := 0; i < l.full; i++ {
		if l.maskLane(m, i) {
			b |= 1 << i
		}
	}
	return b
}

func genericFromBits(l *layout, b uint64) Reg {
	return l.maskFromPred(func(i int) bool { return b>>i&1 != 0 })
}

func genericCount(l *layout, m *Reg) int {
	n := 0
	for i := 0; i < l.size; i++ {
		if l.maskLane(m, i) {
			n++
		}
	}
	return n
}

func genericMaskedLoad[T abi.Lanes](l *layout, sel uint64, src []T) Reg {
	var r Reg
	bitmask.FromWord(l.full, sel).ForEach(func(i int) {
		check.MaskedLane(i, len(src))
		l.set(&r, i, bitsOf(src[i]))
	})
	return r
}

func genericMaskedStore[T abi.Lanes](l *layout, a *Reg, sel uint64, dst []T) {
	bitmask.FromWord(l.full, sel).ForEach(func(i int) {
		check.MaskedLane(i, len(dst))
		dst[i] = fromBits[T](l.lane(a, i))
	})
}
