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

import "github.com/ajroetker/go-stdsimd/simd/abi"

// Operation codes index the kernel tables.

type binOp uint8

const (
	opAdd binOp = iota
	opSub
	opMul
	opDiv
	opMod
	opMin
	opMax
	opAnd
	opOr
	opXor
	opAndNot
	numBinOps
)

var binNames = [numBinOps]string{"add", "sub", "mul", "div", "mod", "min", "max", "and", "or", "xor", "andnot"}

type unOp uint8

const (
	opNeg unOp = iota
	opAbs
	opNot
	opSqrt
	opTrunc
	opRound
	opCeil
	opFloor
	opNearbyInt
	opRint
	numUnOps
)

var unNames = [numUnOps]string{"neg", "abs", "not", "sqrt", "trunc", "round", "ceil", "floor", "nearbyint", "rint"}

type shiftOp uint8

const (
	opShl shiftOp = iota
	opShr
	numShiftOps
)

var shiftNames = [numShiftOps]string{"shl", "shr"}

type cmpOp uint8

const (
	cmpEq cmpOp = iota
	cmpNe
	cmpLt
	cmpLe
	cmpGt
	cmpGe
	cmpIsGreater
	cmpIsGreaterEqual
	cmpIsLess
	cmpIsLessEqual
	cmpIsLessGreater
	cmpIsUnordered
	numCmpOps
)

var cmpNames = [numCmpOps]string{
	"eq", "ne", "lt", "le", "gt", "ge",
	"isgreater", "isgreaterequal", "isless", "islessequal", "islessgreater", "isunordered",
}

type classOp uint8

const (
	clsNaN classOp = iota
	clsInf
	clsFinite
	clsNormal
	clsSignBit
	numClassOps
)

var classNames = [numClassOps]string{"isnan", "isinf", "isfinite", "isnormal", "signbit"}

// ReduceOp names an associative reduction with an identity element.
type ReduceOp uint8

const (
	OpPlus ReduceOp = iota
	OpMul
	OpAnd
	OpOr
	OpXor
	OpMin
	OpMax
	numReduceOps
)

var reduceNames = [numReduceOps]string{"plus", "mul", "and", "or", "xor", "min", "max"}

// String returns the operator name.
func (op ReduceOp) String() string {
	if op < numReduceOps {
		return reduceNames[op]
	}
	return "unknown"
}

func (op ReduceOp) binOp() binOp {
	switch op {
	case OpPlus:
		return opAdd
	case OpMul:
		return opMul
	case OpAnd:
		return opAnd
	case OpOr:
		return opOr
	case OpXor:
		return opXor
	case OpMin:
		return opMin
	default:
		return opMax
	}
}

// identity returns the bit pattern of the neutral element of op for lanes
// of layout l. Float addition uses -0, the only value x with x + v == v for
// every v including -0.
func (op ReduceOp) identity(l *layout) uint64 {
	bits := l.bits
	switch op {
	case OpPlus:
		if l.isFloat() {
			return l.signMask()
		}
		return 0
	case OpMul:
		switch l.kind {
		case abi.Float32:
			return 0x3f800000
		case abi.Float64:
			return 0x3ff0000000000000
		}
		return 1
	case OpAnd:
		return laneMask(bits)
	case OpMin:
		switch {
		case l.isFloat():
			return expMask(bits)
		case l.isSigned():
			return laneMask(bits) >> 1
		default:
			return laneMask(bits)
		}
	case OpMax:
		switch {
		case l.isFloat():
			return expMask(bits) | l.signMask()
		case l.isSigned():
			return l.signMask()
		default:
			return 0
		}
	}
	return 0
}

// expMask returns the exponent field of a float of the given width, which is
// also the bit pattern of +Inf.
func expMask(bits int) uint64 {
	if bits == 32 {
		return 0x7f800000
	}
	return 0x7ff0000000000000
}
