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

// Package abi chooses the physical storage of a logical vector.
//
// A logical vector is an element Kind and a lane count N. Resolve maps
// (Kind, N, feature snapshot) to a Variant: one native register (scalar,
// vector-mask family, or bit-mask family), a homogeneous Array of registers,
// or a heterogeneous Combine of them. TraitsOf then describes the storage of
// a Variant: physical lane count, padding, alignment and the representation
// of masks.
//
// Resolution is a pure function of its inputs: the same (Kind, N, Set) always
// yields the same Variant.
package abi

import (
	"strings"
	"unsafe"

	"github.com/pkg/errors"
)

// Floats is a constraint for floating-point types.
type Floats interface {
	~float32 | ~float64
}

// SignedInts is a constraint for signed integer types.
type SignedInts interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// UnsignedInts is a constraint for unsigned integer types.
type UnsignedInts interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Integers is a constraint for all integer types.
type Integers interface {
	SignedInts | UnsignedInts
}

// Lanes is a constraint for all types that can be stored in vector lanes.
type Lanes interface {
	Floats | Integers
}

// Kind identifies an element type.
type Kind uint8

const (
	Int8 Kind = iota + 1
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
)

var kindNames = [...]string{
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

// AllKinds returns every element kind, narrowest first.
func AllKinds() []Kind {
	return []Kind{Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64, Uint64, Float32, Float64}
}

// String returns the Go name of the element type.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "invalid"
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k >= Int8 && k <= Float64
}

// Size returns the element size in bytes.
func (k Kind) Size() int {
	switch k {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

// Bits returns the element width in bits.
func (k Kind) Bits() int {
	return k.Size() * 8
}

// IsFloat reports whether k is a floating-point kind.
func (k Kind) IsFloat() bool {
	return k == Float32 || k == Float64
}

// IsSigned reports whether k is a signed integer or floating-point kind.
func (k Kind) IsSigned() bool {
	switch k {
	case Int8, Int16, Int32, Int64, Float32, Float64:
		return true
	}
	return false
}

// MantissaBits returns the number of explicit mantissa bits of a float kind
// (23 or 52) and 0 for integers.
func (k Kind) MantissaBits() int {
	switch k {
	case Float32:
		return 23
	case Float64:
		return 52
	}
	return 0
}

// ParseKind looks up a kind by its Go name.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range AllKinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown element type %q", s)
}

// KindOf returns the kind of T. Named types map to the kind of their
// underlying type.
func KindOf[T Lanes]() Kind {
	var zero T
	one := T(1)
	isFloat := one/(one+one) != zero
	isSigned := zero-one < zero
	switch unsafe.Sizeof(zero) {
	case 1:
		if isSigned {
			return Int8
		}
		return Uint8
	case 2:
		if isSigned {
			return Int16
		}
		return Uint16
	case 4:
		if isFloat {
			return Float32
		}
		if isSigned {
			return Int32
		}
		return Uint32
	default:
		if isFloat {
			return Float64
		}
		if isSigned {
			return Int64
		}
		return Uint64
	}
}
