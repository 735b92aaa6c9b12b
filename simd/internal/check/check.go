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

// Package check implements the debug/release precondition policy.
//
// Preconditions whose violation is undefined behavior (out-of-range lane
// subscripts, shift amounts outside [0, bits), index reductions over an
// all-false mask, masked accesses that select lanes past the end of a
// buffer, mask operands of different lengths) are verified only when checks are enabled. Enabled checks panic
// with a *Violation. Disabled checks cost a single branch on a package
// level boolean that never changes after init.
//
// Checks are enabled by building with the simddebug tag or by setting
// GOSIMD_DEBUG in the environment.
package check

import (
	"fmt"
	"os"
	"strconv"
)

// Kind classifies a precondition violation.
type Kind int

const (
	// InvalidShiftAmount is a shift by a negative amount or by at least the
	// element bit width.
	InvalidShiftAmount Kind = iota + 1

	// LaneOutOfRange is a lane subscript outside [0, N).
	LaneOutOfRange

	// EmptyMask is an index reduction (first/last set lane) over a mask with
	// no lane set.
	EmptyMask

	// MaskedAccessOutOfBounds is a masked load or store whose mask selects a
	// lane beyond the end of the memory operand.
	MaskedAccessOutOfBounds

	// ShortBuffer is an unmasked load or store with fewer than N elements.
	ShortBuffer

	// SizeMismatch is a binary mask operation over masks of different
	// lengths.
	SizeMismatch
)

// String returns the name of the violation kind.
func (k Kind) String() string {
	switch k {
	case InvalidShiftAmount:
		return "InvalidShiftAmount"
	case LaneOutOfRange:
		return "LaneOutOfRange"
	case EmptyMask:
		return "EmptyMask"
	case MaskedAccessOutOfBounds:
		return "MaskedAccessOutOfBounds"
	case ShortBuffer:
		return "ShortBuffer"
	case SizeMismatch:
		return "SizeMismatch"
	default:
		return "Unknown"
	}
}

// Violation is the panic value raised by a failed precondition check.
type Violation struct {
	Kind Kind
	Msg  string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("simd: precondition violated (%s): %s", v.Kind, v.Msg)
}

// Is reports whether target is a *Violation of the same kind, so that
// errors.Is works against a template violation.
func (v *Violation) Is(target error) bool {
	t, ok := target.(*Violation)
	return ok && t.Kind == v.Kind
}

var enabled = buildDebug || envDebug()

func envDebug() bool {
	val := os.Getenv("GOSIMD_DEBUG")
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// Enabled reports whether precondition checks are active.
func Enabled() bool {
	return enabled
}

// Override forces checks on or off and returns a function restoring the
// previous state. It exists for tests exercising both configurations and
// must not be called concurrently with simd operations.
func Override(on bool) (restore func()) {
	prev := enabled
	enabled = on
	return func() { enabled = prev }
}

// Fail panics with a *Violation of the given kind.
func Fail(kind Kind, format string, args ...any) {
	panic(&Violation{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// Shift verifies 0 <= amount < bits.
func Shift(amount, bits int) {
	if enabled && (amount < 0 || amount >= bits) {
		Fail(InvalidShiftAmount, "shift by %d on %d-bit lanes", amount, bits)
	}
}

// Lane verifies 0 <= i < n.
func Lane(i, n int) {
	if enabled && (i < 0 || i >= n) {
		Fail(LaneOutOfRange, "lane %d of %d", i, n)
	}
}

// NotEmpty verifies that an index reduction has at least one set lane.
func NotEmpty(set bool, op string) {
	if enabled && !set {
		Fail(EmptyMask, "%s requires at least one set lane", op)
	}
}

// Buffer verifies that an unmasked memory operand holds n elements.
func Buffer(have, n int) {
	if enabled && have < n {
		Fail(ShortBuffer, "buffer of %d elements, need %d", have, n)
	}
}

// MaskedLane verifies that a selected lane i lies inside a buffer of length
// have.
func MaskedLane(i, have int) {
	if enabled && i >= have {
		Fail(MaskedAccessOutOfBounds, "lane %d selected, buffer has %d elements", i, have)
	}
}

// SameLen verifies that the two operands of a mask operation have the same
// number of bits.
func SameLen(a, b int, op string) {
	if enabled && a != b {
		Fail(SizeMismatch, "%s of a %d-bit and a %d-bit mask", op, a, b)
	}
}
