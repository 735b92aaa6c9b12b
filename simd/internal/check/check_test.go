package check

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftBoundary(t *testing.T) {
	defer Override(true)()

	assert.NotPanics(t, func() { Shift(0, 32) })
	assert.NotPanics(t, func() { Shift(31, 32) })

	for _, amount := range []int{32, 33, -1} {
		v := recoverViolation(t, func() { Shift(amount, 32) })
		require.NotNil(t, v, "shift by %d", amount)
		assert.Equal(t, InvalidShiftAmount, v.Kind)
	}
}

func TestDisabledChecksDoNotPanic(t *testing.T) {
	defer Override(false)()

	assert.NotPanics(t, func() {
		Shift(64, 8)
		Lane(10, 4)
		NotEmpty(false, "MinIndex")
		Buffer(1, 4)
		MaskedLane(7, 2)
		SameLen(3, 5, "And")
	})
}

func TestViolationIs(t *testing.T) {
	defer Override(true)()

	v := recoverViolation(t, func() { Lane(4, 4) })
	require.NotNil(t, v)
	assert.True(t, errors.Is(v, &Violation{Kind: LaneOutOfRange}))
	assert.False(t, errors.Is(v, &Violation{Kind: EmptyMask}))
	assert.Contains(t, v.Error(), "LaneOutOfRange")
}

func recoverViolation(t *testing.T, fn func()) (v *Violation) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			v, ok = r.(*Violation)
			if !ok {
				t.Fatalf("unexpected panic value %T: %v", r, r)
			}
		}
	}()
	fn()
	return nil
}

func TestSameLen(t *testing.T) {
	defer Override(true)()

	assert.NotPanics(t, func() { SameLen(5, 5, "Or") })
	v := recoverViolation(t, func() { SameLen(5, 3, "Or") })
	require.NotNil(t, v)
	assert.Equal(t, SizeMismatch, v.Kind)
	assert.Contains(t, v.Msg, "5-bit and a 3-bit")
}
