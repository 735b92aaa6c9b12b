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

package bitmask

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-stdsimd/simd/internal/check"
)

func TestFromBools(t *testing.T) {
	b := []bool{true, false, true, true, false}
	m := FromBools(b)
	assert.Equal(t, 5, m.Len())
	assert.Equal(t, 3, m.Count())
	assert.Equal(t, "10110", m.String())
	if diff := cmp.Diff(b, m.Bools()); diff != "" {
		t.Errorf("Bools() mismatch (-want +got):\n%s", diff)
	}
}

func TestReductionsIgnorePadding(t *testing.T) {
	for _, n := range []int{1, 3, 63, 64, 65, 100, 128} {
		full := Full(n)
		assert.True(t, full.All(), "n=%d", n)
		assert.Equal(t, n, full.Count(), "n=%d", n)

		none := New(n)
		assert.True(t, none.None(), "n=%d", n)
		assert.False(t, none.Any(), "n=%d", n)

		// Complement of the empty mask sets the padding bits too.
		u := none.Not()
		assert.True(t, u.All(), "n=%d", n)
		assert.Equal(t, n, u.Count(), "n=%d", n)
		assert.True(t, u.Sanitize().Equal(full), "n=%d", n)
	}
}

func TestEmptyMask(t *testing.T) {
	m := New(0)
	assert.True(t, m.All())
	assert.False(t, m.Any())
	assert.Equal(t, -1, m.FirstSet())
	assert.Equal(t, -1, m.LastSet())
}

func TestFromWordDiscardsHighBits(t *testing.T) {
	m := FromWord(3, 0xff)
	assert.Equal(t, 3, m.Count())
	assert.Equal(t, uint64(0x7), m.Word(0))

	u := Raw(3, []uint64{0xff})
	assert.Equal(t, uint64(0xff), u.Words()[0])
	assert.Equal(t, 3, u.Count())
}

func TestFirstLastSet(t *testing.T) {
	m := New(130).With(5, true).With(70, true).With(129, true)
	assert.Equal(t, 5, m.FirstSet())
	assert.Equal(t, 129, m.LastSet())

	var got []int
	m.ForEach(func(i int) { got = append(got, i) })
	assert.Equal(t, []int{5, 70, 129}, got)

	m = m.With(5, false)
	assert.Equal(t, 70, m.FirstSet())
}

func TestBinaryOps(t *testing.T) {
	a := FromBools([]bool{true, true, false, false})
	b := FromBools([]bool{true, false, true, false})
	assert.Equal(t, "1000", a.And(b).String())
	assert.Equal(t, "1110", a.Or(b).String())
	assert.Equal(t, "0110", a.Xor(b).String())
	assert.Equal(t, "0100", a.AndNot(b).String())

	ua, ub := a.Unsanitized(), b.Unsanitized()
	assert.Equal(t, "1000", ua.And(ub).Sanitize().String())
	assert.Equal(t, "0001", ua.Or(ub).Not().Sanitize().String())
}

func TestImmutable(t *testing.T) {
	a := New(8)
	b := a.With(3, true)
	assert.False(t, a.Test(3))
	assert.True(t, b.Test(3))

	w := b.Words()
	w[0] = 0
	assert.True(t, b.Test(3))
}

func TestPrependExtractRoundTrip(t *testing.T) {
	sizes := [][2]int{{3, 5}, {4, 4}, {60, 10}, {64, 64}, {1, 127}, {100, 1}}
	for _, sz := range sizes {
		lo := New(sz[0])
		for i := 0; i < sz[0]; i += 2 {
			lo = lo.With(i, true)
		}
		hi := New(sz[1])
		for i := 0; i < sz[1]; i += 3 {
			hi = hi.With(i, true)
		}
		joined := hi.Prepend(lo)
		require.Equal(t, sz[0]+sz[1], joined.Len())
		assert.True(t, joined.Extract(0, sz[0]).Equal(lo), "lo %v", sz)
		assert.True(t, joined.Extract(sz[0], sz[1]).Equal(hi), "hi %v", sz)
		assert.Equal(t, lo.Count()+hi.Count(), joined.Count(), "count %v", sz)
	}
}

func TestExtractPastEndReadsZero(t *testing.T) {
	m := Full(5)
	e := m.Extract(3, 6)
	assert.Equal(t, "110000", e.String())
	assert.Equal(t, 2, e.Count())
}

func TestExtractSanitized(t *testing.T) {
	u := New(6).Not()

	m, ok := u.ExtractSanitized(2, 4)
	require.True(t, ok)
	assert.True(t, m.All())
	assert.Equal(t, 4, m.Count())

	_, ok = u.ExtractSanitized(4, 4)
	assert.False(t, ok, "range reaching past Len must not sanitize")

	raw := u.Extract(4, 4)
	assert.Equal(t, 4, raw.Count(), "storage bits beyond Len are copied")
}

func TestUnsanitizedExtractClipsToSize(t *testing.T) {
	u := Raw(4, []uint64{0xff})
	e := u.Extract(2, 3)
	assert.Equal(t, 3, e.Len())
	// Bits 4 and 5 lie beyond Len() of u and are carried; bit 5 of the
	// source lands at position 3, past the new size, and is cleared.
	assert.Equal(t, uint64(0x7), e.Words()[0])
}

func TestZeroValue(t *testing.T) {
	var m BitMask
	assert.Equal(t, 0, m.Len())
	assert.True(t, m.All())
	assert.True(t, m.None())
	assert.Equal(t, -1, m.FirstSet())
	assert.True(t, m.Equal(New(0)))
	assert.Equal(t, 0, m.Not().Count())
}

func TestSizeMismatch(t *testing.T) {
	defer check.Override(true)()

	a, b := Full(4), Full(5)
	for name, fn := range map[string]func(){
		"And":    func() { a.And(b) },
		"Or":     func() { a.Or(b) },
		"Xor":    func() { a.Xor(b) },
		"AndNot": func() { a.AndNot(b) },
		"raw":    func() { a.Unsanitized().Or(b.Unsanitized()) },
	} {
		err := recoverError(fn)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, &check.Violation{Kind: check.SizeMismatch}), name)
	}
	assert.NotPanics(t, func() { a.And(Full(4)) })
}

func TestSizeMismatchUnchecked(t *testing.T) {
	defer check.Override(false)()

	// Without checks the result keeps the receiver's length and stays
	// sanitized.
	r := Full(3).Or(Full(5))
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, uint64(0x7), r.Word(0))
}

func recoverError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err, _ = r.(error)
		}
	}()
	fn()
	return nil
}
