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


// Package bitmask provides the packed boolean container used as mask storage
// by bit-mask ABIs and by composite (Combine) values.
//
// The container exists in two type states. BitMask is sanitized: every bit at
// or beyond Len() is zero, so All, Any, None and Count can work on whole words.
// Unsanitized makes no promise about those bits; it is what a raw word load or
// a complement produces. Sanitize is the only way from the second state to the
// first, which keeps "padding bit counted as set" bugs out of the type system
// rather than out of code review.
//
// Storage is a bitset.BitSet spanning whole 64-bit words; the logical length
// lives in the wrapper. Both types are immutable values: every operation
// returns a new mask.
package bitmask

import (
	"math/bits"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/ajroetker/go-stdsimd/simd/internal/check"
)

const wordBits = 64

// BitMask is a sanitized packed mask of Len() bits. The zero value is an
// empty mask.
type BitMask struct {
	n   int
	set *bitset.BitSet
}

// Unsanitized is a packed mask of Len() bits whose storage bits beyond Len()
// are unspecified.
type Unsanitized struct {
	n   int
	set *bitset.BitSet
}

func numWords(n int) int {
	return (n + wordBits - 1) / wordBits
}

// lowMask returns a word with the low n%64 bits set, or all bits when n is a
// multiple of 64.
func lowMask(n int) uint64 {
	if r := n % wordBits; r != 0 {
		return (uint64(1) << r) - 1
	}
	return ^uint64(0)
}

// storage returns a bitset spanning the words of an n-bit mask, filled from
// words. Missing words read as zero; the input is copied.
func storage(n int, words []uint64) *bitset.BitSet {
	w := make([]uint64, numWords(n))
	copy(w, words)
	return bitset.From(w)
}

// wordsOf returns the storage words of s without copying.
func wordsOf(s *bitset.BitSet) []uint64 {
	if s == nil {
		return nil
	}
	return s.Words()
}

// New returns an all-false mask of n bits.
func New(n int) BitMask {
	return BitMask{n: n, set: storage(n, nil)}
}

// Full returns an all-true mask of n bits.
func Full(n int) BitMask {
	s := storage(n, nil)
	s.FlipRange(0, uint(n))
	return BitMask{n: n, set: s}
}

// FromBools packs b into a mask of len(b) bits.
func FromBools(b []bool) BitMask {
	m := New(len(b))
	for i, v := range b {
		if v {
			m.set.Set(uint(i))
		}
	}
	return m
}

// FromWord builds an n-bit mask (n <= 64) from the low bits of w; higher bits
// of w are discarded.
func FromWord(n int, w uint64) BitMask {
	return Raw(n, []uint64{w}).Sanitize()
}

// FromWords builds an n-bit mask from packed words, discarding bits >= n.
func FromWords(n int, words []uint64) BitMask {
	return Raw(n, words).Sanitize()
}

// Raw wraps packed words as an unsanitized n-bit mask. Missing words read as
// zero; the input is copied.
func Raw(n int, words []uint64) Unsanitized {
	return Unsanitized{n: n, set: storage(n, words)}
}

// Len returns the number of logical bits.
func (m BitMask) Len() int { return m.n }

// Test returns bit i.
func (m BitMask) Test(i int) bool {
	check.Lane(i, m.n)
	return m.set.Test(uint(i))
}

// With returns a copy of m with bit i set to v.
func (m BitMask) With(i int, v bool) BitMask {
	check.Lane(i, m.n)
	r := m.clone()
	r.set.SetTo(uint(i), v)
	return r
}

// All reports whether every bit is set. An empty mask is all-true.
func (m BitMask) All() bool { return m.Count() == m.n }

// Any reports whether at least one bit is set.
func (m BitMask) Any() bool { return m.set != nil && m.set.Any() }

// None reports whether no bit is set.
func (m BitMask) None() bool { return !m.Any() }

// Count returns the number of set bits.
func (m BitMask) Count() int {
	if m.set == nil {
		return 0
	}
	return int(m.set.Count())
}

// And returns m & o. Both masks must have the same length.
func (m BitMask) And(o BitMask) BitMask {
	check.SameLen(m.n, o.n, "And")
	return m.combine(o, (*bitset.BitSet).InPlaceIntersection)
}

// Or returns m | o. Both masks must have the same length.
func (m BitMask) Or(o BitMask) BitMask {
	check.SameLen(m.n, o.n, "Or")
	return m.combine(o, (*bitset.BitSet).InPlaceUnion)
}

// Xor returns m ^ o. Both masks must have the same length.
func (m BitMask) Xor(o BitMask) BitMask {
	check.SameLen(m.n, o.n, "Xor")
	return m.combine(o, (*bitset.BitSet).InPlaceSymmetricDifference)
}

// AndNot returns m &^ o. Both masks must have the same length.
func (m BitMask) AndNot(o BitMask) BitMask {
	check.SameLen(m.n, o.n, "AndNot")
	return m.combine(o, (*bitset.BitSet).InPlaceDifference)
}

// combine applies an in-place set operation to a copy of m. The result keeps
// the length of m; bits of o beyond it are dropped.
func (m BitMask) combine(o BitMask, op func(dst, src *bitset.BitSet)) BitMask {
	r := m.clone()
	op(r.set, storage(m.n, wordsOf(o.set)))
	return FromWords(m.n, wordsOf(r.set))
}

// Not returns the complement of m. The bits beyond Len() become ones, so the
// result is unsanitized.
func (m BitMask) Not() Unsanitized {
	return Unsanitized{n: m.n, set: storage(m.n, wordsOf(m.set)).Complement()}
}

// Unsanitized drops the sanitization guarantee.
func (m BitMask) Unsanitized() Unsanitized {
	return Unsanitized{n: m.n, set: m.clone().set}
}

// Prepend returns the concatenation of lo (bits [0, lo.Len())) and m (bits
// [lo.Len(), lo.Len()+m.Len())).
func (m BitMask) Prepend(lo BitMask) BitMask {
	w := make([]uint64, numWords(lo.n+m.n))
	copy(w, wordsOf(lo.set))
	orShifted(w, wordsOf(m.set), lo.n)
	return BitMask{n: lo.n + m.n, set: bitset.From(w)}
}

// Extract returns bits [offset, offset+size) as a new mask. Bits past Len()
// read as zero, so the result is always sanitized.
func (m BitMask) Extract(offset, size int) BitMask {
	return BitMask{n: size, set: bitset.From(extract(wordsOf(m.set), offset, size))}
}

// FirstSet returns the index of the lowest set bit, or -1.
func (m BitMask) FirstSet() int {
	if m.set == nil {
		return -1
	}
	if i, ok := m.set.NextSet(0); ok {
		return int(i)
	}
	return -1
}

// LastSet returns the index of the highest set bit, or -1.
func (m BitMask) LastSet() int {
	w := wordsOf(m.set)
	for i := len(w) - 1; i >= 0; i-- {
		if w[i] != 0 {
			return i*wordBits + wordBits - 1 - bits.LeadingZeros64(w[i])
		}
	}
	return -1
}

// ForEach calls fn with the index of every set bit, in increasing order.
func (m BitMask) ForEach(fn func(i int)) {
	if m.set == nil {
		return
	}
	for i, ok := m.set.NextSet(0); ok; i, ok = m.set.NextSet(i + 1) {
		fn(int(i))
	}
}

// Word returns storage word i (bits [64i, 64i+64)).
func (m BitMask) Word(i int) uint64 {
	w := wordsOf(m.set)
	if i >= len(w) {
		return 0
	}
	return w[i]
}

// Words returns a copy of the storage words.
func (m BitMask) Words() []uint64 {
	return append([]uint64(nil), wordsOf(m.set)...)
}

// Bools unpacks m into one bool per bit.
func (m BitMask) Bools() []bool {
	b := make([]bool, m.n)
	m.ForEach(func(i int) { b[i] = true })
	return b
}

// Equal reports whether m and o have the same length and bits.
func (m BitMask) Equal(o BitMask) bool {
	if m.n != o.n {
		return false
	}
	a, b := wordsOf(m.set), wordsOf(o.set)
	for i := range numWords(m.n) {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders the mask lane 0 first, e.g. "1010".
func (m BitMask) String() string {
	var sb strings.Builder
	sb.Grow(m.n)
	for i := 0; i < m.n; i++ {
		if m.set.Test(uint(i)) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func (m BitMask) clone() BitMask {
	return BitMask{n: m.n, set: storage(m.n, wordsOf(m.set))}
}

// Len returns the number of logical bits.
func (u Unsanitized) Len() int { return u.n }

// Test returns bit i; i must be below Len().
func (u Unsanitized) Test(i int) bool {
	check.Lane(i, u.n)
	return u.set.Test(uint(i))
}

// Sanitize clears every storage bit at or beyond Len().
func (u Unsanitized) Sanitize() BitMask {
	s := storage(u.n, wordsOf(u.set))
	if w := s.Words(); len(w) > 0 {
		w[len(w)-1] &= lowMask(u.n)
	}
	return BitMask{n: u.n, set: s}
}

// And returns u & o. Both masks must have the same length.
func (u Unsanitized) And(o Unsanitized) Unsanitized {
	check.SameLen(u.n, o.n, "And")
	return u.combine(o, (*bitset.BitSet).InPlaceIntersection)
}

// Or returns u | o. Both masks must have the same length.
func (u Unsanitized) Or(o Unsanitized) Unsanitized {
	check.SameLen(u.n, o.n, "Or")
	return u.combine(o, (*bitset.BitSet).InPlaceUnion)
}

// Xor returns u ^ o. Both masks must have the same length.
func (u Unsanitized) Xor(o Unsanitized) Unsanitized {
	check.SameLen(u.n, o.n, "Xor")
	return u.combine(o, (*bitset.BitSet).InPlaceSymmetricDifference)
}

func (u Unsanitized) combine(o Unsanitized, op func(dst, src *bitset.BitSet)) Unsanitized {
	r := storage(u.n, wordsOf(u.set))
	op(r, storage(u.n, wordsOf(o.set)))
	return Unsanitized{n: u.n, set: storage(u.n, r.Words())}
}

// Not returns ^u.
func (u Unsanitized) Not() Unsanitized {
	return Unsanitized{n: u.n, set: storage(u.n, wordsOf(u.set)).Complement()}
}

// All sanitizes implicitly and reports whether every bit is set.
func (u Unsanitized) All() bool { return u.Sanitize().All() }

// Any sanitizes implicitly and reports whether a bit is set.
func (u Unsanitized) Any() bool { return u.Sanitize().Any() }

// None sanitizes implicitly and reports whether no bit is set.
func (u Unsanitized) None() bool { return u.Sanitize().None() }

// Count sanitizes implicitly and returns the number of set bits.
func (u Unsanitized) Count() int { return u.Sanitize().Count() }

// Extract returns bits [offset, offset+size). Storage bits of u beyond Len()
// that fall inside the range are carried over, so the result stays
// unsanitized; its own storage bits at or beyond size are cleared.
func (u Unsanitized) Extract(offset, size int) Unsanitized {
	return Unsanitized{n: size, set: bitset.From(extract(wordsOf(u.set), offset, size))}
}

// ExtractSanitized returns bits [offset, offset+size) as a sanitized mask
// when the range lies inside the logical bits, where no unspecified bit can
// leak into the result. It returns false otherwise.
func (u Unsanitized) ExtractSanitized(offset, size int) (BitMask, bool) {
	if offset < 0 || offset+size > u.n {
		return New(0), false
	}
	return BitMask{n: size, set: bitset.From(extract(wordsOf(u.set), offset, size))}, true
}

// Words returns a copy of the storage words, including unspecified bits.
func (u Unsanitized) Words() []uint64 {
	return append([]uint64(nil), wordsOf(u.set)...)
}

// extract copies bits [offset, offset+size) of src into fresh words, masking
// the top word to size.
func extract(src []uint64, offset, size int) []uint64 {
	dst := make([]uint64, numWords(size))
	for i := range dst {
		dst[i] = word64At(src, offset+i*wordBits)
	}
	if len(dst) > 0 {
		dst[len(dst)-1] &= lowMask(size)
	}
	return dst
}

// word64At returns the 64 bits starting at bit position pos; bits past the
// end of src read as zero.
func word64At(src []uint64, pos int) uint64 {
	wi, off := pos/wordBits, pos%wordBits
	var lo, hi uint64
	if wi < len(src) {
		lo = src[wi]
	}
	if off == 0 {
		return lo
	}
	if wi+1 < len(src) {
		hi = src[wi+1]
	}
	return lo>>off | hi<<(wordBits-off)
}

// orShifted ORs src, shifted up by shift bits, into dst.
func orShifted(dst, src []uint64, shift int) {
	wi, off := shift/wordBits, shift%wordBits
	for i, w := range src {
		if j := wi + i; j < len(dst) {
			dst[j] |= w << off
		}
		if off != 0 {
			if j := wi + i + 1; j < len(dst) {
				dst[j] |= w >> (wordBits - off)
			}
		}
	}
}
