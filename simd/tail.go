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

package simd

// TailMask returns a mask with the first count lanes active. It handles
// the remainder of an array whose length is not a multiple of the shape.
//
// Example:
//
//	s := simd.MustShape[float32](8)
//	remaining := len(data) % s.Len()
//	if remaining > 0 {
//	    mask := s.TailMask(remaining)
//	    v := simd.MaskLoad(mask, data[len(data)-remaining:])
//	    // ... process tail
//	    simd.MaskStore(mask, result, output[len(output)-remaining:])
//	}
func (s *Shape[T]) TailMask(count int) Mask[T] { return s.FirstN(count) }

// ProcessWithTail walks an array of size elements in vectors of s.Len()
// lanes. It calls fullFn(offset) for every full vector and tailFn(offset,
// count) once for the remainder, if any.
//
// Example:
//
//	s.ProcessWithTail(len(data),
//	    func(offset int) {
//	        v := s.Load(data[offset:])
//	        simd.Add(v, v).Store(output[offset:])
//	    },
//	    func(offset, count int) {
//	        mask := s.TailMask(count)
//	        v := simd.MaskLoad(mask, data[offset:])
//	        simd.MaskStore(mask, simd.Add(v, v), output[offset:])
//	    },
//	)
func (s *Shape[T]) ProcessWithTail(size int, fullFn func(offset int), tailFn func(offset, count int)) {
	n := s.n
	full := size / n
	for i := range full {
		fullFn(i * n)
	}
	if remaining := size % n; remaining > 0 {
		tailFn(full*n, remaining)
	}
}

// ProcessWithTailNoMask is like ProcessWithTail without a tail function:
// the remainder is covered by one last vector overlapping the previous
// one. fullFn must be idempotent on the overlapping lanes. Arrays shorter
// than one vector get a single call at offset 0.
func (s *Shape[T]) ProcessWithTailNoMask(size int, fullFn func(offset int)) {
	n := s.n
	if size < n {
		fullFn(0)
		return
	}
	full := size / n
	for i := range full {
		fullFn(i * n)
	}
	if size%n > 0 {
		fullFn(size - n)
	}
}

// AlignedSize rounds size up to the next multiple of s.Len().
func (s *Shape[T]) AlignedSize(size int) int {
	return (size + s.n - 1) / s.n * s.n
}

// IsAligned reports whether size is a multiple of s.Len().
func (s *Shape[T]) IsAligned(size int) bool { return size%s.n == 0 }
