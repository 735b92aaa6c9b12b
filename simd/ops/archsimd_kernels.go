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


//go:build amd64 && goexperiment.simd

package ops

import (
	"simd/archsimd"
	"unsafe"

	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/features"
)

// hostVectors reports whether the running CPU executes the vector width of
// l. Layouts built for a capability set other than the host's keep their
// modelled kernels.
func hostVectors(l *layout, s features.Set) bool {
	if s != features.Host() {
		return false
	}
	switch l.full * l.bits / 8 {
	case 32:
		return archsimd.X86.AVX2()
	case 64:
		return l.family == abi.Avx512Like && archsimd.X86.AVX512()
	}
	return false
}

// The register words are little-endian on amd64, so the lanes of a Reg
// can be handed to archsimd in place.
func regFloat32(r *Reg) []float32 { return unsafe.Slice((*float32)(unsafe.Pointer(r)), 16) }
func regFloat64(r *Reg) []float64 { return unsafe.Slice((*float64)(unsafe.Pointer(r)), 8) }
func regInt32(r *Reg) []int32     { return unsafe.Slice((*int32)(unsafe.Pointer(r)), 16) }
func regInt64(r *Reg) []int64     { return unsafe.Slice((*int64)(unsafe.Pointer(r)), 8) }

func f32x8(fn func(x, y archsimd.Float32x8) archsimd.Float32x8) kernel2 {
	return func(_ *layout, a, b *Reg) Reg {
		var r Reg
		fn(archsimd.LoadFloat32x8Slice(regFloat32(a)), archsimd.LoadFloat32x8Slice(regFloat32(b))).StoreSlice(regFloat32(&r))
		return r
	}
}

func f32x16(fn func(x, y archsimd.Float32x16) archsimd.Float32x16) kernel2 {
	return func(_ *layout, a, b *Reg) Reg {
		var r Reg
		fn(archsimd.LoadFloat32x16Slice(regFloat32(a)), archsimd.LoadFloat32x16Slice(regFloat32(b))).StoreSlice(regFloat32(&r))
		return r
	}
}

func f64x4(fn func(x, y archsimd.Float64x4) archsimd.Float64x4) kernel2 {
	return func(_ *layout, a, b *Reg) Reg {
		var r Reg
		fn(archsimd.LoadFloat64x4Slice(regFloat64(a)), archsimd.LoadFloat64x4Slice(regFloat64(b))).StoreSlice(regFloat64(&r))
		return r
	}
}

func f64x8(fn func(x, y archsimd.Float64x8) archsimd.Float64x8) kernel2 {
	return func(_ *layout, a, b *Reg) Reg {
		var r Reg
		fn(archsimd.LoadFloat64x8Slice(regFloat64(a)), archsimd.LoadFloat64x8Slice(regFloat64(b))).StoreSlice(regFloat64(&r))
		return r
	}
}

func i32x8(fn func(x, y archsimd.Int32x8) archsimd.Int32x8) kernel2 {
	return func(_ *layout, a, b *Reg) Reg {
		var r Reg
		fn(archsimd.LoadInt32x8Slice(regInt32(a)), archsimd.LoadInt32x8Slice(regInt32(b))).StoreSlice(regInt32(&r))
		return r
	}
}

func i32x16(fn func(x, y archsimd.Int32x16) archsimd.Int32x16) kernel2 {
	return func(_ *layout, a, b *Reg) Reg {
		var r Reg
		fn(archsimd.LoadInt32x16Slice(regInt32(a)), archsimd.LoadInt32x16Slice(regInt32(b))).StoreSlice(regInt32(&r))
		return r
	}
}

func i64x4(fn func(x, y archsimd.Int64x4) archsimd.Int64x4) kernel2 {
	return func(_ *layout, a, b *Reg) Reg {
		var r Reg
		fn(archsimd.LoadInt64x4Slice(regInt64(a)), archsimd.LoadInt64x4Slice(regInt64(b))).StoreSlice(regInt64(&r))
		return r
	}
}

func i64x8(fn func(x, y archsimd.Int64x8) archsimd.Int64x8) kernel2 {
	return func(_ *layout, a, b *Reg) Reg {
		var r Reg
		fn(archsimd.LoadInt64x8Slice(regInt64(a)), archsimd.LoadInt64x8Slice(regInt64(b))).StoreSlice(regInt64(&r))
		return r
	}
}

func sqrtF32x8(_ *layout, a *Reg) Reg {
	var r Reg
	archsimd.LoadFloat32x8Slice(regFloat32(a)).Sqrt().StoreSlice(regFloat32(&r))
	return r
}

func sqrtF32x16(_ *layout, a *Reg) Reg {
	var r Reg
	archsimd.LoadFloat32x16Slice(regFloat32(a)).Sqrt().StoreSlice(regFloat32(&r))
	return r
}

func sqrtF64x4(_ *layout, a *Reg) Reg {
	var r Reg
	archsimd.LoadFloat64x4Slice(regFloat64(a)).Sqrt().StoreSlice(regFloat64(&r))
	return r
}

func sqrtF64x8(_ *layout, a *Reg) Reg {
	var r Reg
	archsimd.LoadFloat64x8Slice(regFloat64(a)).Sqrt().StoreSlice(regFloat64(&r))
	return r
}

func floatArith[T abi.Lanes](k *kernels[T], add, sub, mul, div kernel2, sqrt kernel1) {
	cascade(k, "add", &k.bin[opAdd], option[kernel2]{"archsimd.Add", true, add})
	cascade(k, "sub", &k.bin[opSub], option[kernel2]{"archsimd.Sub", true, sub})
	cascade(k, "mul", &k.bin[opMul], option[kernel2]{"archsimd.Mul", true, mul})
	cascade(k, "div", &k.bin[opDiv], option[kernel2]{"archsimd.Div", true, div})
	cascade(k, "sqrt", &k.un[opSqrt], option[kernel1]{"archsimd.Sqrt", true, sqrt})
}

// bindArchSIMD replaces the modelled arithmetic with archsimd intrinsics
// when the layout runs on the host. Integer lanes narrower than 32 bits and
// every other operation keep their models.
func bindArchSIMD[T abi.Lanes](k *kernels[T], l *layout, s features.Set) {
	if !hostVectors(l, s) {
		return
	}
	wide := l.full*l.bits/8 == 64
	switch {
	case l.kind == abi.Float32 && !wide:
		floatArith(k, f32x8(archsimd.Float32x8.Add), f32x8(archsimd.Float32x8.Sub),
			f32x8(archsimd.Float32x8.Mul), f32x8(archsimd.Float32x8.Div), sqrtF32x8)
	case l.kind == abi.Float32:
		floatArith(k, f32x16(archsimd.Float32x16.Add), f32x16(archsimd.Float32x16.Sub),
			f32x16(archsimd.Float32x16.Mul), f32x16(archsimd.Float32x16.Div), sqrtF32x16)
	case l.kind == abi.Float64 && !wide:
		floatArith(k, f64x4(archsimd.Float64x4.Add), f64x4(archsimd.Float64x4.Sub),
			f64x4(archsimd.Float64x4.Mul), f64x4(archsimd.Float64x4.Div), sqrtF64x4)
	case l.kind == abi.Float64:
		floatArith(k, f64x8(archsimd.Float64x8.Add), f64x8(archsimd.Float64x8.Sub),
			f64x8(archsimd.Float64x8.Mul), f64x8(archsimd.Float64x8.Div), sqrtF64x8)
	}
	switch l.kind {
	case abi.Int32, abi.Uint32:
		add, sub := i32x8(archsimd.Int32x8.Add), i32x8(archsimd.Int32x8.Sub)
		if wide {
			add, sub = i32x16(archsimd.Int32x16.Add), i32x16(archsimd.Int32x16.Sub)
		}
		cascade(k, "add", &k.bin[opAdd], option[kernel2]{"archsimd.Add", true, add})
		cascade(k, "sub", &k.bin[opSub], option[kernel2]{"archsimd.Sub", true, sub})
	case abi.Int64, abi.Uint64:
		add, sub := i64x4(archsimd.Int64x4.Add), i64x4(archsimd.Int64x4.Sub)
		if wide {
			add, sub = i64x8(archsimd.Int64x8.Add), i64x8(archsimd.Int64x8.Sub)
		}
		cascade(k, "add", &k.bin[opAdd], option[kernel2]{"archsimd.Add", true, add})
		cascade(k, "sub", &k.bin[opSub], option[kernel2]{"archsimd.Sub", true, sub})
	}

	// Bitwise operations ignore the lane type.
	and, or, xor := i64x4(archsimd.Int64x4.And), i64x4(archsimd.Int64x4.Or), i64x4(archsimd.Int64x4.Xor)
	if wide {
		and, or, xor = i64x8(archsimd.Int64x8.And), i64x8(archsimd.Int64x8.Or), i64x8(archsimd.Int64x8.Xor)
	}
	cascade(k, "and", &k.bin[opAnd], option[kernel2]{"archsimd.And", true, and})
	cascade(k, "or", &k.bin[opOr], option[kernel2]{"archsimd.Or", true, or})
	cascade(k, "xor", &k.bin[opXor], option[kernel2]{"archsimd.Xor", true, xor})
}
