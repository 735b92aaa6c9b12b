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

//go:build 386 || amd64

package features

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sys/cpu"
)

func detect() CPU {
	c := CPU{
		Arch:   runtime.GOARCH,
		Vendor: cpuid.CPU.VendorString,
		Brand:  cpuid.CPU.BrandName,
	}

	// SSE and SSE2 are part of the amd64 baseline; x/sys/cpu does not
	// report SSE separately.
	var s Set
	if runtime.GOARCH == "amd64" || cpu.X86.HasSSE2 {
		s = s.With(SSE, SSE2)
	}
	flags := []struct {
		has bool
		f   Feature
	}{
		{cpu.X86.HasSSE3, SSE3},
		{cpu.X86.HasSSSE3, SSSE3},
		{cpu.X86.HasSSE41, SSE41},
		{cpu.X86.HasSSE42, SSE42},
		{cpu.X86.HasPOPCNT, POPCNT},
		{cpu.X86.HasAVX, AVX},
		{cpu.X86.HasAVX2, AVX2},
		{cpu.X86.HasFMA, FMA},
		{cpu.X86.HasAVX512F, AVX512F},
		{cpu.X86.HasAVX512CD, AVX512CD},
		{cpu.X86.HasAVX512BW, AVX512BW},
		{cpu.X86.HasAVX512DQ, AVX512DQ},
		{cpu.X86.HasAVX512VL, AVX512VL},
		// x/sys/cpu does not know about AVX512-FP16 yet.
		{cpuid.CPU.Supports(cpuid.AVX512FP16), AVX512FP16},
	}
	for _, fl := range flags {
		if fl.has {
			s = s.With(fl.f)
		}
	}
	// AVX-512 state must be enabled by the OS; x/sys/cpu already checks
	// XCR0 for AVX512F, cpuid checks it for FP16.
	if !s.Has(AVX512F) {
		s = s.Without(AVX512CD, AVX512BW, AVX512DQ, AVX512VL, AVX512FP16)
	}
	c.Detected = s
	return c
}
