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


//go:build !(amd64 && goexperiment.simd)

package ops

import (
	"github.com/ajroetker/go-stdsimd/simd/abi"
	"github.com/ajroetker/go-stdsimd/simd/features"
)

// bindArchSIMD is a no-op without the simd experiment: every layout keeps
// its modelled kernels.
func bindArchSIMD[T abi.Lanes](*kernels[T], *layout, features.Set) {}
