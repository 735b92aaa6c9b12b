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

package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-stdsimd/simd/abi"
)

func TestRunSmall(t *testing.T) {
	rep, err := Run(context.Background(), Options{
		Presets: []string{"scalar", "sse2", "avx2", "avx512", "neon", "power8"},
		Kinds:   []abi.Kind{abi.Int8, abi.Uint16, abi.Int64, abi.Float32, abi.Float64},
		Widths:  []int{1, 3, 8, 17, 64},
		Trials:  2,
		Seed:    1,
		Workers: 4,
	})
	require.NoError(t, err)
	assert.Positive(t, rep.Cases)
	for _, m := range rep.Mismatches {
		t.Error(m)
	}
}

func TestRunFullSweep(t *testing.T) {
	if testing.Short() {
		t.Skip("full sweep")
	}
	rep, err := Run(context.Background(), Options{Trials: 1, Seed: 7})
	require.NoError(t, err)
	for _, m := range rep.Mismatches {
		t.Error(m)
	}
	// The scalar preset tops out at 64 lanes, every other preset reaches
	// every default width.
	assert.Zero(t, rep.Skipped)
}

func TestRunSkipsWideShapes(t *testing.T) {
	rep, err := Run(context.Background(), Options{
		Presets: []string{"scalar"},
		Kinds:   []abi.Kind{abi.Int32},
		Widths:  []int{4, 65},
		Trials:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Cases)
	assert.Equal(t, 1, rep.Skipped)
	assert.True(t, rep.OK())
}

func TestRunRejectsBadOptions(t *testing.T) {
	_, err := Run(context.Background(), Options{Presets: []string{"no-such-cpu"}})
	assert.Error(t, err)

	_, err = Run(context.Background(), Options{Widths: []int{0}})
	assert.ErrorIs(t, err, abi.ErrInvalidWidth)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Options{Presets: []string{"avx2"}, Kinds: []abi.Kind{abi.Int32}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMismatchString(t *testing.T) {
	m := Mismatch{Check: CheckTier, Preset: "avx2", Kind: abi.Int8, Variant: "NativeVector<16,16>", Op: "add", Lane: 3, Got: 1, Want: 2, Seed: 9}
	assert.Equal(t, "tier: avx2 int8 NativeVector<16,16> add lane 3: got 0x1, want 0x2 (seed 9)", m.String())
}
