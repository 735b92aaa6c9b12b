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
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	if pool.NumWorkers() != 4 {
		t.Errorf("NumWorkers() = %d, want 4", pool.NumWorkers())
	}
}

func TestNewPoolDefault(t *testing.T) {
	pool := NewPool(0)
	defer pool.Close()

	if pool.NumWorkers() != runtime.GOMAXPROCS(0) {
		t.Errorf("NumWorkers() = %d, want %d", pool.NumWorkers(), runtime.GOMAXPROCS(0))
	}
}

func TestEach(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	n := 100
	results := make([]int, n)
	err := pool.Each(context.Background(), n, func(i int) error {
		results[i] = i * 2
		return nil
	})
	require.NoError(t, err)
	for i := range n {
		if results[i] != i*2 {
			t.Errorf("results[%d] = %d, want %d", i, results[i], i*2)
		}
	}
}

func TestEachStopsOnError(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	boom := errors.New("boom")
	var calls atomic.Int32
	err := pool.Each(context.Background(), 10000, func(i int) error {
		calls.Add(1)
		if i == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Less(t, int(calls.Load()), 10000)
}

func TestEachAfterClose(t *testing.T) {
	pool := NewPool(4)
	pool.Close()
	pool.Close()

	var sum atomic.Int64
	err := pool.Each(context.Background(), 10, func(i int) error {
		sum.Add(int64(i))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(45), sum.Load())
}

func TestEachCanceled(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pool.Each(ctx, 10, func(int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
