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
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool shared by every sweep of a run.
// Workers are spawned once and reused until Close.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// NewPool creates a pool with numWorkers workers. If numWorkers <= 0, it
// uses GOMAXPROCS.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close shuts the pool down after pending work completes. It is safe to
// call more than once.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// Each runs fn for every index in [0, n), handing indices out one at a
// time so that slow cases do not stall a whole chunk. It blocks until all
// workers are done and returns the first error. After an error or a
// cancellation of ctx no new index is started.
//
// Each may be called concurrently from several goroutines. fn must not
// call back into the pool.
func (p *Pool) Each(ctx context.Context, n int, fn func(i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}

	var (
		next    atomic.Int64
		errOnce sync.Once
		first   error
		stop    atomic.Bool
	)
	run := func() {
		for !stop.Load() {
			i := int(next.Add(1)) - 1
			if i >= n {
				return
			}
			err := ctx.Err()
			if err == nil {
				err = fn(i)
			}
			if err != nil {
				errOnce.Do(func() { first = err })
				stop.Store(true)
			}
		}
	}

	workers := min(p.numWorkers, n)
	if workers == 1 || p.closed.Load() {
		run()
		return first
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		p.workC <- workItem{fn: run, barrier: &wg}
	}
	wg.Wait()
	return first
}
