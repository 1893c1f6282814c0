// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package gopool runs batches of independent tasks on a bounded ants pool.
package gopool

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

var minNumberPerTask = 2

// Threads returns a worker count suited to the number of tasks, bounded by
// GOMAXPROCS.
func Threads(tasks int) int {
	threads := tasks / minNumberPerTask
	if procs := runtime.GOMAXPROCS(0); threads > procs {
		threads = procs
	} else if threads == 0 {
		threads = 1
	}
	return threads
}

// Run calls task for every index in [0, n) on at most workers goroutines.
// Once ctx is done no further task is started; Run waits for the running
// ones and returns the context error.
func Run(ctx context.Context, workers, n int, task func(ctx context.Context, i int)) error {
	if workers <= 0 {
		workers = Threads(n)
	}
	pool, err := ants.NewPool(workers, ants.WithExpiryDuration(10*time.Second))
	if err != nil {
		return err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		i := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			task(ctx, i)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return err
		}
	}
	wg.Wait()
	return ctx.Err()
}
