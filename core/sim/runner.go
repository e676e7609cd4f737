// Copyright 2025 The go-propamm Authors
// This file is part of the go-propamm library.
//
// The go-propamm library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-propamm library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-propamm library. If not, see <http://www.gnu.org/licenses/>.

package sim

import (
	"fmt"
	"runtime"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"
)

// RunBatch runs every config through a pool of workers and returns the
// results in input order. workers <= 0 selects the available parallelism.
//
// Strategy code is shared across workers the cheap way: native function
// values are copied, programs are shared read-only; every simulation still
// gets its own pools, storage and VM state. A worker panic fails the whole
// batch; per-call strategy faults never do.
func RunBatch(submission, normalizer Handles, configs []SimulationConfig, workers int) (*BatchResult, error) {
	if err := submission.validate(); err != nil {
		return nil, err
	}
	if err := normalizer.validate(); err != nil {
		return nil, err
	}
	for i := range configs {
		if err := configs[i].validate(); err != nil {
			return nil, fmt.Errorf("%w (config %d)", err, i)
		}
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(configs) {
		workers = len(configs)
	}
	if len(configs) == 0 {
		return &BatchResult{}, nil
	}

	log.Debug("Starting simulation batch", "sims", len(configs), "workers", workers)

	// Every worker drains the shared index queue and writes results by
	// config index, so the merged batch is ordered no matter which worker
	// finishes when.
	jobs := make(chan int, len(configs))
	for i := range configs {
		jobs <- i
	}
	close(jobs)

	results := make([]SimulationResult, len(configs))
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("sim: worker panic: %v", r)
				}
			}()
			for idx := range jobs {
				res, err := RunSimulation(submission, normalizer, &configs[idx])
				if err != nil {
					return fmt.Errorf("sim %d: %w", idx, err)
				}
				results[idx] = *res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &BatchResult{Results: results}, nil
}

// RunDefaultBatch runs nSims simulations of the default config with seeds
// seedBase, seedBase+1, ...
func RunDefaultBatch(submission, normalizer Handles, nSims, steps uint32, seedBase uint64, workers int) (*BatchResult, error) {
	return RunBatch(submission, normalizer, DefaultBatch(nSims, steps, seedBase), workers)
}
