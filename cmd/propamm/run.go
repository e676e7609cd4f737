// Copyright 2025 The go-propamm Authors
// This file is part of go-propamm.
//
// go-propamm is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-propamm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-propamm. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/urfave/cli.v1"

	"github.com/propamm/go-propamm/core/executor"
	"github.com/propamm/go-propamm/core/sim"
	"github.com/propamm/go-propamm/strategy/normalizer"
)

var (
	simsFlag = cli.UintFlag{
		Name:  "sims",
		Usage: "Number of simulations in the batch",
		Value: 64,
	}
	stepsFlag = cli.UintFlag{
		Name:  "steps",
		Usage: "Steps per simulation",
		Value: 1000,
	}
	seedFlag = cli.Uint64Flag{
		Name:  "seed",
		Usage: "Base seed; simulation i runs with seed+i",
		Value: 0,
	}
	workersFlag = cli.IntFlag{
		Name:  "workers",
		Usage: "Worker count (0 = available parallelism)",
		Value: 0,
	}
	bpfFlag = cli.BoolFlag{
		Name:  "bpf",
		Usage: "Run the submission as sandboxed bytecode instead of a native library",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML file overriding the default simulation parameters",
	}
)

var runCommand = cli.Command{
	Action:    runStrategy,
	Name:      "run",
	Usage:     "Evaluate a submission against the normalizer",
	ArgsUsage: "<crate>",
	Flags: []cli.Flag{
		simsFlag, stepsFlag, seedFlag, workersFlag, bpfFlag, configFlag,
	},
	Description: `Loads the submission artifact built under <crate>/target
(release library for native runs, deploy object for --bpf), simulates the
configured retail/arbitrage flow against the reference normalizer, and
prints per-seed and aggregate edge figures.`,
}

func runStrategy(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("run wants exactly one <crate> argument")
	}
	crate := ctx.Args().First()

	submission, backend, err := loadSubmission(crate, ctx.Bool(bpfFlag.Name))
	if err != nil {
		return err
	}
	reference := sim.NativeHandles(normalizer.ComputeSwap, normalizer.AfterSwap)

	base := sim.DefaultConfig()
	if path := ctx.String(configFlag.Name); path != "" {
		if err := loadSimConfig(path, &base); err != nil {
			return err
		}
	}

	nSims := uint32(ctx.Uint(simsFlag.Name))
	base.NSteps = uint32(ctx.Uint(stepsFlag.Name))
	seedBase := ctx.Uint64(seedFlag.Name)

	configs := make([]sim.SimulationConfig, nSims)
	for i := range configs {
		configs[i] = base
		configs[i].Seed = seedBase + uint64(i)
	}

	log.Info("Running simulations", "sims", nSims, "steps", base.NSteps, "backend", backend)

	start := time.Now()
	result, err := sim.RunBatch(submission, reference, configs, ctx.Int(workersFlag.Name))
	if err != nil {
		return err
	}
	printResults(result, time.Since(start))
	return nil
}

// loadSubmission discovers and loads the strategy artifact, returning the
// handles plus a label for the banner.
func loadSubmission(crate string, bpf bool) (sim.Handles, string, error) {
	if bpf {
		path, err := executor.FindBpfObject(crate)
		if err != nil {
			return sim.Handles{}, "", err
		}
		program, err := executor.LoadBpfObject(path)
		if err != nil {
			return sim.Handles{}, "", err
		}
		backend := "bpf (interpreter)"
		if program.Compiled() {
			backend = "bpf (compiled)"
		}
		return sim.BpfHandles(program), backend, nil
	}

	path, err := executor.FindNativeLibrary(crate)
	if err != nil {
		return sim.Handles{}, "", err
	}
	lib, err := executor.OpenNativeLibrary(path)
	if err != nil {
		return sim.Handles{}, "", err
	}
	return sim.NativeHandles(lib.Swap, lib.AfterSwap), "native", nil
}
