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

// Package sim contains the simulation engine and its parallel batch runner:
// a deterministic stepwise driver that pits a submission pool against a
// normalizer pool under synthetic retail and arbitrage flow, and folds many
// such simulations into a batch result.
package sim

import "errors"

// SimulationConfig fully determines one simulation. Identical configs
// produce bit-identical results regardless of worker count or backend,
// provided the strategy code is itself deterministic.
type SimulationConfig struct {
	NSteps uint32
	Seed   uint64

	// Both pools start with the same reserves.
	InitialReserveX float64
	InitialReserveY float64

	// Retail flow: each step carries a retail order with probability
	// RetailProb; order notional (in Y) is exponentially distributed with
	// mean RetailMeanSize.
	RetailProb     float64
	RetailMeanSize float64

	// Arbitrage flow: when the submission/normalizer spot gap exceeds
	// ArbThresholdBps, an arbitrageur is present with probability ArbProb
	// and trades ArbFraction of the gap-closing amount against the
	// submission pool.
	ArbThresholdBps float64
	ArbProb         float64
	ArbFraction     float64

	// MaxTradeFraction caps any single trade relative to the relevant
	// reserve, keeping degenerate draws from draining a pool in one step.
	MaxTradeFraction float64
}

// ErrBadConfig is returned for configs that cannot drive a simulation.
var ErrBadConfig = errors.New("sim: invalid config")

// DefaultConfig returns the evaluation defaults used by the CLI and the
// default batch.
func DefaultConfig() SimulationConfig {
	return SimulationConfig{
		NSteps:           1000,
		Seed:             0,
		InitialReserveX:  100.0,
		InitialReserveY:  10000.0,
		RetailProb:       0.9,
		RetailMeanSize:   20.0,
		ArbThresholdBps:  10.0,
		ArbProb:          0.8,
		ArbFraction:      0.5,
		MaxTradeFraction: 0.25,
	}
}

// DefaultBatch materializes nSims configs from the defaults, overriding the
// step count and assigning seeds seedBase, seedBase+1, ...
func DefaultBatch(nSims, steps uint32, seedBase uint64) []SimulationConfig {
	configs := make([]SimulationConfig, nSims)
	for i := range configs {
		cfg := DefaultConfig()
		cfg.NSteps = steps
		cfg.Seed = seedBase + uint64(i)
		configs[i] = cfg
	}
	return configs
}

// validate rejects configs with non-finite or out-of-range parameters.
func (c *SimulationConfig) validate() error {
	if !isFinite(c.InitialReserveX) || !isFinite(c.InitialReserveY) ||
		c.InitialReserveX < 0 || c.InitialReserveY < 0 {
		return ErrBadConfig
	}
	if !isFinite(c.RetailProb) || c.RetailProb < 0 || c.RetailProb > 1 {
		return ErrBadConfig
	}
	if !isFinite(c.ArbProb) || c.ArbProb < 0 || c.ArbProb > 1 {
		return ErrBadConfig
	}
	if !isFinite(c.RetailMeanSize) || c.RetailMeanSize < 0 {
		return ErrBadConfig
	}
	if !isFinite(c.ArbThresholdBps) || c.ArbThresholdBps < 0 {
		return ErrBadConfig
	}
	if !isFinite(c.ArbFraction) || c.ArbFraction < 0 {
		return ErrBadConfig
	}
	if !isFinite(c.MaxTradeFraction) || c.MaxTradeFraction < 0 || c.MaxTradeFraction > 1 {
		return ErrBadConfig
	}
	return nil
}
