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

import "math/rand"

// stepDraws holds every random choice for one simulation step.
type stepDraws struct {
	retailArrives bool
	retailBuysX   bool
	retailSize    float64 // Y notional, exponentially distributed
	arbPresent    bool
}

// orderFlow generates the stochastic retail/arbitrage order flow. All
// randomness in a simulation passes through a single seeded source, and
// every step consumes exactly four draws in a fixed order; that pins the
// determinism contract independently of pool state.
type orderFlow struct {
	rng *rand.Rand
	cfg *SimulationConfig
}

// newOrderFlow creates the flow generator for one simulation.
func newOrderFlow(cfg *SimulationConfig) *orderFlow {
	return &orderFlow{
		rng: rand.New(rand.NewSource(int64(cfg.Seed))),
		cfg: cfg,
	}
}

// next produces the draws for the upcoming step. Draw order: arrival,
// side, size, arbitrage presence.
func (f *orderFlow) next() stepDraws {
	return stepDraws{
		retailArrives: f.rng.Float64() < f.cfg.RetailProb,
		retailBuysX:   f.rng.Float64() < 0.5,
		retailSize:    f.cfg.RetailMeanSize * f.rng.ExpFloat64(),
		arbPresent:    f.rng.Float64() < f.cfg.ArbProb,
	}
}
