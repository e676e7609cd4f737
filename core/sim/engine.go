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
	"github.com/propamm/go-propamm/core/amm"
)

// RunSimulation drives one full simulation: both pools start from the
// config's reserves with zeroed storage, retail orders hit both pools with
// identical inputs, and an arbitrageur trades against the submission pool
// whenever its price strays from the normalizer's.
//
// The edge accumulates in Y-token units: each retail fill is valued against
// the pre-trade normalizer spot, so the retail term is the extra spread the
// submission captured over the reference, and the arbitrage term is the
// value the arbitrageur extracted from the submission pool.
func RunSimulation(submission, normalizer Handles, cfg *SimulationConfig) (*SimulationResult, error) {
	if err := submission.validate(); err != nil {
		return nil, err
	}
	if err := normalizer.validate(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	sub := submission.newPool(cfg.InitialReserveX, cfg.InitialReserveY, "submission")
	norm := normalizer.newPool(cfg.InitialReserveX, cfg.InitialReserveY, "normalizer")
	flow := newOrderFlow(cfg)

	res := &SimulationResult{Steps: cfg.NSteps, Seed: cfg.Seed}

	for step := uint32(0); step < cfg.NSteps; step++ {
		draws := flow.next()

		// Retail leg: the same order hits both pools.
		fair := norm.SpotPrice()
		if draws.retailArrives && isFinite(fair) && fair > 0 {
			size := draws.retailSize
			if max := cfg.MaxTradeFraction * norm.ReserveY; size > max {
				size = max
			}
			if size > 0 {
				// A pool that declines the fill (zero quote) captures no
				// spread; only executed trades count.
				var spreadSub, spreadNorm float64
				if draws.retailBuysX {
					if outSub := sub.ExecuteBuyX(size); outSub > 0 {
						spreadSub = size - outSub*fair
					}
					if outNorm := norm.ExecuteBuyX(size); outNorm > 0 {
						spreadNorm = size - outNorm*fair
					}
				} else {
					inputX := size / fair
					if outSub := sub.ExecuteSellX(inputX); outSub > 0 {
						spreadSub = inputX*fair - outSub
					}
					if outNorm := norm.ExecuteSellX(inputX); outNorm > 0 {
						spreadNorm = inputX*fair - outNorm
					}
				}
				res.RetailEdge += sanitize(spreadSub - spreadNorm)
				res.Volume += size
			}
		}

		// Arbitrage leg: trade the submission pool toward the normalizer's
		// price whenever the gap clears the threshold and the trade is
		// profitable at the normalizer's spot.
		if draws.arbPresent {
			arbStep(sub, norm, cfg, res)
		}
	}

	res.RetailEdge = sanitize(res.RetailEdge)
	res.ArbLoss = sanitize(res.ArbLoss)
	res.Volume = sanitize(res.Volume)
	res.SubmissionEdge = sanitize(res.RetailEdge - res.ArbLoss)
	return res, nil
}

// arbStep applies at most one arbitrage trade against the submission pool.
func arbStep(sub, norm *amm.Pool, cfg *SimulationConfig, res *SimulationResult) {
	pSub := sub.SpotPrice()
	pNorm := norm.SpotPrice()
	if !isFinite(pSub) || !isFinite(pNorm) || pSub <= 0 || pNorm <= 0 {
		return
	}

	gap := (pSub - pNorm) / pNorm
	if abs(gap)*10_000 <= cfg.ArbThresholdBps {
		return
	}

	// Trading half the relative gap approximately closes it on a
	// constant-product curve; ArbFraction scales the aggressiveness.
	fraction := cfg.ArbFraction * abs(gap) / 2
	if fraction > cfg.MaxTradeFraction {
		fraction = cfg.MaxTradeFraction
	}

	if gap > 0 {
		// X overpriced on the submission pool: sell X into it.
		inputX := fraction * sub.ReserveX
		quote := sub.QuoteSellX(inputX)
		profit := sanitize(quote - inputX*pNorm)
		if profit > 0 {
			sub.ExecuteSellX(inputX)
			res.ArbLoss += profit
		}
	} else {
		// X underpriced on the submission pool: buy X out of it.
		inputY := fraction * sub.ReserveY
		quote := sub.QuoteBuyX(inputY)
		profit := sanitize(quote*pNorm - inputY)
		if profit > 0 {
			sub.ExecuteBuyX(inputY)
			res.ArbLoss += profit
		}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
