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

import "math"

// SimulationResult is the outcome of one simulation. All fields are finite
// in Y-token units unless stated otherwise.
type SimulationResult struct {
	// SubmissionEdge is the submission pool's cumulative profit versus the
	// normalizer: retail spread captured minus arbitrage losses suffered.
	SubmissionEdge float64

	// RetailEdge is the retail component of the edge.
	RetailEdge float64

	// ArbLoss is the value extracted from the submission pool by
	// arbitrage (non-negative).
	ArbLoss float64

	// Volume is the total retail notional traded.
	Volume float64

	// Steps is the number of simulated steps.
	Steps uint32

	// Seed echoes the config's seed, for per-row reporting.
	Seed uint64
}

// BatchResult aggregates a batch of simulations. Results appear in the
// order of the input configs, never in completion order.
type BatchResult struct {
	Results []SimulationResult
}

// NSims returns the number of simulations in the batch.
func (b *BatchResult) NSims() int { return len(b.Results) }

// MeanEdge returns the average submission edge across the batch.
func (b *BatchResult) MeanEdge() float64 {
	if len(b.Results) == 0 {
		return 0
	}
	sum := 0.0
	for i := range b.Results {
		sum += b.Results[i].SubmissionEdge
	}
	return sum / float64(len(b.Results))
}

// StdEdge returns the population standard deviation of the edge.
func (b *BatchResult) StdEdge() float64 {
	n := len(b.Results)
	if n == 0 {
		return 0
	}
	mean := b.MeanEdge()
	sum := 0.0
	for i := range b.Results {
		d := b.Results[i].SubmissionEdge - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// MinEdge returns the smallest edge in the batch, or 0 for an empty batch.
func (b *BatchResult) MinEdge() float64 {
	if len(b.Results) == 0 {
		return 0
	}
	min := b.Results[0].SubmissionEdge
	for i := range b.Results {
		if e := b.Results[i].SubmissionEdge; e < min {
			min = e
		}
	}
	return min
}

// MaxEdge returns the largest edge in the batch, or 0 for an empty batch.
func (b *BatchResult) MaxEdge() float64 {
	if len(b.Results) == 0 {
		return 0
	}
	max := b.Results[0].SubmissionEdge
	for i := range b.Results {
		if e := b.Results[i].SubmissionEdge; e > max {
			max = e
		}
	}
	return max
}

// isFinite reports whether x is neither NaN nor infinite.
func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// sanitize clamps non-finite intermediates to zero so a degenerate pool
// state cannot poison a result.
func sanitize(x float64) float64 {
	if !isFinite(x) {
		return 0
	}
	return x
}
