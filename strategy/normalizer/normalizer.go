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

// Package normalizer implements the reference pricing strategy every
// submission is measured against: a constant-product curve with a 30 basis
// point fee. Reserve products exceed 64 bits in nano-units, so the math runs
// on 256-bit integers.
package normalizer

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/propamm/go-propamm/core/instruction"
)

// Fee parameters: output is computed on input * 997/1000.
const (
	feeNumerator   = 997
	feeDenominator = 1000
)

// Storage layout maintained by AfterSwap. The swap path never reads it;
// it exists to exercise the storage lifecycle and for inspection.
const (
	volInOffset  = 0  // cumulative input volume, u64
	volOutOffset = 8  // cumulative output volume, u64
	countOffset  = 16 // trade count, u64
	spotOffset   = 24 // last post-trade spot price in nano Y per X, u64
)

// ComputeSwap quotes a constant-product swap from a 25-byte request.
// All amounts are nano-units. Degenerate reserves quote 0.
func ComputeSwap(data []byte) uint64 {
	req, err := instruction.DecodeSwapRequest(data)
	if err != nil {
		return 0
	}
	return swap(req.Side, req.Input, req.ReserveX, req.ReserveY, feeNumerator)
}

// swap restores the reserve product after adding the fee-discounted input,
// rounding the invariant restoration up so the pool never underprices.
func swap(side uint8, input, reserveX, reserveY uint64, feeNum uint64) uint64 {
	if reserveX == 0 || reserveY == 0 {
		return 0
	}

	rx := uint256.NewInt(reserveX)
	ry := uint256.NewInt(reserveY)
	k := new(uint256.Int).Mul(rx, ry)

	net := new(uint256.Int).Mul(uint256.NewInt(input), uint256.NewInt(feeNum))
	net.Div(net, uint256.NewInt(feeDenominator))

	var oldOut, newIn *uint256.Int
	switch side {
	case instruction.SideBuyX:
		oldOut, newIn = rx, new(uint256.Int).Add(ry, net)
	case instruction.SideSellX:
		oldOut, newIn = ry, new(uint256.Int).Add(rx, net)
	default:
		return 0
	}

	// keep = ceil(k / newIn); output = oldOut - keep, floored at zero.
	keep := new(uint256.Int).Add(k, newIn)
	keep.SubUint64(keep, 1)
	keep.Div(keep, newIn)
	if keep.Cmp(oldOut) >= 0 {
		return 0
	}
	out := new(uint256.Int).Sub(oldOut, keep)
	return out.Uint64()
}

// AfterSwap records cumulative volume and the post-trade spot price in the
// pool storage. Pricing does not depend on it.
func AfterSwap(data, storage []byte) {
	req, err := instruction.DecodeAfterSwapRequest(data)
	if err != nil || len(storage) < spotOffset+8 {
		return
	}

	put := func(off int, v uint64) { binary.LittleEndian.PutUint64(storage[off:], v) }
	get := func(off int) uint64 { return binary.LittleEndian.Uint64(storage[off:]) }

	put(volInOffset, saturatingAdd(get(volInOffset), req.Input))
	put(volOutOffset, saturatingAdd(get(volOutOffset), req.Output))
	put(countOffset, get(countOffset)+1)

	if req.ReserveX > 0 {
		spot := new(uint256.Int).Mul(uint256.NewInt(req.ReserveY), uint256.NewInt(1_000_000_000))
		spot.Div(spot, uint256.NewInt(req.ReserveX))
		if spot.IsUint64() {
			put(spotOffset, spot.Uint64())
		} else {
			put(spotOffset, ^uint64(0))
		}
	}
}

func saturatingAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}
