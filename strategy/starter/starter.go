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

// Package starter is the template strategy handed to contestants: the same
// constant-product curve as the normalizer, but with a flat 5% fee. It
// always quotes below the reference, which makes it a useful fixture for
// edge-direction tests.
package starter

import (
	"github.com/holiman/uint256"

	"github.com/propamm/go-propamm/core/instruction"
)

// Output is computed on input * 950/1000.
const (
	feeNumerator   = 950
	feeDenominator = 1000
)

// ComputeSwap quotes a constant-product swap with the starter fee.
func ComputeSwap(data []byte) uint64 {
	req, err := instruction.DecodeSwapRequest(data)
	if err != nil {
		return 0
	}
	if req.ReserveX == 0 || req.ReserveY == 0 {
		return 0
	}

	rx := uint256.NewInt(req.ReserveX)
	ry := uint256.NewInt(req.ReserveY)
	k := new(uint256.Int).Mul(rx, ry)

	net := new(uint256.Int).Mul(uint256.NewInt(req.Input), uint256.NewInt(feeNumerator))
	net.Div(net, uint256.NewInt(feeDenominator))

	var oldOut, newIn *uint256.Int
	switch req.Side {
	case instruction.SideBuyX:
		oldOut, newIn = rx, new(uint256.Int).Add(ry, net)
	case instruction.SideSellX:
		oldOut, newIn = ry, new(uint256.Int).Add(rx, net)
	default:
		return 0
	}

	keep := new(uint256.Int).Add(k, newIn)
	keep.SubUint64(keep, 1)
	keep.Div(keep, newIn)
	if keep.Cmp(oldOut) >= 0 {
		return 0
	}
	return new(uint256.Int).Sub(oldOut, keep).Uint64()
}

// AfterSwap is intentionally a no-op: the starter keeps no state.
func AfterSwap(data, storage []byte) {
}
