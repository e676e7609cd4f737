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

// Package nano implements the fixed-point nano-unit representation used on
// the strategy call boundary. One token equals 1e9 nano-units, so any amount
// a strategy can observe fits in an unsigned 64-bit integer.
package nano

import "math"

// Unit is the number of nano-units per whole token.
const Unit = 1_000_000_000

// maxConvertible is the smallest float64 that does not fit in a uint64.
const maxConvertible = float64(1 << 63 << 1) // 2^64

// FromF64 converts a token amount to nano-units.
// Negative, NaN and infinite inputs map to 0; amounts too large for 64 bits
// saturate at math.MaxUint64. The conversion truncates toward zero.
func FromF64(x float64) uint64 {
	if !(x > 0) || math.IsInf(x, 1) {
		return 0
	}
	v := x * Unit
	if v >= maxConvertible {
		return math.MaxUint64
	}
	return uint64(math.Floor(v))
}

// ToF64 converts nano-units back to a token amount.
func ToF64(n uint64) float64 {
	return float64(n) / Unit
}
