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

package normalizer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/propamm/go-propamm/common/nano"
	"github.com/propamm/go-propamm/core/instruction"
)

// quote prices a swap in token units against 100 X / 10000 Y reserves.
func quote(t *testing.T, side uint8, input float64) float64 {
	t.Helper()
	req := instruction.SwapRequest{
		Side:     side,
		Input:    nano.FromF64(input),
		ReserveX: nano.FromF64(100.0),
		ReserveY: nano.FromF64(10000.0),
	}
	return nano.ToF64(ComputeSwap(req.Encode()))
}

func TestBasicExecution(t *testing.T) {
	// Buying X with 10 Y out of deep reserves returns just under 0.1 X.
	out := quote(t, instruction.SideBuyX, 10.0)
	if out <= 0.09 || out >= 0.11 {
		t.Fatalf("buy output = %v, want in (0.09, 0.11)", out)
	}

	// Selling 1 X returns just under 100 Y.
	out = quote(t, instruction.SideSellX, 1.0)
	if out <= 95.0 || out >= 100.0 {
		t.Fatalf("sell output = %v, want in (95, 100)", out)
	}
}

func TestMathCorrectness(t *testing.T) {
	out := quote(t, instruction.SideBuyX, 100.0)
	if math.Abs(out-0.987) >= 0.01 {
		t.Fatalf("output = %v, want ~0.987", out)
	}
}

func TestMonotonicity(t *testing.T) {
	sizes := []float64{0.1, 1.0, 10.0, 50.0, 100.0, 500.0}
	prev := -1.0
	for _, size := range sizes {
		out := quote(t, instruction.SideBuyX, size)
		if out <= prev {
			t.Fatalf("monotonicity violated at size %v: %v <= %v", size, out, prev)
		}
		prev = out
	}
}

func TestConvexity(t *testing.T) {
	sizes := []float64{1.0, 10.0, 50.0, 100.0, 500.0}
	const eps = 0.001
	prevMarginal := math.MaxFloat64
	for _, size := range sizes {
		lo := quote(t, instruction.SideBuyX, size)
		hi := quote(t, instruction.SideBuyX, size+eps)
		marginal := (hi - lo) / eps
		if marginal > prevMarginal+1e-9 {
			t.Fatalf("convexity violated at size %v", size)
		}
		prevMarginal = marginal
	}
}

func TestDegenerateInputs(t *testing.T) {
	zeroRx := instruction.SwapRequest{Side: 0, Input: 1000, ReserveX: 0, ReserveY: 1000}
	if out := ComputeSwap(zeroRx.Encode()); out != 0 {
		t.Fatalf("zero reserve_x: out = %d", out)
	}
	zeroRy := instruction.SwapRequest{Side: 1, Input: 1000, ReserveX: 1000, ReserveY: 0}
	if out := ComputeSwap(zeroRy.Encode()); out != 0 {
		t.Fatalf("zero reserve_y: out = %d", out)
	}
	if out := ComputeSwap(nil); out != 0 {
		t.Fatalf("short buffer: out = %d", out)
	}
	bad := instruction.SwapRequest{Side: 7, Input: 1000, ReserveX: 1000, ReserveY: 1000}
	if out := ComputeSwap(bad.Encode()); out != 0 {
		t.Fatalf("bad side: out = %d", out)
	}
}

func TestOutputNeverExceedsReserve(t *testing.T) {
	// Even an absurd input cannot drain the output reserve.
	req := instruction.SwapRequest{
		Side:     instruction.SideBuyX,
		Input:    math.MaxUint64,
		ReserveX: nano.FromF64(100.0),
		ReserveY: nano.FromF64(10000.0),
	}
	out := ComputeSwap(req.Encode())
	if out >= req.ReserveX {
		t.Fatalf("out = %d drains reserve %d", out, req.ReserveX)
	}
}

func TestAfterSwapAccounting(t *testing.T) {
	storage := make([]byte, instruction.StorageSize)
	req := instruction.AfterSwapRequest{
		Side:     instruction.SideBuyX,
		Input:    1000,
		Output:   500,
		ReserveX: nano.FromF64(100.0),
		ReserveY: nano.FromF64(10000.0),
	}
	AfterSwap(req.Encode(), storage)
	AfterSwap(req.Encode(), storage)

	get := func(off int) uint64 { return binary.LittleEndian.Uint64(storage[off:]) }
	if got := get(volInOffset); got != 2000 {
		t.Fatalf("volume in = %d, want 2000", got)
	}
	if got := get(volOutOffset); got != 1000 {
		t.Fatalf("volume out = %d, want 1000", got)
	}
	if got := get(countOffset); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}
	// Spot = 10000/100 = 100 Y per X, in nano.
	if got := get(spotOffset); got != 100*nano.Unit {
		t.Fatalf("spot = %d, want %d", got, uint64(100*nano.Unit))
	}
}

func TestAfterSwapIgnoresBadRequests(t *testing.T) {
	storage := make([]byte, instruction.StorageSize)
	AfterSwap(nil, storage)
	AfterSwap(make([]byte, 10), storage)
	for _, b := range storage {
		if b != 0 {
			t.Fatal("storage mutated by rejected request")
		}
	}
}
