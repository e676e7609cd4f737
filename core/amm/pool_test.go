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

package amm

import (
	"math"
	"testing"

	"github.com/propamm/go-propamm/common/nano"
	"github.com/propamm/go-propamm/core/instruction"
	"github.com/propamm/go-propamm/strategy/normalizer"
)

func newTestPool() *Pool {
	return NewNative(normalizer.ComputeSwap, normalizer.AfterSwap, 100.0, 10000.0, "test")
}

func TestQuoteIgnoresNonPositiveInput(t *testing.T) {
	calls := 0
	counting := func(data []byte) uint64 {
		calls++
		return 1
	}
	p := NewNative(counting, nil, 100.0, 10000.0, "counting")

	for _, in := range []float64{0, -1, math.Inf(-1)} {
		if out := p.QuoteBuyX(in); out != 0 {
			t.Fatalf("QuoteBuyX(%v) = %v", in, out)
		}
		if out := p.QuoteSellX(in); out != 0 {
			t.Fatalf("QuoteSellX(%v) = %v", in, out)
		}
	}
	if calls != 0 {
		t.Fatalf("executor invoked %d times for non-positive input", calls)
	}
}

func TestExecuteBuyXUpdatesReserves(t *testing.T) {
	p := newTestPool()
	out := p.ExecuteBuyX(10.0)
	if out <= 0 {
		t.Fatalf("output = %v", out)
	}
	if got, want := p.ReserveX, 100.0-out; got != want {
		t.Fatalf("reserve_x = %v, want %v", got, want)
	}
	if got, want := p.ReserveY, 10000.0+10.0; got != want {
		t.Fatalf("reserve_y = %v, want %v", got, want)
	}
}

func TestExecuteSellXUpdatesReserves(t *testing.T) {
	p := newTestPool()
	out := p.ExecuteSellX(1.0)
	if out <= 0 {
		t.Fatalf("output = %v", out)
	}
	if got, want := p.ReserveX, 101.0; got != want {
		t.Fatalf("reserve_x = %v, want %v", got, want)
	}
	if got, want := p.ReserveY, 10000.0-out; got != want {
		t.Fatalf("reserve_y = %v, want %v", got, want)
	}
}

func TestZeroQuoteLeavesPoolUntouched(t *testing.T) {
	afterCalls := 0
	zeroQuote := func(data []byte) uint64 { return 0 }
	after := func(data, storage []byte) { afterCalls++ }

	p := NewNative(zeroQuote, after, 100.0, 10000.0, "zero")
	if out := p.ExecuteBuyX(10.0); out != 0 {
		t.Fatalf("output = %v", out)
	}
	if p.ReserveX != 100.0 || p.ReserveY != 10000.0 {
		t.Fatalf("reserves moved: %v / %v", p.ReserveX, p.ReserveY)
	}
	if afterCalls != 0 {
		t.Fatal("after-swap invoked for zero quote")
	}
}

func TestAfterSwapSeesPostUpdateReserves(t *testing.T) {
	var got instruction.AfterSwapRequest
	after := func(data, storage []byte) {
		r, err := instruction.DecodeAfterSwapRequest(data)
		if err != nil {
			t.Error(err)
			return
		}
		got = r
	}
	p := NewNative(normalizer.ComputeSwap, after, 100.0, 10000.0, "observing")

	out := p.ExecuteBuyX(10.0)
	if out <= 0 {
		t.Fatalf("output = %v", out)
	}
	if want := nano.FromF64(p.ReserveX); got.ReserveX != want {
		t.Fatalf("after-swap reserve_x = %d, want post-update %d", got.ReserveX, want)
	}
	if want := nano.FromF64(p.ReserveY); got.ReserveY != want {
		t.Fatalf("after-swap reserve_y = %d, want post-update %d", got.ReserveY, want)
	}
	if got.Input != nano.FromF64(10.0) || got.Output != nano.FromF64(out) {
		t.Fatalf("after-swap amounts: %+v", got)
	}
}

func TestStoragePersistsAcrossSwaps(t *testing.T) {
	p := newTestPool()
	p.ExecuteBuyX(10.0)
	p.ExecuteSellX(0.5)

	// The normalizer's after-swap counts trades at storage offset 16.
	count := uint64(p.Storage()[16])
	if count != 2 {
		t.Fatalf("trade count = %d, want 2", count)
	}
}

func TestReset(t *testing.T) {
	p := newTestPool()
	p.ExecuteBuyX(10.0)

	p.Reset(200.0, 20000.0)
	if p.ReserveX != 200.0 || p.ReserveY != 20000.0 {
		t.Fatalf("reserves = %v / %v", p.ReserveX, p.ReserveY)
	}
	for i, b := range p.Storage() {
		if b != 0 {
			t.Fatalf("storage[%d] = %d after reset", i, b)
		}
	}
	if len(p.Storage()) != instruction.StorageSize {
		t.Fatalf("storage length = %d", len(p.Storage()))
	}
}

func TestSpotPrice(t *testing.T) {
	p := newTestPool()
	if got := p.SpotPrice(); got != 100.0 {
		t.Fatalf("spot = %v, want 100", got)
	}
}

func TestZeroReservePoolQuotesZero(t *testing.T) {
	p := NewNative(normalizer.ComputeSwap, normalizer.AfterSwap, 0, 10000.0, "drained")
	if out := p.ExecuteBuyX(10.0); out != 0 {
		t.Fatalf("output = %v", out)
	}
	if p.ReserveY != 10000.0 {
		t.Fatal("reserve updated on zero quote")
	}
}
