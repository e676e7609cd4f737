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

// Package amm models a simulated liquidity pool: two float64 reserves, a
// 1024-byte strategy storage area and a bound executor that prices every
// trade. Amounts cross the strategy boundary in nano-units; the pool owns
// the marshaling.
package amm

import (
	"github.com/propamm/go-propamm/common/nano"
	"github.com/propamm/go-propamm/core/executor"
	"github.com/propamm/go-propamm/core/instruction"
	"github.com/propamm/go-propamm/core/vm"
)

// Pool is one simulated AMM pool. It is exclusively owned by a single
// simulation; nothing here is safe for concurrent use.
type Pool struct {
	ReserveX float64
	ReserveY float64
	Name     string

	exec    *executor.Executor
	storage [instruction.StorageSize]byte
}

// NewNative creates a pool priced by in-process strategy functions.
// afterSwap may be nil. Storage starts zeroed.
func NewNative(swap executor.SwapFn, afterSwap executor.AfterSwapFn, reserveX, reserveY float64, name string) *Pool {
	return &Pool{
		ReserveX: reserveX,
		ReserveY: reserveY,
		Name:     name,
		exec:     executor.NewNative(swap, afterSwap),
	}
}

// NewBpf creates a pool priced by a verified bytecode program. The program
// is shared read-only; the pool gets its own VM state. Storage starts
// zeroed.
func NewBpf(program *vm.Program, reserveX, reserveY float64, name string) *Pool {
	return &Pool{
		ReserveX: reserveX,
		ReserveY: reserveY,
		Name:     name,
		exec:     executor.NewBpf(program),
	}
}

// call quotes a trade in nano-units against the current reserves.
func (p *Pool) call(side uint8, amount uint64) uint64 {
	return p.exec.Execute(side, amount, nano.FromF64(p.ReserveX), nano.FromF64(p.ReserveY), p.storage[:])
}

// callAfterSwap runs the post-trade hook with the post-update reserves.
func (p *Pool) callAfterSwap(side uint8, input, output uint64) {
	rx := nano.FromF64(p.ReserveX)
	ry := nano.FromF64(p.ReserveY)
	p.exec.ExecuteAfterSwap(side, input, output, rx, ry, p.storage[:])
}

// QuoteBuyX prices a purchase of X for inputY of Y without trading.
// Non-positive inputs return 0 without invoking the strategy.
func (p *Pool) QuoteBuyX(inputY float64) float64 {
	if inputY <= 0 {
		return 0
	}
	return nano.ToF64(p.call(instruction.SideBuyX, nano.FromF64(inputY)))
}

// QuoteSellX prices a sale of inputX of X for Y without trading.
func (p *Pool) QuoteSellX(inputX float64) float64 {
	if inputX <= 0 {
		return 0
	}
	return nano.ToF64(p.call(instruction.SideSellX, nano.FromF64(inputX)))
}

// ExecuteBuyX trades inputY of Y for X. Reserves are updated only when the
// quote is positive, and the after-swap hook observes the updated reserves.
// Returns the X amount paid out.
func (p *Pool) ExecuteBuyX(inputY float64) float64 {
	outputX := p.QuoteBuyX(inputY)
	if outputX > 0 {
		p.ReserveX = clamp(p.ReserveX - outputX)
		p.ReserveY += inputY
		p.callAfterSwap(instruction.SideBuyX, nano.FromF64(inputY), nano.FromF64(outputX))
	}
	return outputX
}

// ExecuteSellX trades inputX of X for Y. Symmetric with ExecuteBuyX.
func (p *Pool) ExecuteSellX(inputX float64) float64 {
	outputY := p.QuoteSellX(inputX)
	if outputY > 0 {
		p.ReserveX += inputX
		p.ReserveY = clamp(p.ReserveY - outputY)
		p.callAfterSwap(instruction.SideSellX, nano.FromF64(inputX), nano.FromF64(outputY))
	}
	return outputY
}

// clamp floors a reserve at zero: a strategy overquoting its own reserve
// must not push the pool negative.
func clamp(reserve float64) float64 {
	if reserve < 0 {
		return 0
	}
	return reserve
}

// SpotPrice returns the marginal Y-per-X price implied by the reserves.
func (p *Pool) SpotPrice() float64 {
	return p.ReserveY / p.ReserveX
}

// Storage returns the pool's strategy scratch area. Exposed for tests and
// inspection; strategies reach it only through their calls.
func (p *Pool) Storage() []byte {
	return p.storage[:]
}

// Reset overwrites the reserves and zero-fills the whole storage area,
// returning the pool to its initial state for a fresh simulation.
func (p *Pool) Reset(reserveX, reserveY float64) {
	p.ReserveX = reserveX
	p.ReserveY = reserveY
	p.storage = [instruction.StorageSize]byte{}
}
