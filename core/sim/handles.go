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
	"errors"

	"github.com/propamm/go-propamm/core/amm"
	"github.com/propamm/go-propamm/core/executor"
	"github.com/propamm/go-propamm/core/vm"
)

// Handles identifies one side's strategy code: either native function
// values, or a verified program shared read-only across workers. Handles
// are cheap to copy; every pool built from them gets fresh executor state.
type Handles struct {
	Swap      executor.SwapFn
	AfterSwap executor.AfterSwapFn
	Program   *vm.Program
}

// ErrNoStrategy is returned when handles carry neither native functions nor
// a program.
var ErrNoStrategy = errors.New("sim: handles carry no strategy")

// NativeHandles wraps in-process strategy functions. afterSwap may be nil.
func NativeHandles(swap executor.SwapFn, afterSwap executor.AfterSwapFn) Handles {
	return Handles{Swap: swap, AfterSwap: afterSwap}
}

// BpfHandles wraps a verified program.
func BpfHandles(program *vm.Program) Handles {
	return Handles{Program: program}
}

// validate rejects empty handles before any batch work is dispatched.
func (h Handles) validate() error {
	if h.Swap == nil && h.Program == nil {
		return ErrNoStrategy
	}
	return nil
}

// newPool builds a pool bound to this strategy with zeroed storage.
func (h Handles) newPool(reserveX, reserveY float64, name string) *amm.Pool {
	if h.Program != nil {
		return amm.NewBpf(h.Program, reserveX, reserveY, name)
	}
	return amm.NewNative(h.Swap, h.AfterSwap, reserveX, reserveY, name)
}
