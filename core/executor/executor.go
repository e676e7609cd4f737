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

// Package executor drives strategy code through the uniform swap call
// contract. Two backends satisfy it: Native runs trusted in-process
// functions at full speed; Bpf runs untrusted bytecode on the sandboxed VM.
// Both consume the identical request buffers defined in core/instruction and
// must produce identical outputs for identical inputs.
package executor

import (
	"github.com/propamm/go-propamm/core/instruction"
	"github.com/propamm/go-propamm/core/vm"
)

// SwapFn quotes a swap from a 25-byte request. It must be pure: no storage
// mutation, deterministic for fixed inputs. It receives only the request
// buffer; the pool storage is not passed to native swap functions.
type SwapFn func(data []byte) uint64

// AfterSwapFn is the optional post-trade hook. data is a 41-byte request;
// storage is the pool's 1024-byte scratch area and may be mutated.
type AfterSwapFn func(data, storage []byte)

// backendKind tags the executor variant. A tagged union is used instead of
// an interface so the native hot path stays inlineable; the BPF case pays a
// single tag check.
type backendKind uint8

const (
	backendNative backendKind = iota
	backendBpf
)

// Executor dispatches swap calls to one strategy backend. The zero value is
// not usable; construct with NewNative or NewBpf.
type Executor struct {
	kind backendKind

	// Native backend: direct function values.
	swap      SwapFn
	afterSwap AfterSwapFn

	// BPF backend: shared read-only program, per-executor VM state.
	machine *vm.VM

	// Request scratch buffer, reused across calls.
	buf []byte
}

// NewNative creates a native executor. afterSwap may be nil, in which case
// the post-trade hook is a no-op.
func NewNative(swap SwapFn, afterSwap AfterSwapFn) *Executor {
	return &Executor{
		kind:      backendNative,
		swap:      swap,
		afterSwap: afterSwap,
		buf:       make([]byte, 0, instruction.AfterSwapRequestSize),
	}
}

// NewBpf creates a BPF executor with fresh VM state. The program is shared
// read-only; concurrent use requires one executor per goroutine.
func NewBpf(program *vm.Program) *Executor {
	return &Executor{
		kind:    backendBpf,
		machine: vm.New(program, 0),
		buf:     make([]byte, 0, instruction.AfterSwapRequestSize),
	}
}

// Execute quotes a swap and returns the output amount in nano-units.
// Strategy faults (VM errors, budget exhaustion) yield 0: per-call errors
// are silent by design so faulting strategies cannot abort a batch.
func (e *Executor) Execute(side uint8, input, reserveX, reserveY uint64, storage []byte) uint64 {
	req := instruction.SwapRequest{Side: side, Input: input, ReserveX: reserveX, ReserveY: reserveY}
	e.buf = req.AppendTo(e.buf[:0])

	if e.kind == backendNative {
		return e.swap(e.buf)
	}
	out, ok, err := e.machine.Run(e.buf, storage, false)
	if err != nil || !ok {
		return 0
	}
	return out
}

// ExecuteAfterSwap invokes the post-trade hook with the post-update
// reserves. Errors are swallowed: a failed hook leaves storage as-is and
// the simulation continues.
func (e *Executor) ExecuteAfterSwap(side uint8, input, output, reserveX, reserveY uint64, storage []byte) {
	req := instruction.AfterSwapRequest{
		Side:     side,
		Input:    input,
		Output:   output,
		ReserveX: reserveX,
		ReserveY: reserveY,
	}
	e.buf = req.AppendTo(e.buf[:0])

	if e.kind == backendNative {
		if e.afterSwap != nil {
			e.afterSwap(e.buf, storage)
		}
		return
	}
	_, _, _ = e.machine.Run(e.buf, storage, true)
}
