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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/propamm/go-propamm/core/instruction"
	"github.com/propamm/go-propamm/core/vm"
)

// discountProgram prices every trade at 90% of the input, capped by the
// output reserve. Economically crude, but deterministic and well-formed;
// enough to drive the sandboxed path end to end.
func discountProgram(t *testing.T) *vm.Program {
	t.Helper()

	asm := vm.NewAssembler().
		Ldxdw(6, 1, 1). // r6 = input
		MulImm(6, 9).
		DivImm(6, 10).
		Ldxb(7, 1, 0).           // r7 = side
		JeqImm(7, instruction.SideSellX, 2).
		Ldxdw(8, 1, 9).          // buy side: cap at reserve_x
		Ja(1).
		Ldxdw(8, 1, 17).         // sell side: cap at reserve_y
		JleReg(6, 8, 1).
		MovReg(6, 8).
		Stxdw(10, -8, 6).
		MovReg(1, 10).
		AddImm(1, -8).
		MovImm(2, 8).
		Call(vm.HelperSetReturnData).
		Exit()

	prog, err := asm.Assemble()
	require.NoError(t, err)
	return prog
}

func TestBpfSubmissionRunsDeterministically(t *testing.T) {
	handles := BpfHandles(discountProgram(t))
	cfg := DefaultConfig()
	cfg.NSteps = 300
	cfg.Seed = 11

	r1, err := RunSimulation(handles, normalizerHandles(), &cfg)
	require.NoError(t, err)
	r2, err := RunSimulation(handles, normalizerHandles(), &cfg)
	require.NoError(t, err)
	require.Equal(t, r1, r2)
	require.True(t, isFinite(r1.SubmissionEdge))
}

func TestSharedProgramAcrossWorkers(t *testing.T) {
	// One parsed program, many workers: each simulation builds its own VM
	// state, so parallel batches stay deterministic.
	handles := BpfHandles(discountProgram(t))
	configs := DefaultBatch(6, 150, 3)

	serial, err := RunBatch(handles, normalizerHandles(), configs, 1)
	require.NoError(t, err)
	parallel, err := RunBatch(handles, normalizerHandles(), configs, 3)
	require.NoError(t, err)
	require.Equal(t, serial.Results, parallel.Results)
}
