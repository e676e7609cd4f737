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

package vm

import "fmt"

// VerifyError describes a bytecode verification failure.
type VerifyError struct {
	Slot    int
	Message string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("vm: verify error at slot %d: %s", e.Slot, e.Message)
}

func verifyErr(slot int, format string, args ...interface{}) error {
	return &VerifyError{Slot: slot, Message: fmt.Sprintf(format, args...)}
}

// verify checks a decoded instruction stream for structural safety before it
// is ever executed:
//
//  1. every opcode is defined (the second slot of an lddw pair is exempt);
//  2. register indices are in range, and r10 is never written;
//  3. jump targets land on instruction boundaries inside the program and
//     never on the continuation slot of an lddw;
//  4. lddw pairs are complete (no truncated wide load);
//  5. immediate divisors and moduli are non-zero;
//  6. helper call numbers are known;
//  7. the final instruction is an exit or an unconditional backward jump.
//
// Memory safety is enforced dynamically by the region-mapped Memory; the
// verifier's job is to make every later decode step well-defined.
func verify(insns []Insn) error {
	n := len(insns)
	if n == 0 {
		return ErrTruncatedProgram
	}

	// First pass: mark lddw continuation slots.
	cont := make([]bool, n)
	for pc := 0; pc < n; pc++ {
		if cont[pc] {
			continue
		}
		if insns[pc].Op == OpLddw {
			if pc+1 >= n {
				return verifyErr(pc, "lddw without continuation slot")
			}
			if insns[pc+1].Op != 0 {
				return verifyErr(pc+1, "lddw continuation slot must have opcode 0, got 0x%02x", uint8(insns[pc+1].Op))
			}
			cont[pc+1] = true
		}
	}

	for pc := 0; pc < n; pc++ {
		if cont[pc] {
			continue
		}
		in := insns[pc]
		if !in.Op.Valid() {
			return verifyErr(pc, "unknown opcode 0x%02x", uint8(in.Op))
		}
		if in.Dst > FrameReg || in.Src > FrameReg {
			return verifyErr(pc, "register out of range (dst=%d src=%d)", in.Dst, in.Src)
		}
		if in.Dst == FrameReg && in.Op.writesDst() {
			return verifyErr(pc, "write to frame pointer r10")
		}
		switch in.Op {
		case OpDivImm, OpModImm:
			if in.Imm == 0 {
				return verifyErr(pc, "division by zero immediate")
			}
		case OpCall:
			if !knownHelper(in.Imm) {
				return verifyErr(pc, "unknown helper %d", in.Imm)
			}
		}
		if in.Op.isJump() {
			target := pc + 1 + int(in.Off)
			if target < 0 || target >= n {
				return verifyErr(pc, "jump target %d out of range", target)
			}
			if cont[target] {
				return verifyErr(pc, "jump into lddw continuation slot %d", target)
			}
		}
	}

	// The stream must end in a terminator so the fetch loop cannot run off
	// the end of the code.
	last := insns[n-1]
	if cont[n-1] {
		return verifyErr(n-1, "program ends inside lddw pair")
	}
	if last.Op != OpExit && !(last.Op == OpJa && int(last.Off) < 0) {
		return verifyErr(n-1, "program does not end with exit")
	}
	return nil
}
