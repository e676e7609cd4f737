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

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// FrameReg is the index of the read-only frame pointer register r10.
const FrameReg = 10

// DefaultComputeBudget is the per-execution compute unit limit. A strategy
// call exceeding it is halted with ErrOutOfCompute.
const DefaultComputeBudget uint64 = 200_000

// Helper function numbers callable through OpCall.
const (
	// HelperSetReturnData posts up to 8 bytes at (r1, len r2) as the
	// execution result, read back by the host as a little-endian u64.
	HelperSetReturnData int32 = 1
	// HelperSetStorage copies len r2 bytes at r1 into the pool storage.
	// Only honored during after-swap execution, and committed only when
	// the program exits cleanly.
	HelperSetStorage int32 = 2
)

// maxReturnDataLen bounds a set_return_data payload.
const maxReturnDataLen = 8

var (
	// ErrOutOfCompute is returned when an execution exhausts its budget.
	ErrOutOfCompute = errors.New("vm: compute budget exhausted")

	// ErrDivisionByZero is returned when a register divisor is zero.
	ErrDivisionByZero = errors.New("vm: division by zero")

	// ErrStorageTooLarge is returned by set_storage for payloads over the
	// storage size.
	ErrStorageTooLarge = errors.New("vm: storage payload too large")

	// ErrStorageReadOnly is returned by set_storage outside after-swap
	// execution.
	ErrStorageReadOnly = errors.New("vm: storage not writable in this call")

	// ErrReturnDataTooLarge is returned by set_return_data for payloads
	// over 8 bytes.
	ErrReturnDataTooLarge = errors.New("vm: return data too large")
)

// knownHelper reports whether a helper number is callable.
func knownHelper(imm int32) bool {
	return imm == HelperSetReturnData || imm == HelperSetStorage
}

// VM executes a verified Program against mapped input and storage regions.
// A VM is owned by exactly one executor and reused across calls; Run resets
// all mutable state up front so no data leaks between calls.
type VM struct {
	regs  [11]uint64
	pc    int
	mem   Memory
	stack [StackSize]byte

	program *Program

	computeUsed   uint64
	computeBudget uint64

	// Helper side channels.
	returnData      [maxReturnDataLen]byte
	returnSet       bool
	storage         []byte // host storage buffer, committed to on clean exit
	storageWritable bool

	// set_storage writes are staged here and copied into the host buffer
	// only after the program exits cleanly, so a fault after a successful
	// helper call cannot leave a partial write behind.
	pending    []byte
	pendingSet bool
}

// New creates a VM bound to a program. A zero computeBudget selects
// DefaultComputeBudget.
func New(program *Program, computeBudget uint64) *VM {
	if computeBudget == 0 {
		computeBudget = DefaultComputeBudget
	}
	return &VM{program: program, computeBudget: computeBudget}
}

// ComputeUsed returns the units consumed by the last Run.
func (vm *VM) ComputeUsed() uint64 { return vm.computeUsed }

// Run executes the program against the given request buffer and storage.
// storageWritable selects whether the set_storage helper is honored (it is
// during after-swap calls only). The result is the little-endian u64 posted
// through set_return_data; ok reports whether any return data was posted.
//
// Storage writes are transactional: they land in the caller's buffer only
// when the program runs to a clean exit. Any error — including a fault after
// a successful set_storage call — discards them.
func (vm *VM) Run(input, storage []byte, storageWritable bool) (result uint64, ok bool, err error) {
	vm.regs = [11]uint64{}
	vm.pc = 0
	vm.computeUsed = 0
	vm.returnSet = false
	vm.storage = storage
	vm.storageWritable = storageWritable
	vm.pendingSet = false
	for i := range vm.stack {
		vm.stack[i] = 0
	}

	vm.mem.MapInput(input)
	vm.mem.MapStorage(storage)
	vm.mem.MapStack(vm.stack[:])

	// Entry convention: r1 = request address, r2 = request length,
	// r3 = storage address, r4 = storage length, r10 = top of stack.
	vm.regs[1] = InputAddr
	vm.regs[2] = uint64(len(input))
	vm.regs[3] = StorageAddr
	vm.regs[4] = uint64(len(storage))
	vm.regs[FrameReg] = StackAddr + StackSize

	n := vm.program.Len()
	for vm.pc < n {
		if err := vm.step(); err != nil {
			if errors.Is(err, errHalt) {
				break
			}
			return 0, false, err
		}
	}

	// Clean exit: commit staged storage writes.
	if vm.pendingSet {
		copy(vm.storage, vm.pending)
	}

	if !vm.returnSet {
		return 0, false, nil
	}
	return binary.LittleEndian.Uint64(vm.returnData[:]), true, nil
}

// errHalt is the internal signal raised by OpExit.
var errHalt = errors.New("vm: halt")

// step fetches, decodes and executes exactly one instruction.
func (vm *VM) step() error {
	in := vm.program.insn(vm.pc)
	vm.pc++

	vm.computeUsed += in.Op.Cost()
	if vm.computeUsed > vm.computeBudget {
		return ErrOutOfCompute
	}

	switch in.Op {

	// ---- ALU, immediate ----------------------------------------------------

	case OpAddImm:
		vm.regs[in.Dst] += imm64(in.Imm)
	case OpSubImm:
		vm.regs[in.Dst] -= imm64(in.Imm)
	case OpMulImm:
		vm.regs[in.Dst] *= imm64(in.Imm)
	case OpDivImm:
		vm.regs[in.Dst] /= imm64(in.Imm) // imm 0 rejected by the verifier
	case OpModImm:
		vm.regs[in.Dst] %= imm64(in.Imm)
	case OpOrImm:
		vm.regs[in.Dst] |= imm64(in.Imm)
	case OpAndImm:
		vm.regs[in.Dst] &= imm64(in.Imm)
	case OpXorImm:
		vm.regs[in.Dst] ^= imm64(in.Imm)
	case OpLshImm:
		vm.regs[in.Dst] <<= uint64(uint32(in.Imm)) & 63
	case OpRshImm:
		vm.regs[in.Dst] >>= uint64(uint32(in.Imm)) & 63
	case OpMovImm:
		vm.regs[in.Dst] = imm64(in.Imm)
	case OpNeg:
		vm.regs[in.Dst] = -vm.regs[in.Dst]

	// ---- ALU, register -----------------------------------------------------

	case OpAddReg:
		vm.regs[in.Dst] += vm.regs[in.Src]
	case OpSubReg:
		vm.regs[in.Dst] -= vm.regs[in.Src]
	case OpMulReg:
		vm.regs[in.Dst] *= vm.regs[in.Src]
	case OpDivReg:
		d := vm.regs[in.Src]
		if d == 0 {
			return ErrDivisionByZero
		}
		vm.regs[in.Dst] /= d
	case OpModReg:
		d := vm.regs[in.Src]
		if d == 0 {
			return ErrDivisionByZero
		}
		vm.regs[in.Dst] %= d
	case OpOrReg:
		vm.regs[in.Dst] |= vm.regs[in.Src]
	case OpAndReg:
		vm.regs[in.Dst] &= vm.regs[in.Src]
	case OpXorReg:
		vm.regs[in.Dst] ^= vm.regs[in.Src]
	case OpLshReg:
		vm.regs[in.Dst] <<= vm.regs[in.Src] & 63
	case OpRshReg:
		vm.regs[in.Dst] >>= vm.regs[in.Src] & 63
	case OpMovReg:
		vm.regs[in.Dst] = vm.regs[in.Src]

	// ---- Memory ------------------------------------------------------------

	case OpLddw:
		next := vm.program.insn(vm.pc)
		vm.pc++
		vm.regs[in.Dst] = uint64(uint32(in.Imm)) | uint64(uint32(next.Imm))<<32

	case OpLdxb, OpLdxh, OpLdxw, OpLdxdw:
		v, err := vm.mem.Load(vm.regs[in.Src]+off64(in.Off), loadWidth(in.Op))
		if err != nil {
			return err
		}
		vm.regs[in.Dst] = v

	case OpStxb, OpStxh, OpStxw, OpStxdw:
		if err := vm.mem.Store(vm.regs[in.Dst]+off64(in.Off), storeWidth(in.Op), vm.regs[in.Src]); err != nil {
			return err
		}

	// ---- Branches ----------------------------------------------------------

	case OpJa:
		vm.pc += int(in.Off)
	case OpJeqImm:
		vm.branch(vm.regs[in.Dst] == imm64(in.Imm), in.Off)
	case OpJeqReg:
		vm.branch(vm.regs[in.Dst] == vm.regs[in.Src], in.Off)
	case OpJneImm:
		vm.branch(vm.regs[in.Dst] != imm64(in.Imm), in.Off)
	case OpJneReg:
		vm.branch(vm.regs[in.Dst] != vm.regs[in.Src], in.Off)
	case OpJgtImm:
		vm.branch(vm.regs[in.Dst] > imm64(in.Imm), in.Off)
	case OpJgtReg:
		vm.branch(vm.regs[in.Dst] > vm.regs[in.Src], in.Off)
	case OpJgeImm:
		vm.branch(vm.regs[in.Dst] >= imm64(in.Imm), in.Off)
	case OpJgeReg:
		vm.branch(vm.regs[in.Dst] >= vm.regs[in.Src], in.Off)
	case OpJltImm:
		vm.branch(vm.regs[in.Dst] < imm64(in.Imm), in.Off)
	case OpJltReg:
		vm.branch(vm.regs[in.Dst] < vm.regs[in.Src], in.Off)
	case OpJleImm:
		vm.branch(vm.regs[in.Dst] <= imm64(in.Imm), in.Off)
	case OpJleReg:
		vm.branch(vm.regs[in.Dst] <= vm.regs[in.Src], in.Off)

	// ---- Calls -------------------------------------------------------------

	case OpCall:
		if err := vm.call(in.Imm); err != nil {
			return err
		}

	case OpExit:
		return errHalt

	default:
		// Unreachable for verified programs.
		return fmt.Errorf("vm: invalid opcode 0x%02x at slot %d", uint8(in.Op), vm.pc-1)
	}
	return nil
}

// branch applies a conditional instruction-relative jump.
func (vm *VM) branch(taken bool, off int16) {
	if taken {
		vm.pc += int(off)
	}
}

// call dispatches a helper function. Arguments arrive in r1..r5; the result,
// if any, is written to r0.
func (vm *VM) call(helper int32) error {
	switch helper {
	case HelperSetReturnData:
		addr, length := vm.regs[1], vm.regs[2]
		if length > maxReturnDataLen {
			return ErrReturnDataTooLarge
		}
		data, err := vm.mem.Slice(addr, length)
		if err != nil {
			return err
		}
		vm.returnData = [maxReturnDataLen]byte{}
		copy(vm.returnData[:], data)
		vm.returnSet = true
		vm.regs[0] = 0
		return nil

	case HelperSetStorage:
		addr, length := vm.regs[1], vm.regs[2]
		if length > uint64(len(vm.storage)) {
			return ErrStorageTooLarge
		}
		if !vm.storageWritable {
			return ErrStorageReadOnly
		}
		data, err := vm.mem.Slice(addr, length)
		if err != nil {
			return err
		}
		// Stage the write; Run commits it after a clean exit. The staging
		// buffer starts as a copy of the live storage so successive prefix
		// writes of different lengths compose the same way direct writes
		// would.
		if !vm.pendingSet {
			if cap(vm.pending) < len(vm.storage) {
				vm.pending = make([]byte, len(vm.storage))
			}
			vm.pending = vm.pending[:len(vm.storage)]
			copy(vm.pending, vm.storage)
			vm.pendingSet = true
		}
		copy(vm.pending, data)
		vm.regs[0] = 0
		return nil
	}
	// Unreachable for verified programs.
	return fmt.Errorf("vm: unknown helper %d", helper)
}

// imm64 sign-extends a 32-bit immediate to the 64-bit register width.
func imm64(imm int32) uint64 { return uint64(int64(imm)) }

// off64 sign-extends a 16-bit displacement for address arithmetic.
func off64(off int16) uint64 { return uint64(int64(off)) }

func loadWidth(op Opcode) uint64 {
	switch op {
	case OpLdxb:
		return 1
	case OpLdxh:
		return 2
	case OpLdxw:
		return 4
	}
	return 8
}

func storeWidth(op Opcode) uint64 {
	switch op {
	case OpStxb:
		return 1
	case OpStxh:
		return 2
	case OpStxw:
		return 4
	}
	return 8
}
