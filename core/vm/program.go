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
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// InsnSize is the encoded size of one instruction slot.
const InsnSize = 8

var (
	// ErrTruncatedProgram is returned when the byte stream is not a
	// non-empty multiple of InsnSize.
	ErrTruncatedProgram = errors.New("vm: truncated program")

	// ErrNoTextSection is returned when an ELF object carries no .text.
	ErrNoTextSection = errors.New("vm: no .text section in object")
)

// Insn is one decoded instruction slot.
type Insn struct {
	Op  Opcode
	Dst uint8
	Src uint8
	Off int16
	Imm int32
}

// Encode appends the 8-byte encoding of the instruction to buf.
func (i Insn) Encode(buf []byte) []byte {
	buf = append(buf, byte(i.Op), i.Dst|i.Src<<4)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(i.Off))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(i.Imm))
	return buf
}

// decodeInsn decodes the instruction slot starting at data (8 bytes).
func decodeInsn(data []byte) Insn {
	return Insn{
		Op:  Opcode(data[0]),
		Dst: data[1] & 0x0f,
		Src: data[1] >> 4,
		Off: int16(binary.LittleEndian.Uint16(data[2:4])),
		Imm: int32(binary.LittleEndian.Uint32(data[4:8])),
	}
}

// Program is a verified strategy program. It is immutable after load and is
// shared read-only across workers; each worker runs it on its own VM state.
type Program struct {
	insns    []Insn
	raw      []byte
	compiled bool
}

// Load parses and verifies a raw instruction stream. The returned program
// uses the pre-decoded fast path.
func Load(code []byte) (*Program, error) {
	return load(code, true)
}

// LoadInterpreted parses and verifies a raw instruction stream but keeps the
// slot-by-slot decoding interpreter as the execution path. Results are
// bit-identical to the pre-decoded path; this exists as the reference
// fallback and for differential testing.
func LoadInterpreted(code []byte) (*Program, error) {
	return load(code, false)
}

func load(code []byte, compile bool) (*Program, error) {
	if len(code) == 0 || len(code)%InsnSize != 0 {
		return nil, ErrTruncatedProgram
	}
	raw := bytes.Clone(code)
	insns := make([]Insn, len(raw)/InsnSize)
	for i := range insns {
		insns[i] = decodeInsn(raw[i*InsnSize:])
	}
	p := &Program{insns: insns, raw: raw, compiled: compile}
	if err := verify(p.insns); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadELF extracts the strategy bytecode from an ELF shared object and loads
// it. The program text is taken from the .text section.
func LoadELF(data []byte) (*Program, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("vm: parsing object: %w", err)
	}
	defer f.Close()

	sec := f.Section(".text")
	if sec == nil || sec.Size == 0 {
		return nil, ErrNoTextSection
	}
	text, err := sec.Data()
	if err != nil {
		return nil, fmt.Errorf("vm: reading .text: %w", err)
	}
	return Load(text)
}

// Len returns the number of instruction slots.
func (p *Program) Len() int { return len(p.insns) }

// Compiled reports whether the program executes through the pre-decoded
// instruction cache rather than the slot-decoding interpreter.
func (p *Program) Compiled() bool { return p.compiled }

// insn returns the instruction at slot pc, decoding from the raw stream when
// the pre-decoded path is disabled.
func (p *Program) insn(pc int) Insn {
	if p.compiled {
		return p.insns[pc]
	}
	return decodeInsn(p.raw[pc*InsnSize:])
}

// Disassemble returns a human-readable listing of the program.
func Disassemble(p *Program) string {
	var out strings.Builder
	for pc := 0; pc < len(p.insns); pc++ {
		in := p.insns[pc]
		fmt.Fprintf(&out, "[%04d] ", pc)
		switch {
		case in.Op == OpLddw:
			var imm64 uint64
			if pc+1 < len(p.insns) {
				imm64 = uint64(uint32(in.Imm)) | uint64(uint32(p.insns[pc+1].Imm))<<32
			}
			fmt.Fprintf(&out, "lddw r%d, 0x%x\n", in.Dst, imm64)
			pc++
		case in.Op == OpExit:
			out.WriteString("exit\n")
		case in.Op == OpCall:
			fmt.Fprintf(&out, "call %d\n", in.Imm)
		case in.Op == OpJa:
			fmt.Fprintf(&out, "ja %+d\n", in.Off)
		case in.Op.isJump():
			if in.Op.usesReg() {
				fmt.Fprintf(&out, "%s r%d, r%d, %+d\n", in.Op, in.Dst, in.Src, in.Off)
			} else {
				fmt.Fprintf(&out, "%s r%d, %d, %+d\n", in.Op, in.Dst, in.Imm, in.Off)
			}
		case in.Op.isStore():
			fmt.Fprintf(&out, "%s [r%d%+d], r%d\n", in.Op, in.Dst, in.Off, in.Src)
		case in.Op == OpLdxb || in.Op == OpLdxh || in.Op == OpLdxw || in.Op == OpLdxdw:
			fmt.Fprintf(&out, "%s r%d, [r%d%+d]\n", in.Op, in.Dst, in.Src, in.Off)
		case in.Op == OpNeg:
			fmt.Fprintf(&out, "neg r%d\n", in.Dst)
		case in.Op.usesReg():
			fmt.Fprintf(&out, "%s r%d, r%d\n", in.Op, in.Dst, in.Src)
		default:
			fmt.Fprintf(&out, "%s r%d, %d\n", in.Op, in.Dst, in.Imm)
		}
	}
	return out.String()
}

// usesReg reports whether the opcode takes its second operand from src
// rather than the immediate field.
func (op Opcode) usesReg() bool {
	// BPF encodes the operand source in bit 3.
	return op&0x08 != 0
}
