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

// Assembler builds instruction streams programmatically. It exists for test
// fixtures and reference programs; production strategies arrive as compiled
// objects. Labels are not supported: branch displacements are given directly
// in instruction slots, matching what a disassembly shows.
type Assembler struct {
	insns []Insn
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Pc returns the index of the next emitted slot, for computing branch
// displacements.
func (a *Assembler) Pc() int { return len(a.insns) }

// Emit appends a raw instruction.
func (a *Assembler) Emit(in Insn) *Assembler {
	a.insns = append(a.insns, in)
	return a
}

// MovImm emits dst = imm.
func (a *Assembler) MovImm(dst uint8, imm int32) *Assembler {
	return a.Emit(Insn{Op: OpMovImm, Dst: dst, Imm: imm})
}

// MovReg emits dst = src.
func (a *Assembler) MovReg(dst, src uint8) *Assembler {
	return a.Emit(Insn{Op: OpMovReg, Dst: dst, Src: src})
}

// Lddw emits the two-slot wide load dst = imm64.
func (a *Assembler) Lddw(dst uint8, imm64 uint64) *Assembler {
	a.Emit(Insn{Op: OpLddw, Dst: dst, Imm: int32(uint32(imm64))})
	return a.Emit(Insn{Imm: int32(uint32(imm64 >> 32))})
}

// AddImm emits dst += imm.
func (a *Assembler) AddImm(dst uint8, imm int32) *Assembler {
	return a.Emit(Insn{Op: OpAddImm, Dst: dst, Imm: imm})
}

// AddReg emits dst += src.
func (a *Assembler) AddReg(dst, src uint8) *Assembler {
	return a.Emit(Insn{Op: OpAddReg, Dst: dst, Src: src})
}

// SubReg emits dst -= src.
func (a *Assembler) SubReg(dst, src uint8) *Assembler {
	return a.Emit(Insn{Op: OpSubReg, Dst: dst, Src: src})
}

// MulImm emits dst *= imm.
func (a *Assembler) MulImm(dst uint8, imm int32) *Assembler {
	return a.Emit(Insn{Op: OpMulImm, Dst: dst, Imm: imm})
}

// MulReg emits dst *= src.
func (a *Assembler) MulReg(dst, src uint8) *Assembler {
	return a.Emit(Insn{Op: OpMulReg, Dst: dst, Src: src})
}

// DivImm emits dst /= imm.
func (a *Assembler) DivImm(dst uint8, imm int32) *Assembler {
	return a.Emit(Insn{Op: OpDivImm, Dst: dst, Imm: imm})
}

// DivReg emits dst /= src.
func (a *Assembler) DivReg(dst, src uint8) *Assembler {
	return a.Emit(Insn{Op: OpDivReg, Dst: dst, Src: src})
}

// Ldxb emits dst = *(u8)(src + off).
func (a *Assembler) Ldxb(dst, src uint8, off int16) *Assembler {
	return a.Emit(Insn{Op: OpLdxb, Dst: dst, Src: src, Off: off})
}

// Ldxdw emits dst = *(u64)(src + off).
func (a *Assembler) Ldxdw(dst, src uint8, off int16) *Assembler {
	return a.Emit(Insn{Op: OpLdxdw, Dst: dst, Src: src, Off: off})
}

// Stxdw emits *(u64)(dst + off) = src.
func (a *Assembler) Stxdw(dst uint8, off int16, src uint8) *Assembler {
	return a.Emit(Insn{Op: OpStxdw, Dst: dst, Src: src, Off: off})
}

// Ja emits an unconditional branch by off slots.
func (a *Assembler) Ja(off int16) *Assembler {
	return a.Emit(Insn{Op: OpJa, Off: off})
}

// JeqImm emits: if dst == imm, branch by off slots.
func (a *Assembler) JeqImm(dst uint8, imm int32, off int16) *Assembler {
	return a.Emit(Insn{Op: OpJeqImm, Dst: dst, Imm: imm, Off: off})
}

// JneImm emits: if dst != imm, branch by off slots.
func (a *Assembler) JneImm(dst uint8, imm int32, off int16) *Assembler {
	return a.Emit(Insn{Op: OpJneImm, Dst: dst, Imm: imm, Off: off})
}

// JgtReg emits: if dst > src, branch by off slots.
func (a *Assembler) JgtReg(dst, src uint8, off int16) *Assembler {
	return a.Emit(Insn{Op: OpJgtReg, Dst: dst, Src: src, Off: off})
}

// JleReg emits: if dst <= src, branch by off slots.
func (a *Assembler) JleReg(dst, src uint8, off int16) *Assembler {
	return a.Emit(Insn{Op: OpJleReg, Dst: dst, Src: src, Off: off})
}

// Call emits a helper call.
func (a *Assembler) Call(helper int32) *Assembler {
	return a.Emit(Insn{Op: OpCall, Imm: helper})
}

// Exit emits the terminator.
func (a *Assembler) Exit() *Assembler {
	return a.Emit(Insn{Op: OpExit})
}

// Bytes returns the encoded instruction stream.
func (a *Assembler) Bytes() []byte {
	buf := make([]byte, 0, len(a.insns)*InsnSize)
	for _, in := range a.insns {
		buf = in.Encode(buf)
	}
	return buf
}

// Assemble verifies and loads the accumulated program.
func (a *Assembler) Assemble() (*Program, error) {
	return Load(a.Bytes())
}
