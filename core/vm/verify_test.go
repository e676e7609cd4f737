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
	"errors"
	"strings"
	"testing"
)

func mustBytes(insns ...Insn) []byte {
	var buf []byte
	for _, in := range insns {
		buf = in.Encode(buf)
	}
	return buf
}

func TestVerifyRejects(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want string
	}{
		{
			name: "empty",
			code: nil,
		},
		{
			name: "unaligned",
			code: make([]byte, 12),
		},
		{
			name: "unknown opcode",
			code: mustBytes(Insn{Op: 0xff}, Insn{Op: OpExit}),
			want: "unknown opcode",
		},
		{
			name: "write to frame pointer",
			code: mustBytes(Insn{Op: OpMovImm, Dst: 10, Imm: 1}, Insn{Op: OpExit}),
			want: "frame pointer",
		},
		{
			name: "register out of range",
			code: mustBytes(Insn{Op: OpMovReg, Dst: 3, Src: 12}, Insn{Op: OpExit}),
			want: "register out of range",
		},
		{
			name: "jump out of range",
			code: mustBytes(Insn{Op: OpJa, Off: 5}, Insn{Op: OpExit}),
			want: "jump target",
		},
		{
			name: "jump into lddw continuation",
			code: mustBytes(
				Insn{Op: OpJa, Off: 1},
				Insn{Op: OpLddw, Dst: 1},
				Insn{},
				Insn{Op: OpExit},
			),
			want: "continuation",
		},
		{
			name: "truncated lddw",
			code: mustBytes(Insn{Op: OpLddw, Dst: 1}),
			want: "continuation",
		},
		{
			name: "division by zero immediate",
			code: mustBytes(Insn{Op: OpDivImm, Dst: 1, Imm: 0}, Insn{Op: OpExit}),
			want: "division by zero",
		},
		{
			name: "unknown helper",
			code: mustBytes(Insn{Op: OpCall, Imm: 99}, Insn{Op: OpExit}),
			want: "unknown helper",
		},
		{
			name: "missing exit",
			code: mustBytes(Insn{Op: OpMovImm, Dst: 1, Imm: 1}),
			want: "end with exit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.code)
			if err == nil {
				t.Fatal("load succeeded")
			}
			if tt.want == "" {
				if !errors.Is(err, ErrTruncatedProgram) {
					t.Fatalf("err = %v, want ErrTruncatedProgram", err)
				}
				return
			}
			var verr *VerifyError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want VerifyError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestVerifyAcceptsBackwardJaTerminator(t *testing.T) {
	// A loop program with no reachable exit is structurally legal; the
	// compute budget bounds it at run time.
	code := mustBytes(
		Insn{Op: OpMovImm, Dst: 6, Imm: 0},
		Insn{Op: OpJa, Off: -2},
	)
	if _, err := Load(code); err != nil {
		t.Fatal(err)
	}
}

func TestVerifyAcceptsStoreThroughFramePointer(t *testing.T) {
	code := mustBytes(
		Insn{Op: OpStxdw, Dst: 10, Off: -8, Src: 1},
		Insn{Op: OpExit},
	)
	if _, err := Load(code); err != nil {
		t.Fatal(err)
	}
}
