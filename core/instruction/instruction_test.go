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

package instruction

import (
	"bytes"
	"testing"
)

func TestSwapRequestLayout(t *testing.T) {
	r := SwapRequest{Side: SideSellX, Input: 0x0102030405060708, ReserveX: 1, ReserveY: 2}
	buf := r.Encode()
	if len(buf) != SwapRequestSize {
		t.Fatalf("encoded size = %d, want %d", len(buf), SwapRequestSize)
	}
	if buf[0] != SideSellX {
		t.Fatalf("side byte = %d", buf[0])
	}
	// Little-endian: least significant byte of the input comes first.
	if buf[1] != 0x08 || buf[8] != 0x01 {
		t.Fatalf("input not little-endian: % x", buf[1:9])
	}

	got, err := DecodeSwapRequest(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != r {
		t.Fatalf("round trip mismatch: %+v != %+v", got, r)
	}
}

func TestAfterSwapRequestLayout(t *testing.T) {
	r := AfterSwapRequest{Side: SideBuyX, Input: 10, Output: 20, ReserveX: 30, ReserveY: 40}
	buf := r.Encode()
	if len(buf) != AfterSwapRequestSize {
		t.Fatalf("encoded size = %d, want %d", len(buf), AfterSwapRequestSize)
	}
	if !bytes.Equal(buf[33:41], make([]byte, 8)) {
		t.Fatalf("reserved word not zero: % x", buf[33:41])
	}
	got, err := DecodeAfterSwapRequest(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != r {
		t.Fatalf("round trip mismatch: %+v != %+v", got, r)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := DecodeSwapRequest(make([]byte, SwapRequestSize-1)); err != ErrShortBuffer {
		t.Fatalf("short swap buffer: err = %v", err)
	}
	if _, err := DecodeAfterSwapRequest(make([]byte, AfterSwapRequestSize-1)); err != ErrShortBuffer {
		t.Fatalf("short after-swap buffer: err = %v", err)
	}

	bad := (&SwapRequest{Side: 2}).Encode()
	if _, err := DecodeSwapRequest(bad); err != ErrBadSide {
		t.Fatalf("bad side: err = %v", err)
	}
}
