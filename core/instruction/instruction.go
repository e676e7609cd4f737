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

// Package instruction defines the wire layout of the swap call contract.
// Both executor backends consume the exact same little-endian buffers, so
// these layouts are the ABI between the harness and strategy code.
package instruction

import (
	"encoding/binary"
	"errors"
)

const (
	// StorageSize is the fixed size of a pool's strategy scratch area.
	StorageSize = 1024

	// SwapRequestSize is the serialized size of a SwapRequest:
	// [side:1 | input:8 | reserve_x:8 | reserve_y:8].
	SwapRequestSize = 25

	// AfterSwapRequestSize is the serialized size of an AfterSwapRequest:
	// [side:1 | input:8 | output:8 | reserve_x:8 | reserve_y:8 | reserved:8].
	// The trailing word is reserved and always zero.
	AfterSwapRequestSize = 41
)

// Trade sides. Side 0 buys X with Y as input; side 1 sells X for Y.
const (
	SideBuyX  = 0
	SideSellX = 1
)

var (
	// ErrShortBuffer is returned when decoding a truncated request.
	ErrShortBuffer = errors.New("instruction: short buffer")

	// ErrBadSide is returned when the side byte is neither 0 nor 1.
	ErrBadSide = errors.New("instruction: invalid side")
)

// SwapRequest is the quote call payload. All amounts are nano-units.
type SwapRequest struct {
	Side     uint8
	Input    uint64
	ReserveX uint64
	ReserveY uint64
}

// AppendTo appends the 25-byte little-endian encoding to buf.
func (r *SwapRequest) AppendTo(buf []byte) []byte {
	buf = append(buf, r.Side)
	buf = binary.LittleEndian.AppendUint64(buf, r.Input)
	buf = binary.LittleEndian.AppendUint64(buf, r.ReserveX)
	buf = binary.LittleEndian.AppendUint64(buf, r.ReserveY)
	return buf
}

// Encode serializes the request into a fresh 25-byte buffer.
func (r *SwapRequest) Encode() []byte {
	return r.AppendTo(make([]byte, 0, SwapRequestSize))
}

// DecodeSwapRequest parses a 25-byte request buffer.
func DecodeSwapRequest(data []byte) (SwapRequest, error) {
	if len(data) < SwapRequestSize {
		return SwapRequest{}, ErrShortBuffer
	}
	r := SwapRequest{
		Side:     data[0],
		Input:    binary.LittleEndian.Uint64(data[1:9]),
		ReserveX: binary.LittleEndian.Uint64(data[9:17]),
		ReserveY: binary.LittleEndian.Uint64(data[17:25]),
	}
	if r.Side != SideBuyX && r.Side != SideSellX {
		return SwapRequest{}, ErrBadSide
	}
	return r, nil
}

// AfterSwapRequest is the post-trade hook payload. The reserves are the
// pool's reserves after the trade has been applied.
type AfterSwapRequest struct {
	Side     uint8
	Input    uint64
	Output   uint64
	ReserveX uint64
	ReserveY uint64
}

// AppendTo appends the 41-byte little-endian encoding to buf.
func (r *AfterSwapRequest) AppendTo(buf []byte) []byte {
	buf = append(buf, r.Side)
	buf = binary.LittleEndian.AppendUint64(buf, r.Input)
	buf = binary.LittleEndian.AppendUint64(buf, r.Output)
	buf = binary.LittleEndian.AppendUint64(buf, r.ReserveX)
	buf = binary.LittleEndian.AppendUint64(buf, r.ReserveY)
	buf = binary.LittleEndian.AppendUint64(buf, 0) // reserved
	return buf
}

// Encode serializes the request into a fresh 41-byte buffer.
func (r *AfterSwapRequest) Encode() []byte {
	return r.AppendTo(make([]byte, 0, AfterSwapRequestSize))
}

// DecodeAfterSwapRequest parses a 41-byte request buffer.
func DecodeAfterSwapRequest(data []byte) (AfterSwapRequest, error) {
	if len(data) < AfterSwapRequestSize {
		return AfterSwapRequest{}, ErrShortBuffer
	}
	r := AfterSwapRequest{
		Side:     data[0],
		Input:    binary.LittleEndian.Uint64(data[1:9]),
		Output:   binary.LittleEndian.Uint64(data[9:17]),
		ReserveX: binary.LittleEndian.Uint64(data[17:25]),
		ReserveY: binary.LittleEndian.Uint64(data[25:33]),
	}
	if r.Side != SideBuyX && r.Side != SideSellX {
		return AfterSwapRequest{}, ErrBadSide
	}
	return r, nil
}
