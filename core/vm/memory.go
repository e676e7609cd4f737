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

// Guest virtual addresses of the mapped regions. The layout is fixed: every
// execution sees the request buffer, the pool storage, and its stack at the
// same addresses.
const (
	// InputAddr is the base address of the request buffer (25 or 41 bytes).
	InputAddr uint64 = 0x1_0000_0000
	// StorageAddr is the base address of the 1024-byte pool storage view.
	StorageAddr uint64 = 0x2_0000_0000
	// StackAddr is the base address of the stack region; r10 points at
	// StackAddr + StackSize.
	StackAddr uint64 = 0x3_0000_0000
	// StackSize is the size of the guest stack in bytes.
	StackSize = 512
)

// ErrInvalidAccess is returned when a load or store targets an address range
// not fully covered by a mapped region, or stores to a read-only region.
var ErrInvalidAccess = errors.New("vm: invalid memory access")

// region is a single mapped guest address range.
type region struct {
	base     uint64
	data     []byte
	writable bool
	name     string
}

func (r *region) contains(addr, size uint64) bool {
	return addr >= r.base && size <= uint64(len(r.data)) && addr-r.base <= uint64(len(r.data))-size
}

// Memory is the guest address space: a small set of disjoint mapped regions
// with bounds-checked access. The zero value has nothing mapped.
type Memory struct {
	regions [3]region
}

// MapInput installs the request buffer at InputAddr (read-only).
func (m *Memory) MapInput(data []byte) {
	m.regions[0] = region{base: InputAddr, data: data, name: "input"}
}

// MapStorage installs the pool storage view at StorageAddr. The region is
// always read-only for direct stores: guest writes to storage are honored
// only through the set_storage helper.
func (m *Memory) MapStorage(data []byte) {
	m.regions[1] = region{base: StorageAddr, data: data, name: "storage"}
}

// MapStack installs the stack region (read-write).
func (m *Memory) MapStack(data []byte) {
	m.regions[2] = region{base: StackAddr, data: data, writable: true, name: "stack"}
}

// find returns the region fully covering [addr, addr+size), or an error.
func (m *Memory) find(addr, size uint64, write bool) (*region, error) {
	for i := range m.regions {
		r := &m.regions[i]
		if r.data == nil || !r.contains(addr, size) {
			continue
		}
		if write && !r.writable {
			return nil, fmt.Errorf("%w: store to read-only %s region at 0x%x", ErrInvalidAccess, r.name, addr)
		}
		return r, nil
	}
	return nil, fmt.Errorf("%w: addr=0x%x size=%d", ErrInvalidAccess, addr, size)
}

// Load reads an unsigned little-endian value of the given byte width.
func (m *Memory) Load(addr, size uint64) (uint64, error) {
	r, err := m.find(addr, size, false)
	if err != nil {
		return 0, err
	}
	d := r.data[addr-r.base:]
	switch size {
	case 1:
		return uint64(d[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(d)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(d)), nil
	case 8:
		return binary.LittleEndian.Uint64(d), nil
	}
	return 0, fmt.Errorf("%w: bad load width %d", ErrInvalidAccess, size)
}

// Store writes an unsigned little-endian value of the given byte width.
func (m *Memory) Store(addr, size, v uint64) error {
	r, err := m.find(addr, size, true)
	if err != nil {
		return err
	}
	d := r.data[addr-r.base:]
	switch size {
	case 1:
		d[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(d, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(d, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(d, v)
	default:
		return fmt.Errorf("%w: bad store width %d", ErrInvalidAccess, size)
	}
	return nil
}

// Slice returns a read-only view of guest memory, used by helper calls to
// copy data out of the guest address space.
func (m *Memory) Slice(addr, size uint64) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	r, err := m.find(addr, size, false)
	if err != nil {
		return nil, err
	}
	off := addr - r.base
	return r.data[off : off+size], nil
}
