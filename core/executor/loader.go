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

package executor

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"runtime"
	"strings"

	"github.com/edsrzf/mmap-go"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru"

	"github.com/propamm/go-propamm/core/vm"
)

// Symbol names a submission library must export. SwapSymbol is mandatory;
// a missing AfterSwapSymbol is tolerated and treated as a no-op hook.
const (
	SwapSymbol      = "ComputeSwap"
	AfterSwapSymbol = "AfterSwap"
)

var (
	// ErrNoLibrary is returned when artifact discovery finds nothing.
	ErrNoLibrary = errors.New("executor: no strategy artifact found")

	// ErrMissingSwapSymbol is returned when a native library lacks the
	// mandatory swap entry point.
	ErrMissingSwapSymbol = errors.New("executor: missing " + SwapSymbol + " symbol")
)

// programCacheSize bounds the verified-program cache. Batch runs load one or
// two artifacts; the cache exists so repeated runs skip re-verification.
const programCacheSize = 16

// programCache maps content hashes to verified programs. Programs are
// immutable, so sharing cache hits across runs is safe.
var programCache, _ = lru.New(programCacheSize)

// NativeLibrary is a loaded submission plugin.
type NativeLibrary struct {
	Swap      SwapFn
	AfterSwap AfterSwapFn // nil when the library does not export the hook
}

// OpenNativeLibrary loads a Go plugin and resolves the strategy entry
// points. The plugin stays loaded for the process lifetime; there is no
// unload, so resolved functions remain valid everywhere they are copied.
func OpenNativeLibrary(path string) (*NativeLibrary, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("executor: loading %s: %w", path, err)
	}

	sym, err := p.Lookup(SwapSymbol)
	if err != nil {
		return nil, fmt.Errorf("%w in %s", ErrMissingSwapSymbol, path)
	}
	swap, ok := sym.(func([]byte) uint64)
	if !ok {
		return nil, fmt.Errorf("executor: %s in %s has type %T, want func([]byte) uint64", SwapSymbol, path, sym)
	}

	lib := &NativeLibrary{Swap: swap}
	if sym, err := p.Lookup(AfterSwapSymbol); err == nil {
		after, ok := sym.(func([]byte, []byte))
		if !ok {
			return nil, fmt.Errorf("executor: %s in %s has type %T, want func([]byte, []byte)", AfterSwapSymbol, path, sym)
		}
		lib.AfterSwap = after
	} else {
		log.Debug("Strategy library has no after-swap hook", "path", path)
	}
	return lib, nil
}

// LoadBpfObject maps a strategy object file and loads its bytecode through
// the verifier. Verified programs are cached by content hash.
func LoadBpfObject(path string) (*vm.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("executor: opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("executor: mapping %s: %w", path, err)
	}
	defer data.Unmap()

	key := sha256.Sum256(data)
	if cached, ok := programCache.Get(key); ok {
		log.Debug("Loaded cached strategy program", "path", path)
		return cached.(*vm.Program), nil
	}

	program, err := vm.LoadELF(data)
	if err != nil {
		return nil, fmt.Errorf("executor: loading %s: %w", path, err)
	}
	programCache.Add(key, program)
	log.Info("Loaded strategy program", "path", path, "insns", program.Len(), "compiled", program.Compiled())
	return program, nil
}

// FindNativeLibrary locates the submission's native artifact under
// <crate>/target/release/lib*.so (lib*.dylib on macOS), returning the first
// match.
func FindNativeLibrary(cratePath string) (string, error) {
	ext := ".so"
	if runtime.GOOS == "darwin" {
		ext = ".dylib"
	}
	dir := filepath.Join(cratePath, "target", "release")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s (build the submission first)", ErrNoLibrary, dir)
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "lib") && strings.HasSuffix(name, ext) {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("%w: %s (build the submission first)", ErrNoLibrary, dir)
}

// FindBpfObject locates the submission's sandboxed artifact under
// <crate>/target/deploy/*.so, returning the first match.
func FindBpfObject(cratePath string) (string, error) {
	dir := filepath.Join(cratePath, "target", "deploy")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s (build the submission first)", ErrNoLibrary, dir)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".so") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("%w: %s (build the submission first)", ErrNoLibrary, dir)
}
