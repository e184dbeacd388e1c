package recording

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"unsafe"
)

var errOutOfMemory = errors.New("native allocation failed")

// cheap holds data the engine keeps pointers to across calls: the join
// arguments and the recording config. It lives outside the Go heap, so it
// stays valid however long the engine holds on to it. A Recorder dropped
// without Release leaks it along with the engine.
type cheap struct {
	ptrs []uintptr
}

func (c *cheap) alloc(size uintptr) (uintptr, error) {
	if size == 0 {
		size = 1
	}
	p := cAlloc(size)
	if p == 0 {
		return 0, errOutOfMemory
	}
	c.ptrs = append(c.ptrs, p)
	return p, nil
}

// add copies s into a NUL-terminated block.
func (c *cheap) add(s string) (uintptr, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidText, s)
	}
	p, err := c.alloc(uintptr(len(s) + 1))
	if err != nil {
		return 0, err
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(p)), len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return p, nil
}

func (c *cheap) optional(s string) (uintptr, error) {
	if s == "" {
		return 0, nil
	}
	return c.add(s)
}

// config copies n into a block of its own.
func (c *cheap) config(n *nativeConfig) (uintptr, error) {
	p, err := c.alloc(unsafe.Sizeof(*n))
	if err != nil {
		return 0, err
	}
	*(*nativeConfig)(unsafe.Pointer(p)) = *n
	return p, nil
}

// free returns every block. The engine must be gone by then.
func (c *cheap) free() {
	for _, p := range c.ptrs {
		cFree(p)
	}
	c.ptrs = nil
}

// goHeap backs cAlloc where no C allocator is reachable. Blocks are pinned
// and referenced from here until goFree, so they never move or get collected.
var goHeap struct {
	sync.Mutex
	blocks map[uintptr]*goBlock
}

type goBlock struct {
	buf    []byte
	pinner runtime.Pinner
}

func goAlloc(size uintptr) uintptr {
	b := &goBlock{buf: make([]byte, size)}
	b.pinner.Pin(&b.buf[0])
	p := uintptr(unsafe.Pointer(&b.buf[0]))

	goHeap.Lock()
	defer goHeap.Unlock()
	if goHeap.blocks == nil {
		goHeap.blocks = make(map[uintptr]*goBlock)
	}
	goHeap.blocks[p] = b
	return p
}

func goFree(p uintptr) {
	goHeap.Lock()
	defer goHeap.Unlock()
	if b, ok := goHeap.blocks[p]; ok {
		b.pinner.Unpin()
		delete(goHeap.blocks, p)
	}
}
