package soft

import (
	"sort"

	"github.com/fietser28/studio/engine"
)

const (
	heapAlign = 8
	// DefaultHeapLimit caps the simulated linear memory.
	DefaultHeapLimit = 64 << 20
)

type span struct {
	addr, size int
}

// heap is a first-fit allocator over a growable byte slice. Address 0 is
// never handed out.
type heap struct {
	mem   []byte
	limit int
	top   int
	// live maps an allocation to its requested and reserved sizes.
	live     map[engine.Ptr][2]int
	free     []span
	badFrees int
}

func newHeap(limit int) *heap {
	return &heap{
		mem:   make([]byte, heapAlign, 1<<20),
		limit: limit,
		top:   heapAlign,
		live:  make(map[engine.Ptr][2]int),
	}
}

func alignUp(n int) int {
	return (n + heapAlign - 1) &^ (heapAlign - 1)
}

func (h *heap) malloc(size int) engine.Ptr {
	if size <= 0 {
		return 0
	}
	n := alignUp(size)
	for i, s := range h.free {
		if s.size < n {
			continue
		}
		addr := s.addr
		if s.size == n {
			h.free = append(h.free[:i], h.free[i+1:]...)
		} else {
			h.free[i] = span{addr: s.addr + n, size: s.size - n}
		}
		clear(h.mem[addr : addr+n])
		h.live[engine.Ptr(addr)] = [2]int{size, n}
		return engine.Ptr(addr)
	}
	if h.top+n > h.limit {
		return 0
	}
	addr := h.top
	h.top += n
	if h.top > len(h.mem) {
		h.mem = append(h.mem, make([]byte, h.top-len(h.mem))...)
	}
	h.live[engine.Ptr(addr)] = [2]int{size, n}
	return engine.Ptr(addr)
}

func (h *heap) release(p engine.Ptr) {
	if p == 0 {
		return
	}
	sz, ok := h.live[p]
	if !ok {
		h.badFrees++
		return
	}
	delete(h.live, p)
	h.insertFree(span{addr: int(p), size: sz[1]})
}

func (h *heap) insertFree(s span) {
	i := sort.Search(len(h.free), func(i int) bool { return h.free[i].addr > s.addr })
	h.free = append(h.free, span{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = s

	// merge with the right neighbour, then the left one
	if i+1 < len(h.free) && h.free[i].addr+h.free[i].size == h.free[i+1].addr {
		h.free[i].size += h.free[i+1].size
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}
	if i > 0 && h.free[i-1].addr+h.free[i-1].size == h.free[i].addr {
		h.free[i-1].size += h.free[i].size
		h.free = append(h.free[:i], h.free[i+1:]...)
	}
}

// size returns the requested size of a live allocation, or -1.
func (h *heap) size(p engine.Ptr) int {
	if sz, ok := h.live[p]; ok {
		return sz[0]
	}
	return -1
}

func (h *heap) bytes(p engine.Ptr) []byte {
	n := h.size(p)
	if n < 0 {
		return nil
	}
	return h.mem[int(p) : int(p)+n]
}

func (h *heap) cString(p engine.Ptr) string {
	if p == 0 || int(p) >= len(h.mem) {
		return ""
	}
	end := int(p)
	for end < len(h.mem) && h.mem[end] != 0 {
		end++
	}
	return string(h.mem[int(p):end])
}
