//go:build !unix

package core

// MmapStackAllocator falls back to heap stacks on platforms without mmap.
type MmapStackAllocator struct {
	HeapStackAllocator
	mapped int
}

// NewMmapStackAllocator creates the heap-backed fallback allocator.
func NewMmapStackAllocator() *MmapStackAllocator {
	return &MmapStackAllocator{}
}

// Mapped always reports zero on this platform.
func (a *MmapStackAllocator) Mapped() int {
	return a.mapped
}
