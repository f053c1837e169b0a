//go:build unix

package core

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// MmapStackAllocator maps every stack as a private anonymous region with a
// PROT_NONE guard page below it, the way native fiber libraries do.
type MmapStackAllocator struct {
	pageSize int
	mu       sync.Mutex
	mapped   int
}

// NewMmapStackAllocator creates an allocator backed by anonymous mappings.
func NewMmapStackAllocator() *MmapStackAllocator {
	return &MmapStackAllocator{pageSize: unix.Getpagesize()}
}

// Allocate maps size bytes (rounded up to whole pages) plus one guard page.
func (a *MmapStackAllocator) Allocate(size int) (*Stack, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid stack size %d", size)
	}
	usable := (size + a.pageSize - 1) / a.pageSize * a.pageSize
	region, err := unix.Mmap(-1, 0, usable+a.pageSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap stack: %w", err)
	}
	if err := unix.Mprotect(region[:a.pageSize], unix.PROT_NONE); err != nil {
		_ = unix.Munmap(region)
		return nil, fmt.Errorf("mprotect guard page: %w", err)
	}

	a.mu.Lock()
	a.mapped++
	a.mu.Unlock()

	return &Stack{buf: region[a.pageSize : a.pageSize+size], region: region}, nil
}

// Release unmaps the whole region. The stack must not be touched afterwards.
func (a *MmapStackAllocator) Release(stack *Stack) error {
	if stack == nil || stack.region == nil {
		return errStackReleased
	}
	if err := unix.Munmap(stack.region); err != nil {
		return fmt.Errorf("munmap stack: %w", err)
	}
	stack.buf = nil
	stack.region = nil

	a.mu.Lock()
	a.mapped--
	a.mu.Unlock()
	return nil
}

// Mapped returns the number of stacks currently mapped.
func (a *MmapStackAllocator) Mapped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mapped
}
