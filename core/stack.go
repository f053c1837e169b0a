package core

import (
	"errors"
	"fmt"
)

// DefaultStackSize is used when a fiber is created without an explicit stack size.
const DefaultStackSize = 16384

// Stack is the dedicated memory region owned by one execution context.
// The fiber running on the context may use it as scratch memory; it is
// wiped before being handed back to its allocator.
type Stack struct {
	buf    []byte
	region []byte // full backing allocation, including any guard area
}

// NewStack wraps buf as a Stack. Custom StackAllocator implementations use it
// to hand out memory they manage themselves.
func NewStack(buf []byte) *Stack {
	return &Stack{buf: buf, region: buf}
}

// Bytes returns the usable stack region.
func (s *Stack) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.buf
}

// Size returns the usable size in bytes.
func (s *Stack) Size() int {
	if s == nil {
		return 0
	}
	return len(s.buf)
}

func (s *Stack) wipe() {
	if s == nil {
		return
	}
	clear(s.buf)
}

// StackAllocator obtains and releases stack regions for execution contexts.
//
// Implementations should be safe for concurrent use if they are shared
// between schedulers.
type StackAllocator interface {
	Allocate(size int) (*Stack, error)
	Release(stack *Stack) error
}

var errStackReleased = errors.New("stack already released")

// HeapStackAllocator allocates stacks from the Go heap.
type HeapStackAllocator struct{}

// NewHeapStackAllocator creates a HeapStackAllocator.
func NewHeapStackAllocator() *HeapStackAllocator {
	return &HeapStackAllocator{}
}

// Allocate returns a zeroed stack of size bytes.
func (a *HeapStackAllocator) Allocate(size int) (*Stack, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid stack size %d", size)
	}
	return NewStack(make([]byte, size)), nil
}

// Release drops the reference to the stack memory. The bytes themselves
// stay reachable by anyone still holding the slice, so callers wipe first.
func (a *HeapStackAllocator) Release(stack *Stack) error {
	if stack == nil || stack.region == nil {
		return errStackReleased
	}
	stack.buf = nil
	stack.region = nil
	return nil
}
