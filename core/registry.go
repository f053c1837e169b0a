package core

import (
	"errors"

	"github.com/eapache/queue"
)

const (
	rootSlot int32 = 0
	noSlot   int32 = -1
)

// node is one arena slot. Links are slot indices, so a freed slot can never
// be reached through a dangling pointer; the generation counter catches
// stale handles held by callers.
type node struct {
	fiber          *Fiber
	ownsFiber      bool
	pendingRemoval bool
	reason         string // why pendingRemoval was set
	live           bool
	gen            uint32
	prev           int32
	next           int32
}

// registry keeps every live fiber in a circular order anchored at the root
// slot. Freed slots are recycled in FIFO order.
type registry struct {
	nodes []node
	free  *queue.Queue
	tail  int32
	count int
	limit int
}

var (
	errArenaFull  = errors.New("fiber arena full")
	errRootUnlink = errors.New("root fiber cannot be removed")
)

func newRegistry(root *Fiber, limit int) *registry {
	r := &registry{
		nodes: make([]node, 1, 16),
		free:  queue.New(),
		tail:  rootSlot,
		limit: limit,
	}
	r.nodes[rootSlot] = node{fiber: root, live: true, prev: rootSlot, next: rootSlot}
	root.slot = rootSlot
	return r
}

// reserve hands out a slot for a fiber that is about to be registered.
// An unused reservation must be given back with cancel before the scheduler
// lock is released.
func (r *registry) reserve() (int32, error) {
	if r.limit > 0 && r.count >= r.limit {
		return noSlot, errArenaFull
	}
	if r.free.Length() > 0 {
		return r.free.Remove().(int32), nil
	}
	r.nodes = append(r.nodes, node{prev: noSlot, next: noSlot})
	return int32(len(r.nodes) - 1), nil
}

func (r *registry) cancel(slot int32) {
	r.free.Add(slot)
}

// register appends the fiber at the tail of the order.
func (r *registry) register(slot int32, f *Fiber, owns bool) {
	n := &r.nodes[slot]
	n.fiber = f
	n.ownsFiber = owns
	n.pendingRemoval = false
	n.reason = ""
	n.live = true
	n.prev = r.tail
	n.next = rootSlot

	r.nodes[r.tail].next = slot
	r.nodes[rootSlot].prev = slot
	r.tail = slot
	r.count++

	f.slot = slot
	f.gen = n.gen
}

// unlink removes slot from the order and recycles it. Callers make sure the
// slot is not the current one.
func (r *registry) unlink(slot int32) error {
	if slot == rootSlot {
		return errRootUnlink
	}
	n := &r.nodes[slot]
	if !n.live {
		return ErrContextMissing
	}

	r.nodes[n.prev].next = n.next
	r.nodes[n.next].prev = n.prev
	if r.tail == slot {
		r.tail = n.prev
	}

	n.fiber = nil
	n.ownsFiber = false
	n.pendingRemoval = false
	n.reason = ""
	n.live = false
	n.gen++
	n.prev = noSlot
	n.next = noSlot
	r.count--
	r.free.Add(slot)
	return nil
}

// nextAfter returns the slot following slot, skipping the root. It returns
// noSlot when slot is the only non-root fiber left.
func (r *registry) nextAfter(slot int32) int32 {
	next := r.nodes[slot].next
	if next == rootSlot {
		next = r.nodes[rootSlot].next
	}
	if next == slot || next == rootSlot {
		return noSlot
	}
	return next
}

// first returns the first non-root slot, or noSlot if there is none.
func (r *registry) first() int32 {
	next := r.nodes[rootSlot].next
	if next == rootSlot {
		return noSlot
	}
	return next
}

// lookup resolves a fiber handle to its slot.
func (r *registry) lookup(f *Fiber) (int32, bool) {
	if f == nil || f.slot <= rootSlot || int(f.slot) >= len(r.nodes) {
		return noSlot, false
	}
	n := &r.nodes[f.slot]
	if !n.live || n.gen != f.gen || n.fiber != f {
		return noSlot, false
	}
	return f.slot, true
}

func (r *registry) node(slot int32) *node {
	return &r.nodes[slot]
}

// each visits the non-root fibers in scheduling order.
func (r *registry) each(fn func(slot int32, n *node)) {
	for slot := r.nodes[rootSlot].next; slot != rootSlot; slot = r.nodes[slot].next {
		fn(slot, &r.nodes[slot])
	}
}

func (r *registry) len() int {
	return r.count
}
