package demo

// Buffer is a fixed-size ring of items shared by producers and consumers.
// It is not synchronized: fibers only interleave at Yield, so no two of them
// touch it at once.
type Buffer struct {
	slots []int
	in    int // next empty slot
	out   int // next full slot
	full  int
}

func NewBuffer(size int) *Buffer {
	return &Buffer{slots: make([]int, size)}
}

func (b *Buffer) Full() int  { return b.full }
func (b *Buffer) Empty() int { return len(b.slots) - b.full }

// Put stores item and reports false if there is no empty slot.
func (b *Buffer) Put(item int) bool {
	if b.Empty() == 0 {
		return false
	}
	b.slots[b.in] = item
	b.in = (b.in + 1) % len(b.slots)
	b.full++
	return true
}

// Take removes the oldest item. ok is false if the buffer is empty.
func (b *Buffer) Take() (item int, ok bool) {
	if b.full == 0 {
		return 0, false
	}
	item = b.slots[b.out]
	b.slots[b.out] = 0
	b.out = (b.out + 1) % len(b.slots)
	b.full--
	return item, true
}
