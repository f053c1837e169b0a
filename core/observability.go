package core

import (
	"sync"
	"time"
)

// SchedulerStats represents runtime observability state for a scheduler.
type SchedulerStats struct {
	Name           string
	Live           int
	PendingRemoval int
	Running        bool
	CurrentID      int64
	Created        uint64
	Removed        uint64
	Switches       uint64
	Panics         uint64
}

// SwitchRecord captures one handoff made by the broker.
type SwitchRecord struct {
	From   int64
	To     int64
	Reason string
	At     time.Time
}

const defaultSwitchHistoryCapacity = 100

type switchHistory struct {
	mu    sync.Mutex
	items []SwitchRecord
	head  int
	count int
}

func newSwitchHistory(capacity int) *switchHistory {
	if capacity < 1 {
		capacity = defaultSwitchHistoryCapacity
	}
	return &switchHistory{items: make([]SwitchRecord, capacity)}
}

func (h *switchHistory) Add(record SwitchRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items[h.head] = record
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

// Recent returns up to limit records, newest first.
func (h *switchHistory) Recent(limit int) []SwitchRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}
	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	out := make([]SwitchRecord, 0, limit)
	for i := range limit {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}
