package core

import (
	"fmt"
	"sync"
	"time"
)

// Removal reasons reported to Metrics and the switch history.
const (
	reasonExit   = "exit"
	reasonReturn = "return"
	reasonPanic  = "panic"
	reasonYield  = "yield"
	reasonStart  = "start"
)

// Scheduler runs fibers cooperatively in strict round-robin order.
//
// The goroutine that calls Start becomes the broker: it hands the baton to
// one fiber at a time and gets it back whenever that fiber yields, exits or
// returns. Exactly one of the broker and the fibers runs at any moment, so
// state shared between fibers only changes at Yield points.
//
// A Scheduler initializes itself lazily on the first call to any method.
type Scheduler struct {
	config *SchedulerConfig

	initOnce sync.Once
	initErr  error
	cfg      SchedulerConfig

	mu         sync.Mutex
	root       *Fiber
	rootCtx    *execContext
	reg        *registry
	current    int32
	running    bool
	handback   string
	sliceStart time.Time

	created  uint64
	removed  uint64
	switches uint64
	panics   uint64
	history  *switchHistory
}

// NewScheduler creates a Scheduler. A nil config selects
// DefaultSchedulerConfig; unset fields of a non-nil config fall back to the
// same defaults. The config is copied.
func NewScheduler(config *SchedulerConfig) *Scheduler {
	s := &Scheduler{current: noSlot}
	if config != nil {
		c := *config
		s.config = &c
	}
	return s
}

func (s *Scheduler) init() error {
	s.initOnce.Do(func() {
		cfg, err := s.config.resolve()
		if err != nil {
			s.initErr = opError("init", 0, fmt.Errorf("%w: %v", ErrSchedulerInit, err))
			return
		}
		s.cfg = cfg
		s.rootCtx = newRootContext()
		s.root = &Fiber{sched: s, ctx: s.rootCtx, state: FiberRunning}
		s.reg = newRegistry(s.root, cfg.MaxFibers)
		s.history = newSwitchHistory(cfg.HistoryCapacity)
		s.cfg.Logger.Debug("scheduler initialized", F("scheduler", cfg.Name))
	})
	return s.initErr
}

// Name returns the configured scheduler name.
func (s *Scheduler) Name() string {
	if s.init() != nil {
		return ""
	}
	return s.cfg.Name
}

// Create registers a new dormant fiber that will run entry.
//
// If f is nil the scheduler allocates the Fiber and owns it; a caller
// supplied Fiber keeps its non-zero ID unless attr.ID overrides it. A Fiber
// stays bound to the first scheduler that accepted it and can only be
// created again there, after it was removed. On failure nothing is
// registered and every partial allocation is released.
func (s *Scheduler) Create(f *Fiber, attr *Attributes, entry func()) (*Fiber, error) {
	if err := s.init(); err != nil {
		return nil, err
	}
	if attr == nil {
		attr = &Attributes{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if f != nil && f.sched != nil {
		if f.sched != s {
			return nil, opError("create", f.ID, fmt.Errorf("%w: fiber belongs to another scheduler", ErrContextBuild))
		}
		if f.state != FiberRemoved {
			return nil, opError("create", f.ID, fmt.Errorf("%w: fiber already registered", ErrContextBuild))
		}
	}

	slot, err := s.reg.reserve()
	if err != nil {
		return nil, opError("create", 0, fmt.Errorf("%w: %v", ErrFiberAlloc, err))
	}

	owns := f == nil
	id := attr.ID
	if id == 0 && f != nil {
		id = f.ID
	}
	if id < 0 {
		s.reg.cancel(slot)
		return nil, opError("create", id, fmt.Errorf("%w: negative id", ErrFiberAlloc))
	}
	if id == 0 {
		id = newFiberID(s.cfg.IDSource)
	}

	size := attr.StackSize
	if size == 0 {
		size = s.cfg.DefaultStackSize
	}
	if size < 0 || size > s.cfg.MaxStackSize {
		s.reg.cancel(slot)
		return nil, opError("create", id, fmt.Errorf("%w: size %d out of range", ErrStackAlloc, size))
	}
	stack, err := s.cfg.StackAllocator.Allocate(size)
	if err != nil {
		s.reg.cancel(slot)
		return nil, opError("create", id, fmt.Errorf("%w: %v", ErrStackAlloc, err))
	}

	if owns {
		f = &Fiber{}
	}
	target := f
	ctx, err := buildContext(stack, s.cfg.StackAllocator, entry, s.rootCtx)
	if err != nil {
		if relErr := s.cfg.StackAllocator.Release(stack); relErr != nil {
			s.cfg.Logger.Warn("stack release failed during rollback", F("fiber", id), F("error", relErr))
		}
		s.reg.cancel(slot)
		return nil, opError("create", id, fmt.Errorf("%w: %v", ErrContextBuild, err))
	}
	ctx.onReturn = func() { s.fiberReturned(target) }
	ctx.onPanic = func(rec any, trace []byte) { s.fiberPanicked(target, rec, trace) }

	f.ID = id
	f.sched = s
	f.ctx = ctx
	f.state = FiberCreated
	if s.running {
		f.state = FiberReady
	}
	s.reg.register(slot, f, owns)
	s.created++

	s.cfg.Metrics.RecordFiberCreated(s.cfg.Name)
	s.cfg.Metrics.RecordLiveFibers(s.cfg.Name, s.reg.len())
	s.cfg.Logger.Debug("fiber created", F("fiber", id), F("stack_size", size), F("owned", owns))
	return f, nil
}

// StartFirst starts scheduling with the first registered fiber.
func (s *Scheduler) StartFirst() error {
	return s.Start(nil)
}

// Start hands control to f (or to the first registered fiber if f is nil)
// and runs the broker on the calling goroutine. It returns nil once no
// runnable fiber remains.
func (s *Scheduler) Start(f *Fiber) error {
	if err := s.init(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.cfg.Logger.Warn("start called while scheduler is running")
		return opError("start", 0, ErrInvalidSwitch)
	}

	slot := noSlot
	if f == nil || f == s.root {
		slot = s.reg.first()
		if slot == noSlot {
			s.mu.Unlock()
			return opError("start", 0, ErrNoFiber)
		}
	} else {
		var ok bool
		if slot, ok = s.reg.lookup(f); !ok {
			s.mu.Unlock()
			return opError("start", f.ID, ErrContextMissing)
		}
	}

	target := s.reg.node(slot).fiber
	if target.ctx == nil {
		s.mu.Unlock()
		return opError("start", target.ID, ErrContextMissing)
	}

	s.reg.each(func(_ int32, n *node) {
		if n.fiber.state == FiberCreated {
			n.fiber.state = FiberReady
		}
	})
	s.current = slot
	s.running = true
	target.state = FiberRunning
	s.noteSwitch(0, target.ID, reasonStart)
	s.mu.Unlock()

	s.cfg.Metrics.RecordContextSwitch(s.cfg.Name, reasonStart)
	s.cfg.Logger.Debug("starting fibers", F("scheduler", s.cfg.Name), F("first", target.ID))

	if err := s.rootCtx.switchTo(target.ctx); err != nil {
		s.mu.Lock()
		s.current = noSlot
		s.running = false
		target.state = FiberReady
		s.mu.Unlock()
		return opError("start", target.ID, err)
	}

	s.broker()
	return nil
}

// broker runs every time the baton comes back to the root context. Each
// iteration is one broker entry: pick the successor, make it current,
// reclaim the fiber that just left if it asked to go, then hand over.
func (s *Scheduler) broker() {
	for {
		s.mu.Lock()
		from := s.current
		fromNode := s.reg.node(from)
		fromID := fromNode.fiber.ID
		kind := s.handback
		slice := time.Since(s.sliceStart)

		to := s.reg.nextAfter(from)
		if to == noSlot && !fromNode.pendingRemoval {
			// Sole remaining fiber yielded; it is still runnable.
			to = from
		}
		s.current = to

		if fromNode.pendingRemoval {
			s.remove(from)
		} else if to != from {
			fromNode.fiber.state = FiberSuspended
		}

		if to == noSlot {
			s.running = false
			s.handback = ""
			s.mu.Unlock()
			s.cfg.Metrics.RecordSliceDuration(s.cfg.Name, slice)
			s.cfg.Logger.Debug("no runnable fiber left", F("scheduler", s.cfg.Name))
			return
		}

		target := s.reg.node(to).fiber
		target.state = FiberRunning
		s.noteSwitch(fromID, target.ID, kind)
		s.mu.Unlock()

		s.cfg.Metrics.RecordSliceDuration(s.cfg.Name, slice)
		s.cfg.Metrics.RecordContextSwitch(s.cfg.Name, kind)
		s.cfg.Logger.Debug("switching fibers", F("from", fromID), F("to", target.ID), F("reason", kind))

		if err := s.rootCtx.switchTo(target.ctx); err != nil {
			s.abort(target, err)
			return
		}
	}
}

// abort ends the broker loop after a failed handoff. Nothing is left to
// report to: Start's caller only sees that scheduling stopped.
func (s *Scheduler) abort(target *Fiber, err error) {
	s.mu.Lock()
	s.current = noSlot
	s.running = false
	s.handback = ""
	s.mu.Unlock()
	s.cfg.Logger.Error("context switch failed, stopping broker", F("fiber", target.ID), F("error", err))
}

// noteSwitch must be called with s.mu held.
func (s *Scheduler) noteSwitch(from, to int64, reason string) {
	s.switches++
	s.sliceStart = time.Now()
	s.handback = ""
	s.history.Add(SwitchRecord{From: from, To: to, Reason: reason, At: s.sliceStart})
}

// remove reclaims a fiber that has left the CPU for good. It must be called
// with s.mu held and never for the current fiber, whose stack may still be
// in use.
func (s *Scheduler) remove(slot int32) error {
	if slot == s.current {
		n := s.reg.node(slot)
		s.cfg.Logger.Warn("refusing to remove the current fiber; call Exit and return instead",
			F("fiber", n.fiber.ID))
		return ErrInvalidSwitch
	}

	n := s.reg.node(slot)
	f := n.fiber
	owns := n.ownsFiber
	reason := n.reason
	id := f.ID

	if err := s.reg.unlink(slot); err != nil {
		return err
	}
	if err := f.ctx.destroy(); err != nil {
		s.cfg.Logger.Warn("stack release failed", F("fiber", id), F("error", err))
	}

	f.ctx = nil
	f.state = FiberRemoved
	if owns {
		f.ID = 0
	}
	s.removed++

	s.cfg.Metrics.RecordFiberRemoved(s.cfg.Name, reason)
	s.cfg.Metrics.RecordLiveFibers(s.cfg.Name, s.reg.len())
	s.cfg.Logger.Debug("fiber removed", F("fiber", id), F("reason", reason))
	return nil
}

// Yield suspends the calling fiber and lets the broker run the next one.
// It returns when the caller is scheduled again.
//
// If the caller is the only registered fiber it is resumed immediately.
// The plain broker step would find no successor and end scheduling with
// the fiber still unfinished; resuming it instead lets every fiber run to
// completion.
func (s *Scheduler) Yield() error {
	if err := s.init(); err != nil {
		return err
	}

	s.mu.Lock()
	if !s.running || s.current == noSlot {
		s.mu.Unlock()
		s.cfg.Logger.Warn("yield called outside a fiber")
		return opError("yield", 0, ErrInvalidSwitch)
	}
	n := s.reg.node(s.current)
	f := n.fiber
	if n.pendingRemoval {
		s.mu.Unlock()
		s.cfg.Logger.Warn("yield called after exit", F("fiber", f.ID))
		return opError("yield", f.ID, ErrInvalidSwitch)
	}
	s.handback = reasonYield
	s.mu.Unlock()

	if err := f.ctx.swap(s.rootCtx); err != nil {
		return opError("yield", f.ID, err)
	}
	return nil
}

// Exit marks the calling fiber for removal. It does not switch; the entry
// function must return right after calling it.
func (s *Scheduler) Exit() error {
	if err := s.init(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.current == noSlot {
		s.cfg.Logger.Warn("exit called outside a fiber")
		return opError("exit", 0, ErrInvalidSwitch)
	}
	n := s.reg.node(s.current)
	if !n.pendingRemoval {
		n.pendingRemoval = true
		n.reason = reasonExit
	}
	n.fiber.state = FiberExiting
	return nil
}

// fiberReturned runs on the fiber's goroutine after its entry function
// returned; a return without Exit is an implicit exit.
func (s *Scheduler) fiberReturned(f *Fiber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.reg.lookup(f)
	if !ok {
		return
	}
	n := s.reg.node(slot)
	if !n.pendingRemoval {
		n.pendingRemoval = true
		n.reason = reasonReturn
	}
	f.state = FiberExiting
	s.handback = reasonReturn
}

func (s *Scheduler) fiberPanicked(f *Fiber, rec any, trace []byte) {
	s.mu.Lock()
	id := f.ID
	if slot, ok := s.reg.lookup(f); ok {
		n := s.reg.node(slot)
		n.pendingRemoval = true
		n.reason = reasonPanic
	}
	s.panics++
	s.mu.Unlock()

	s.cfg.Logger.Error("fiber panicked", F("fiber", id), F("panic", rec))
	s.cfg.Metrics.RecordFiberPanic(s.cfg.Name, rec)
	s.cfg.PanicHandler.HandlePanic(s.cfg.Name, id, rec, trace)
}

// Current returns the running fiber, or nil outside of scheduling.
func (s *Scheduler) Current() *Fiber {
	if s.init() != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == noSlot {
		return nil
	}
	return s.reg.node(s.current).fiber
}

// Running reports whether a Start call is in progress.
func (s *Scheduler) Running() bool {
	if s.init() != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Len returns the number of registered fibers, excluding the root.
func (s *Scheduler) Len() int {
	if s.init() != nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.len()
}

// Fibers returns the registered fibers in scheduling order.
func (s *Scheduler) Fibers() []FiberInfo {
	if s.init() != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]FiberInfo, 0, s.reg.len())
	s.reg.each(func(_ int32, n *node) {
		out = append(out, FiberInfo{
			ID:             n.fiber.ID,
			State:          n.fiber.state,
			StackSize:      n.fiber.ctx.stack.Size(),
			PendingRemoval: n.pendingRemoval,
			OwnedByRuntime: n.ownsFiber,
		})
	})
	return out
}

// Stats returns a snapshot of the scheduler's state.
func (s *Scheduler) Stats() SchedulerStats {
	if s.init() != nil {
		return SchedulerStats{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := SchedulerStats{
		Name:     s.cfg.Name,
		Live:     s.reg.len(),
		Running:  s.running,
		Created:  s.created,
		Removed:  s.removed,
		Switches: s.switches,
		Panics:   s.panics,
	}
	if s.current != noSlot {
		stats.CurrentID = s.reg.node(s.current).fiber.ID
	}
	s.reg.each(func(_ int32, n *node) {
		if n.pendingRemoval {
			stats.PendingRemoval++
		}
	})
	return stats
}

// RecentSwitches returns up to limit handoffs, newest first.
func (s *Scheduler) RecentSwitches(limit int) []SwitchRecord {
	if s.init() != nil {
		return nil
	}
	return s.history.Recent(limit)
}
