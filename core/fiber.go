package core

// FiberState is the lifecycle state of a fiber.
type FiberState int

const (
	// FiberCreated: registered, context built, never run.
	FiberCreated FiberState = iota
	// FiberReady: waiting for its first turn after Start selected another fiber.
	FiberReady
	// FiberRunning: holds the baton.
	FiberRunning
	// FiberSuspended: yielded and waiting to be resumed.
	FiberSuspended
	// FiberExiting: flagged for removal, not yet reclaimed.
	FiberExiting
	// FiberRemoved: unlinked and its stack released.
	FiberRemoved
)

func (s FiberState) String() string {
	switch s {
	case FiberCreated:
		return "created"
	case FiberReady:
		return "ready"
	case FiberRunning:
		return "running"
	case FiberSuspended:
		return "suspended"
	case FiberExiting:
		return "exiting"
	case FiberRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Attributes configures a new fiber. The zero value selects the defaults.
type Attributes struct {
	// StackSize is the size of the fiber's stack region. 0 selects the
	// scheduler's default.
	StackSize int

	// ID is the identifier for the new fiber. 0 keeps the fiber's own ID if
	// it has one, otherwise a random one is generated.
	ID int64
}

// Fiber is a cooperatively scheduled logical thread of execution.
//
// A caller may allocate a Fiber and pass it to Create (optionally with ID
// preset), or pass nil and let the scheduler allocate one.
type Fiber struct {
	// ID is unique among live fibers and never 0 once created.
	ID int64

	// sched is set by the first successful Create and never cleared, so
	// State and Stack can always lock it.
	sched *Scheduler
	slot  int32
	gen   uint32
	ctx   *execContext
	state FiberState
}

// State returns the fiber's lifecycle state. It is safe to call from any
// goroutine once Create has returned.
func (f *Fiber) State() FiberState {
	if f.sched == nil {
		return f.state
	}
	f.sched.mu.Lock()
	defer f.sched.mu.Unlock()
	return f.state
}

// Stack returns the fiber's dedicated stack region. It is only valid until
// the fiber is reclaimed, after which it is wiped and nil is returned.
func (f *Fiber) Stack() []byte {
	if f.sched != nil {
		f.sched.mu.Lock()
		defer f.sched.mu.Unlock()
	}
	if f.ctx == nil || f.ctx.destroyed {
		return nil
	}
	return f.ctx.stack.Bytes()
}

// FiberInfo is a point-in-time view of one registered fiber.
type FiberInfo struct {
	ID             int64
	State          FiberState
	StackSize      int
	PendingRemoval bool
	OwnedByRuntime bool
}
