package fiber

import "github.com/Swind/go-fiber/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the fiber package for most use cases.

// Fiber is a cooperatively scheduled logical thread of execution
type Fiber = core.Fiber

// Attributes configures a new fiber (stack size, id)
type Attributes = core.Attributes

// Scheduler owns a fiber registry and runs the round-robin broker
type Scheduler = core.Scheduler

// SchedulerConfig holds scheduler options and handlers
type SchedulerConfig = core.SchedulerConfig

// FiberState is the lifecycle state of a fiber
type FiberState = core.FiberState

// Lifecycle states
const (
	FiberCreated   = core.FiberCreated
	FiberReady     = core.FiberReady
	FiberRunning   = core.FiberRunning
	FiberSuspended = core.FiberSuspended
	FiberExiting   = core.FiberExiting
	FiberRemoved   = core.FiberRemoved
)

// Error causes
var (
	ErrSchedulerInit  = core.ErrSchedulerInit
	ErrFiberAlloc     = core.ErrFiberAlloc
	ErrStackAlloc     = core.ErrStackAlloc
	ErrContextBuild   = core.ErrContextBuild
	ErrNoFiber        = core.ErrNoFiber
	ErrContextMissing = core.ErrContextMissing
	ErrInvalidSwitch  = core.ErrInvalidSwitch
)

// DefaultSchedulerConfig returns a config with default handlers
var DefaultSchedulerConfig = core.DefaultSchedulerConfig

// NewScheduler creates an independent Scheduler.
func NewScheduler(config *SchedulerConfig) *Scheduler {
	return core.NewScheduler(config)
}
