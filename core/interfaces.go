package core

import (
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling fiber panics
// =============================================================================

// PanicHandler is called when a fiber's entry function panics. The fiber is
// reclaimed afterwards and scheduling continues with the next fiber.
//
// HandlePanic runs on the panicking fiber's goroutine while it still holds
// the baton, so it must not call Yield.
type PanicHandler interface {
	// HandlePanic is called when a fiber panics.
	//
	// Parameters:
	// - schedulerName: The name of the scheduler that owns the fiber
	// - fiberID: The ID of the panicking fiber
	// - panicInfo: The recovered panic value
	// - stackTrace: The goroutine stack trace at the time of panic
	HandlePanic(schedulerName string, fiberID int64, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler prints panic information to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stdout.
func (h *DefaultPanicHandler) HandlePanic(schedulerName string, fiberID int64, panicInfo any, stackTrace []byte) {
	fmt.Printf("[Scheduler %s] Fiber %d panic: %v\nStack trace:\n%s",
		schedulerName, fiberID, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics collects scheduler events. Implementations can forward them to
// monitoring systems (Prometheus, StatsD, etc.).
//
// Methods are called with the scheduler lock held or from the broker loop;
// they must be fast and must not call back into the scheduler.
type Metrics interface {
	// RecordFiberCreated records a successful Create.
	RecordFiberCreated(schedulerName string)

	// RecordFiberRemoved records a reclaimed fiber.
	//
	// Parameters:
	// - reason: "exit", "return" or "panic"
	RecordFiberRemoved(schedulerName string, reason string)

	// RecordContextSwitch records one handoff between fibers.
	//
	// Parameters:
	// - kind: "start", "yield" or "return"
	RecordContextSwitch(schedulerName string, kind string)

	// RecordFiberPanic records that a fiber's entry function panicked.
	RecordFiberPanic(schedulerName string, panicInfo any)

	// RecordSliceDuration records how long a fiber held the baton before
	// handing it back to the broker.
	RecordSliceDuration(schedulerName string, duration time.Duration)

	// RecordLiveFibers records the number of registered non-root fibers.
	RecordLiveFibers(schedulerName string, count int)
}

// NilMetrics provides a no-op metrics implementation.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordFiberCreated(schedulerName string)                          {}
func (m *NilMetrics) RecordFiberRemoved(schedulerName string, reason string)           {}
func (m *NilMetrics) RecordContextSwitch(schedulerName string, kind string)            {}
func (m *NilMetrics) RecordFiberPanic(schedulerName string, panicInfo any)             {}
func (m *NilMetrics) RecordSliceDuration(schedulerName string, duration time.Duration) {}
func (m *NilMetrics) RecordLiveFibers(schedulerName string, count int)                 {}

// =============================================================================
// SchedulerConfig: Configuration for Scheduler
// =============================================================================

// DefaultMaxStackSize caps per-fiber stack requests.
const DefaultMaxStackSize = 64 << 20

// SchedulerConfig holds configuration options for Scheduler.
// All handlers are optional; if not provided, default implementations will be used.
type SchedulerConfig struct {
	// Name labels logs and metrics. Defaults to "fibers".
	Name string

	// DefaultStackSize is used when Attributes.StackSize is 0.
	DefaultStackSize int

	// MaxStackSize rejects larger stack requests with ErrStackAlloc.
	MaxStackSize int

	// MaxFibers bounds the number of live fibers. 0 means unbounded.
	MaxFibers int

	// HistoryCapacity is the number of switch records kept. Defaults to 100.
	HistoryCapacity int

	// StackAllocator provides stack memory. Defaults to HeapStackAllocator.
	StackAllocator StackAllocator

	// IDSource generates fiber IDs. Defaults to math/rand/v2.
	IDSource IDSource

	// Logger defaults to NoOpLogger.
	Logger Logger

	// Metrics defaults to NilMetrics.
	Metrics Metrics

	// PanicHandler defaults to DefaultPanicHandler.
	PanicHandler PanicHandler
}

// DefaultSchedulerConfig returns a config with default handlers.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Name:             "fibers",
		DefaultStackSize: DefaultStackSize,
		MaxStackSize:     DefaultMaxStackSize,
		HistoryCapacity:  defaultSwitchHistoryCapacity,
		StackAllocator:   NewHeapStackAllocator(),
		IDSource:         randomID,
		Logger:           NewNoOpLogger(),
		Metrics:          &NilMetrics{},
		PanicHandler:     &DefaultPanicHandler{},
	}
}

// resolve fills unset fields with defaults and validates the result.
func (c *SchedulerConfig) resolve() (SchedulerConfig, error) {
	out := *DefaultSchedulerConfig()
	if c == nil {
		return out, nil
	}

	if c.Name != "" {
		out.Name = c.Name
	}
	if c.DefaultStackSize != 0 {
		out.DefaultStackSize = c.DefaultStackSize
	}
	if c.MaxStackSize != 0 {
		out.MaxStackSize = c.MaxStackSize
	}
	out.MaxFibers = c.MaxFibers
	if c.HistoryCapacity != 0 {
		out.HistoryCapacity = c.HistoryCapacity
	}
	if c.StackAllocator != nil {
		out.StackAllocator = c.StackAllocator
	}
	if c.IDSource != nil {
		out.IDSource = c.IDSource
	}
	if c.Logger != nil {
		out.Logger = c.Logger
	}
	if c.Metrics != nil {
		out.Metrics = c.Metrics
	}
	if c.PanicHandler != nil {
		out.PanicHandler = c.PanicHandler
	}

	switch {
	case out.DefaultStackSize < 0:
		return out, fmt.Errorf("negative default stack size %d", out.DefaultStackSize)
	case out.MaxStackSize < 0:
		return out, fmt.Errorf("negative max stack size %d", out.MaxStackSize)
	case out.DefaultStackSize > out.MaxStackSize:
		return out, fmt.Errorf("default stack size %d exceeds max %d", out.DefaultStackSize, out.MaxStackSize)
	case out.MaxFibers < 0:
		return out, fmt.Errorf("negative fiber limit %d", out.MaxFibers)
	case out.HistoryCapacity < 0:
		return out, fmt.Errorf("negative history capacity %d", out.HistoryCapacity)
	}
	return out, nil
}
