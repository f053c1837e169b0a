package fiber

import (
	"sync"

	"github.com/Swind/go-fiber/core"
)

// =============================================================================
// Default Scheduler (Singleton)
// =============================================================================

var (
	defaultScheduler *core.Scheduler
	defaultConfig    *core.SchedulerConfig
	defaultOnce      sync.Once
	defaultMu        sync.Mutex
)

// SetDefaultConfig sets the config used when the default scheduler is first
// created. It has no effect once any package level function has been called.
func SetDefaultConfig(config *core.SchedulerConfig) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultConfig = config
}

// Default returns the process-wide scheduler, creating it on first use.
// It is never torn down.
func Default() *core.Scheduler {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		defer defaultMu.Unlock()
		defaultScheduler = core.NewScheduler(defaultConfig)
	})
	return defaultScheduler
}

// Create registers a fiber with the default scheduler. See Scheduler.Create.
func Create(f *Fiber, attr *Attributes, entry func()) (*Fiber, error) {
	return Default().Create(f, attr, entry)
}

// Start runs the default scheduler beginning with f, or with the first
// registered fiber if f is nil. It returns when no runnable fiber remains.
func Start(f *Fiber) error {
	return Default().Start(f)
}

// StartFirst runs the default scheduler beginning with the first fiber.
func StartFirst() error {
	return Default().StartFirst()
}

// Yield hands the baton from the calling fiber to the next one.
func Yield() error {
	return Default().Yield()
}

// Exit marks the calling fiber for removal. Return from the entry function
// immediately afterwards.
func Exit() error {
	return Default().Exit()
}

// Current returns the fiber running on the default scheduler, if any.
func Current() *Fiber {
	return Default().Current()
}
