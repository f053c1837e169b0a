package core

import (
	"errors"
	"runtime"
	"runtime/debug"
)

// execContext is a logical thread of execution: a goroutine that only runs
// while it holds the baton, plus the stack region bound to it.
//
// The baton moves over the wake channels. Every field below is written by
// whichever side holds the baton and read by the other side only after it
// has received the baton, so the channel operations order all accesses.
type execContext struct {
	stack     *Stack
	allocator StackAllocator
	entry     func()
	link      *execContext // resumed when entry returns

	wake   chan struct{}
	kill   chan struct{}
	exited chan struct{}

	started   bool
	running   bool
	finished  bool
	killed    bool
	destroyed bool

	onReturn func()
	onPanic  func(rec any, stack []byte)
}

var errNilEntry = errors.New("nil entry function")

// newRootContext returns the context of the goroutine that drives the broker.
// It has no stack of its own and is never destroyed.
func newRootContext() *execContext {
	return &execContext{
		wake:    make(chan struct{}),
		started: true,
		running: true,
	}
}

// buildContext binds stack and entry into a dormant context that returns to
// link when entry returns. The goroutine is spawned on the first transfer.
func buildContext(stack *Stack, allocator StackAllocator, entry func(), link *execContext) (*execContext, error) {
	if entry == nil {
		return nil, errNilEntry
	}
	if link == nil {
		return nil, errors.New("nil return context")
	}
	return &execContext{
		stack:     stack,
		allocator: allocator,
		entry:     entry,
		link:      link,
		wake:      make(chan struct{}),
		kill:      make(chan struct{}),
		exited:    make(chan struct{}),
	}, nil
}

// switchTo hands the baton to target and parks until the baton comes back.
// The caller does not save any resume point: the broker re-enters its loop
// from the top every time it is woken.
func (c *execContext) switchTo(target *execContext) error {
	if target == nil || target.destroyed || target.finished {
		return ErrContextMissing
	}
	if target.running || target == c {
		return ErrInvalidSwitch
	}

	c.running = false
	target.running = true
	if !target.started {
		target.started = true
		go target.trampoline()
	} else {
		target.wake <- struct{}{}
	}

	<-c.wake
	c.running = true
	return nil
}

// swap saves the resume point in c and hands the baton to target. It returns
// when c is resumed. If c is destroyed while parked, the goroutine exits.
func (c *execContext) swap(target *execContext) error {
	if target == nil || target == c {
		return ErrInvalidSwitch
	}

	c.running = false
	target.wake <- struct{}{}

	select {
	case <-c.wake:
		return nil
	case <-c.kill:
		c.killed = true
		runtime.Goexit()
		return nil
	}
}

func (c *execContext) trampoline() {
	defer close(c.exited)
	defer func() {
		if c.killed {
			return
		}
		if rec := recover(); rec != nil && c.onPanic != nil {
			c.onPanic(rec, debug.Stack())
		}
		c.finished = true
		c.running = false
		if c.onReturn != nil {
			c.onReturn()
		}
		c.link.wake <- struct{}{}
	}()

	c.entry()
}

// destroy wipes and releases the stack.
//
// The scheduler only destroys contexts whose entry function has finished.
// A context that is still parked in swap is terminated first (kill, then
// runtime.Goexit on its goroutine) so nothing runs on it while its memory
// goes away; no scheduler path takes that branch, it exists so destroy is
// safe for any context that is not running.
func (c *execContext) destroy() error {
	if c.destroyed {
		return nil
	}
	if c.running {
		return ErrInvalidSwitch
	}

	if c.started && !c.finished {
		close(c.kill)
		<-c.exited
	}

	c.stack.wipe()
	var err error
	if c.allocator != nil && c.stack != nil {
		err = c.allocator.Release(c.stack)
	}

	c.destroyed = true
	c.entry = nil
	c.link = nil
	c.onReturn = nil
	c.onPanic = nil
	return err
}
