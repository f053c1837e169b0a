// Package demo runs a bounded-buffer producer/consumer workload on fibers.
package demo

import (
	"fmt"
	"io"

	"github.com/Swind/go-fiber/core"
)

const (
	producerBaseID = 1000
	consumerBaseID = 2000
)

// Summary is the outcome of one Run.
type Summary struct {
	Produced int
	Consumed int
	Switches uint64
}

// Workload wires producers and consumers into a scheduler.
type Workload struct {
	cfg   Config
	sched *core.Scheduler
	buf   *Buffer
	out   io.Writer

	producers []*core.Fiber
	consumers []*core.Fiber

	produced int
	consumed int
}

// New registers cfg.Producers producer fibers (ids 1000, 1001, ...) and
// cfg.Consumers consumer fibers (ids 2000, 2001, ...) with s. Progress lines
// are written to out.
func New(s *core.Scheduler, cfg Config, out io.Writer) (*Workload, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if out == nil {
		out = io.Discard
	}

	w := &Workload{
		cfg:   cfg,
		sched: s,
		buf:   NewBuffer(cfg.BufferSize),
		out:   out,
	}

	total := cfg.Producers * cfg.Items
	for i := range cfg.Producers {
		f := &core.Fiber{ID: int64(producerBaseID + i)}
		attr := &core.Attributes{StackSize: cfg.StackSize}
		if _, err := s.Create(f, attr, w.producer(i)); err != nil {
			return nil, fmt.Errorf("create producer %d: %w", i, err)
		}
		w.producers = append(w.producers, f)
	}
	for i := range cfg.Consumers {
		share := total / cfg.Consumers
		if i < total%cfg.Consumers {
			share++
		}
		f := &core.Fiber{ID: int64(consumerBaseID + i)}
		attr := &core.Attributes{StackSize: cfg.StackSize}
		if _, err := s.Create(f, attr, w.consumer(i, share)); err != nil {
			return nil, fmt.Errorf("create consumer %d: %w", i, err)
		}
		w.consumers = append(w.consumers, f)
	}
	return w, nil
}

// Run starts the scheduler and returns once every fiber has finished.
func (w *Workload) Run() (Summary, error) {
	before := w.sched.Stats().Switches
	if err := w.sched.StartFirst(); err != nil {
		return Summary{}, err
	}
	return Summary{
		Produced: w.produced,
		Consumed: w.consumed,
		Switches: w.sched.Stats().Switches - before,
	}, nil
}

// yield and exit only fail when called outside a fiber. The panic is
// recovered by the scheduler and reported to its PanicHandler.
func (w *Workload) yield() {
	if err := w.sched.Yield(); err != nil {
		panic(err)
	}
}

func (w *Workload) exit() {
	if err := w.sched.Exit(); err != nil {
		panic(err)
	}
}

func (w *Workload) producer(index int) func() {
	return func() {
		fmt.Fprintf(w.out, "Starting Producer %d\n", index)
		for i := range w.cfg.Items {
			for !w.buf.Put(i) {
				w.yield()
			}
			w.produced++
			fmt.Fprintf(w.out, "[P%d] + Producing %d ...\n", index, i)

			// interleave with the consumers
			if i%2 == 1 {
				w.yield()
			}
		}
		fmt.Fprintf(w.out, "Producer %d ended.\n", index)
		w.exit()
	}
}

func (w *Workload) consumer(index, share int) func() {
	return func() {
		fmt.Fprintf(w.out, "Starting Consumer %d\n", index)
		for i := range share {
			value, ok := w.buf.Take()
			for !ok {
				w.yield()
				value, ok = w.buf.Take()
			}
			w.consumed++
			fmt.Fprintf(w.out, "[C%d]   Consuming %d .. with value %d\n", index, i, value)

			if i%2 == 1 {
				w.yield()
			}
		}
		fmt.Fprintf(w.out, "Consumer %d ended.\n", index)
		w.exit()
	}
}
