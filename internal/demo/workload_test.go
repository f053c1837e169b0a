package demo

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Swind/go-fiber/core"
)

// TestWorkload_DefaultInterleaving tests the single producer/consumer run
// Main test items:
// 1. Output interleaves at the odd-item yields
// 2. Every item is consumed in order
// 3. All fibers are reclaimed when Run returns
func TestWorkload_DefaultInterleaving(t *testing.T) {
	s := core.NewScheduler(nil)
	var out bytes.Buffer

	w, err := New(s, DefaultConfig(), &out)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	summary, err := w.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := strings.Join([]string{
		"Starting Producer 0",
		"[P0] + Producing 0 ...",
		"[P0] + Producing 1 ...",
		"Starting Consumer 0",
		"[C0]   Consuming 0 .. with value 0",
		"[C0]   Consuming 1 .. with value 1",
		"[P0] + Producing 2 ...",
		"[P0] + Producing 3 ...",
		"[C0]   Consuming 2 .. with value 2",
		"[C0]   Consuming 3 .. with value 3",
		"Producer 0 ended.",
		"Consumer 0 ended.",
	}, "\n") + "\n"
	if out.String() != want {
		t.Fatalf("output mismatch\ngot:\n%s\nwant:\n%s", out.String(), want)
	}

	if summary.Produced != 4 || summary.Consumed != 4 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Switches != 6 {
		t.Fatalf("switches = %d, want 6", summary.Switches)
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d after run", s.Len())
	}
}

func TestWorkload_PresetIDs(t *testing.T) {
	s := core.NewScheduler(nil)
	cfg := DefaultConfig()
	cfg.Producers = 2
	cfg.Consumers = 2

	w, err := New(s, cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var ids []int64
	for _, info := range s.Fibers() {
		ids = append(ids, info.ID)
	}
	want := []int64{1000, 1001, 2000, 2001}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}

	if _, err := w.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// Caller-supplied fibers keep their ids after removal.
	if w.producers[1].ID != 1001 || w.consumers[0].ID != 2000 {
		t.Fatal("preset ids were cleared")
	}
	if w.producers[0].State() != core.FiberRemoved {
		t.Fatalf("producer state = %v", w.producers[0].State())
	}
}

func TestWorkload_UnevenFanInOut(t *testing.T) {
	s := core.NewScheduler(nil)
	cfg := Config{Producers: 2, Consumers: 3, BufferSize: 1, Items: 5}

	w, err := New(s, cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	summary, err := w.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Produced != 10 || summary.Consumed != 10 {
		t.Fatalf("summary = %+v", summary)
	}
	if w.buf.Full() != 0 {
		t.Fatalf("buffer still holds %d items", w.buf.Full())
	}
}

func TestWorkload_InvalidConfig(t *testing.T) {
	s := core.NewScheduler(nil)
	cfg := DefaultConfig()
	cfg.BufferSize = 0
	if _, err := New(s, cfg, nil); err == nil {
		t.Fatal("New should reject an empty buffer")
	}
	if s.Len() != 0 {
		t.Fatal("no fiber should be registered")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "demo.toml")
	if err := os.WriteFile(path, []byte("producers = 3\nitems = 7\nstack_size = 8192\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	want := Config{Producers: 3, Consumers: 1, BufferSize: 5, Items: 7, StackSize: 8192}
	if cfg != want {
		t.Fatalf("cfg = %+v, want %+v", cfg, want)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("producer = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Fatalf("unknown key error = %v", err)
	}

	invalid := filepath.Join(dir, "invalid.toml")
	if err := os.WriteFile(invalid, []byte("consumers = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(invalid); err == nil {
		t.Fatal("LoadConfig should validate")
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("missing file should fail")
	}
}

func TestBuffer_Ring(t *testing.T) {
	b := NewBuffer(2)
	if !b.Put(1) || !b.Put(2) {
		t.Fatal("Put into empty buffer failed")
	}
	if b.Put(3) {
		t.Fatal("Put into full buffer succeeded")
	}
	if v, ok := b.Take(); !ok || v != 1 {
		t.Fatalf("Take = %d, %v", v, ok)
	}
	if !b.Put(3) {
		t.Fatal("Put after Take failed")
	}
	for _, want := range []int{2, 3} {
		if v, ok := b.Take(); !ok || v != want {
			t.Fatalf("Take = %d, %v, want %d", v, ok, want)
		}
	}
	if _, ok := b.Take(); ok {
		t.Fatal("Take from empty buffer succeeded")
	}
	if b.Empty() != 2 || b.Full() != 0 {
		t.Fatalf("empty=%d full=%d", b.Empty(), b.Full())
	}
}

// TestWorkload_LifecycleErrorsPanic tests that yield and exit fail loudly
// Main test items:
// 1. Both helpers panic with ErrInvalidSwitch outside scheduling
// 2. Inside a run the panic reaches the scheduler's PanicHandler
func TestWorkload_LifecycleErrorsPanic(t *testing.T) {
	s := core.NewScheduler(nil)
	w, err := New(s, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for name, fn := range map[string]func(){"yield": w.yield, "exit": w.exit} {
		func() {
			defer func() {
				rec := recover()
				err, ok := rec.(error)
				if !ok || !errors.Is(err, core.ErrInvalidSwitch) {
					t.Fatalf("%s outside a fiber panicked with %v", name, rec)
				}
			}()
			fn()
		}()
	}

	if _, err := w.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}
