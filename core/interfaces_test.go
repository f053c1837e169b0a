package core

import (
	"strings"
	"testing"
)

// =============================================================================
// Test SchedulerConfig
// =============================================================================

// TestSchedulerConfig_Resolve tests default merging
// Main test items:
// 1. A nil config resolves to DefaultSchedulerConfig
// 2. Set fields win over defaults
// 3. Nil handlers fall back to the default implementations
func TestSchedulerConfig_Resolve(t *testing.T) {
	var nilCfg *SchedulerConfig
	cfg, err := nilCfg.resolve()
	if err != nil {
		t.Fatalf("resolve(nil) failed: %v", err)
	}
	if cfg.Name != "fibers" || cfg.DefaultStackSize != DefaultStackSize || cfg.MaxStackSize != DefaultMaxStackSize {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	logger := &recordingLogger{}
	cfg, err = (&SchedulerConfig{Name: "custom", DefaultStackSize: 2048, MaxFibers: 3, Logger: logger}).resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.Name != "custom" || cfg.DefaultStackSize != 2048 || cfg.MaxFibers != 3 {
		t.Fatalf("overrides lost: %+v", cfg)
	}
	if cfg.Logger != logger {
		t.Fatal("logger override lost")
	}
	if _, ok := cfg.Metrics.(*NilMetrics); !ok {
		t.Fatalf("Metrics = %T, want *NilMetrics", cfg.Metrics)
	}
	if _, ok := cfg.PanicHandler.(*DefaultPanicHandler); !ok {
		t.Fatalf("PanicHandler = %T, want *DefaultPanicHandler", cfg.PanicHandler)
	}
	if _, ok := cfg.StackAllocator.(*HeapStackAllocator); !ok {
		t.Fatalf("StackAllocator = %T, want *HeapStackAllocator", cfg.StackAllocator)
	}
	if cfg.IDSource == nil {
		t.Fatal("IDSource not defaulted")
	}
}

func TestSchedulerConfig_ResolveRejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  SchedulerConfig
		want string
	}{
		{"negative default stack", SchedulerConfig{DefaultStackSize: -1}, "negative default stack"},
		{"negative max stack", SchedulerConfig{MaxStackSize: -1}, "negative max stack"},
		{"default above max", SchedulerConfig{DefaultStackSize: 8192, MaxStackSize: 4096}, "exceeds max"},
		{"negative fiber limit", SchedulerConfig{MaxFibers: -2}, "negative fiber limit"},
		{"negative history", SchedulerConfig{HistoryCapacity: -1}, "negative history"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.resolve()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("resolve error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestSwitchHistory_Ring(t *testing.T) {
	h := newSwitchHistory(3)
	if h.Recent(0) != nil {
		t.Fatal("empty history should return nil")
	}

	for i := range int64(5) {
		h.Add(SwitchRecord{From: i, To: i + 1, Reason: reasonYield})
	}

	got := h.Recent(0)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []int64{4, 3, 2} {
		if got[i].From != want {
			t.Fatalf("record %d From = %d, want %d", i, got[i].From, want)
		}
	}
	if got := h.Recent(1); len(got) != 1 || got[0].From != 4 {
		t.Fatalf("Recent(1) = %+v", got)
	}

	if newSwitchHistory(0) == nil || len(newSwitchHistory(0).items) != defaultSwitchHistoryCapacity {
		t.Fatal("zero capacity should fall back to the default")
	}
}
