package prometheus

import (
	"testing"
	"time"

	"github.com/Swind/go-fiber/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("fiber", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordFiberCreated("sched-a")
	exporter.RecordFiberCreated("sched-a")
	exporter.RecordFiberRemoved("sched-a", "exit")
	exporter.RecordContextSwitch("sched-a", "yield")
	exporter.RecordFiberPanic("sched-a", "boom")
	exporter.RecordSliceDuration("sched-a", 3*time.Millisecond)
	exporter.RecordLiveFibers("sched-a", 5)

	if got := testutil.ToFloat64(exporter.fibersCreated.WithLabelValues("sched-a")); got != 2 {
		t.Fatalf("created total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(exporter.fibersRemoved.WithLabelValues("sched-a", "exit")); got != 1 {
		t.Fatalf("removed total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.switchesTotal.WithLabelValues("sched-a", "yield")); got != 1 {
		t.Fatalf("switch total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.panicsTotal.WithLabelValues("sched-a")); got != 1 {
		t.Fatalf("panic total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.liveFibers.WithLabelValues("sched-a")); got != 5 {
		t.Fatalf("live fibers = %v, want 5", got)
	}

	histCount, err := histogramSampleCount(exporter.sliceSeconds.WithLabelValues("sched-a"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if histCount != 1 {
		t.Fatalf("slice sample count = %d, want 1", histCount)
	}
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("fiber", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("first NewMetricsExporter failed: %v", err)
	}
	second, err := NewMetricsExporter("fiber", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("second NewMetricsExporter failed: %v", err)
	}

	first.RecordFiberPanic("sched-a", nil)
	second.RecordFiberPanic("sched-a", nil)

	got := testutil.ToFloat64(first.panicsTotal.WithLabelValues("sched-a"))
	if got != 2 {
		t.Fatalf("shared panic counter = %v, want 2", got)
	}
}

// TestMetricsExporter_WiredIntoScheduler tests the exporter as a scheduler's Metrics
// Main test items:
// 1. Two fibers alternate once each and finish
// 2. Created/removed counters and live gauge reflect the run
// 3. Yield handoffs are counted under the "yield" kind
func TestMetricsExporter_WiredIntoScheduler(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("fiber", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	s := core.NewScheduler(&core.SchedulerConfig{Name: "wired", Metrics: exporter})
	for range 2 {
		if _, err := s.Create(nil, nil, func() {
			_ = s.Yield()
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if err := s.StartFirst(); err != nil {
		t.Fatalf("StartFirst failed: %v", err)
	}

	if got := testutil.ToFloat64(exporter.fibersCreated.WithLabelValues("wired")); got != 2 {
		t.Fatalf("created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(exporter.fibersRemoved.WithLabelValues("wired", "return")); got != 2 {
		t.Fatalf("removed(return) = %v, want 2", got)
	}
	if got := testutil.ToFloat64(exporter.liveFibers.WithLabelValues("wired")); got != 0 {
		t.Fatalf("live = %v, want 0", got)
	}
	if got := testutil.ToFloat64(exporter.switchesTotal.WithLabelValues("wired", "yield")); got != 2 {
		t.Fatalf("yield switches = %v, want 2", got)
	}
}

func histogramSampleCount(observer prom.Observer) (uint64, error) {
	collector, ok := observer.(prom.Collector)
	if !ok {
		return 0, nil
	}

	metricCh := make(chan prom.Metric, 1)
	collector.Collect(metricCh)
	close(metricCh)
	for metric := range metricCh {
		msg := &dto.Metric{}
		if err := metric.Write(msg); err != nil {
			return 0, err
		}
		if msg.Histogram != nil {
			return msg.Histogram.GetSampleCount(), nil
		}
	}
	return 0, nil
}
