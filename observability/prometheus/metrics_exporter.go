package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-fiber/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	SliceBuckets []float64
}

// defaultSliceBuckets covers sub-microsecond handoffs up to slow slices.
var defaultSliceBuckets = []float64{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 0.1, 1}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	fibersCreated *prom.CounterVec
	fibersRemoved *prom.CounterVec
	switchesTotal *prom.CounterVec
	panicsTotal   *prom.CounterVec
	sliceSeconds  *prom.HistogramVec
	liveFibers    *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "fiber"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.SliceBuckets
	if len(buckets) == 0 {
		buckets = defaultSliceBuckets
	}

	createdVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "fibers_created_total",
		Help:      "Total number of fibers created.",
	}, []string{"scheduler"})
	removedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "fibers_removed_total",
		Help:      "Total number of fibers reclaimed.",
	}, []string{"scheduler", "reason"})
	switchesVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "context_switches_total",
		Help:      "Total number of broker handoffs.",
	}, []string{"scheduler", "kind"})
	panicsVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "fiber_panics_total",
		Help:      "Total number of fiber panics.",
	}, []string{"scheduler"})
	sliceVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "slice_duration_seconds",
		Help:      "Time a fiber held the baton before handing it back.",
		Buckets:   buckets,
	}, []string{"scheduler"})
	liveVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "live_fibers",
		Help:      "Registered fibers, excluding the broker.",
	}, []string{"scheduler"})

	var err error
	if createdVec, err = registerCollector(reg, createdVec); err != nil {
		return nil, err
	}
	if removedVec, err = registerCollector(reg, removedVec); err != nil {
		return nil, err
	}
	if switchesVec, err = registerCollector(reg, switchesVec); err != nil {
		return nil, err
	}
	if panicsVec, err = registerCollector(reg, panicsVec); err != nil {
		return nil, err
	}
	if sliceVec, err = registerCollector(reg, sliceVec); err != nil {
		return nil, err
	}
	if liveVec, err = registerCollector(reg, liveVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		fibersCreated: createdVec,
		fibersRemoved: removedVec,
		switchesTotal: switchesVec,
		panicsTotal:   panicsVec,
		sliceSeconds:  sliceVec,
		liveFibers:    liveVec,
	}, nil
}

// RecordFiberCreated counts created fibers.
func (m *MetricsExporter) RecordFiberCreated(schedulerName string) {
	if m == nil {
		return
	}
	m.fibersCreated.WithLabelValues(normalizeLabel(schedulerName, "unknown")).Inc()
}

// RecordFiberRemoved counts reclaimed fibers by reason.
func (m *MetricsExporter) RecordFiberRemoved(schedulerName string, reason string) {
	if m == nil {
		return
	}
	m.fibersRemoved.WithLabelValues(normalizeLabel(schedulerName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

// RecordContextSwitch counts broker handoffs by kind.
func (m *MetricsExporter) RecordContextSwitch(schedulerName string, kind string) {
	if m == nil {
		return
	}
	m.switchesTotal.WithLabelValues(normalizeLabel(schedulerName, "unknown"), normalizeLabel(kind, "unknown")).Inc()
}

// RecordFiberPanic counts fiber panics.
func (m *MetricsExporter) RecordFiberPanic(schedulerName string, panicInfo any) {
	if m == nil {
		return
	}
	m.panicsTotal.WithLabelValues(normalizeLabel(schedulerName, "unknown")).Inc()
}

// RecordSliceDuration observes how long a fiber ran between handoffs.
func (m *MetricsExporter) RecordSliceDuration(schedulerName string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sliceSeconds.WithLabelValues(normalizeLabel(schedulerName, "unknown")).Observe(duration.Seconds())
}

// RecordLiveFibers sets the live fiber gauge.
func (m *MetricsExporter) RecordLiveFibers(schedulerName string, count int) {
	if m == nil {
		return
	}
	m.liveFibers.WithLabelValues(normalizeLabel(schedulerName, "unknown")).Set(float64(count))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
