// Package profiler - timing and resource statistics for long dataset runs.
package profiler

import (
	"context"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Profiler tracks operation timings and custom metrics, and periodically
// logs a status report with memory statistics.
//
// All methods are safe for concurrent use.
type Profiler struct {
	reportInterval time.Duration
	maxSamples     int
	logger         *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	startTime time.Time
	running   bool

	metrics    map[string]*MetricTracker
	operations map[string]*TimeTracker
}

// MetricTracker tracks statistics for a custom metric.
type MetricTracker struct {
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// Options configures the profiler.
type Options struct {
	// ReportInterval specifies how often to log status reports (default: 10s).
	ReportInterval time.Duration
	// MaxSamples bounds the samples kept per tracker for averages (default: 1000).
	MaxSamples int
}

// MetricStats summarizes a custom metric.
type MetricStats struct {
	Avg   float64
	Min   float64
	Max   float64
	Count int64
}

// OperationStats summarizes an operation's timings.
type OperationStats struct {
	Avg   time.Duration
	Min   time.Duration
	Max   time.Duration
	Total time.Duration
	Count int64
}

// Snapshot is a point-in-time copy of every tracker.
type Snapshot struct {
	Uptime     time.Duration
	Goroutines int
	HeapAlloc  uint64
	Metrics    map[string]MetricStats
	Operations map[string]OperationStats
}

// New creates a profiler that logs through logger. A nil logger disables
// the periodic reports.
//
// Arguments:
// - opts: Configuration options for the profiler
// - logger: Destination of status reports
//
// Returns:
// - A configured Profiler instance
func New(opts Options, logger *zap.Logger) *Profiler {
	if opts.ReportInterval == 0 {
		opts.ReportInterval = 10 * time.Second
	}
	if opts.MaxSamples == 0 {
		opts.MaxSamples = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Profiler{
		reportInterval: opts.ReportInterval,
		maxSamples:     opts.MaxSamples,
		logger:         logger,
		startTime:      time.Now(),
		metrics:        make(map[string]*MetricTracker),
		operations:     make(map[string]*TimeTracker),
	}
}

// Start begins periodic reporting until ctx is done or Stop is called.
// Calling Start on a running profiler does nothing.
func (p *Profiler) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.startTime = time.Now()

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.report()
			}
		}
	}()
}

// Stop ends reporting and waits for the reporter to exit.
func (p *Profiler) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}

// RecordMetric records a custom metric value.
//
// Arguments:
// - name: The name of the metric
// - value: The metric value to record
func (p *Profiler) RecordMetric(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.metrics[name]
	if !ok {
		t = &MetricTracker{min: value, max: value}
		p.metrics[name] = t
	}

	t.values = append(t.values, value)
	if len(t.values) > p.maxSamples {
		t.sum -= t.values[0]
		t.values = t.values[1:]
	}
	t.sum += value
	t.count++
	t.min = min(t.min, value)
	t.max = max(t.max, value)
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes
func (p *Profiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		p.recordOperationTime(name, time.Since(start))
	}
}

func (p *Profiler) recordOperationTime(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.operations[name]
	if !ok {
		t = &TimeTracker{minTime: d, maxTime: d}
		p.operations[name] = t
	}

	t.durations = append(t.durations, d)
	if len(t.durations) > p.maxSamples {
		t.durations = t.durations[1:]
	}
	t.totalTime += d
	t.count++
	t.minTime = min(t.minTime, d)
	t.maxTime = max(t.maxTime, d)
}

// Snapshot returns the current statistics.
func (p *Profiler) Snapshot() Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Snapshot{
		Uptime:     time.Since(p.startTime),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		Metrics:    make(map[string]MetricStats, len(p.metrics)),
		Operations: make(map[string]OperationStats, len(p.operations)),
	}
	for name, t := range p.metrics {
		if len(t.values) == 0 {
			continue
		}
		s.Metrics[name] = MetricStats{
			Avg:   t.sum / float64(len(t.values)),
			Min:   t.min,
			Max:   t.max,
			Count: t.count,
		}
	}
	for name, t := range p.operations {
		if len(t.durations) == 0 {
			continue
		}
		var window time.Duration
		for _, d := range t.durations {
			window += d
		}
		s.Operations[name] = OperationStats{
			Avg:   window / time.Duration(len(t.durations)),
			Min:   t.minTime,
			Max:   t.maxTime,
			Total: t.totalTime,
			Count: t.count,
		}
	}
	return s
}

// Fields renders a snapshot as structured log fields in a stable order.
func (s Snapshot) Fields() []zap.Field {
	fields := []zap.Field{
		zap.Duration("uptime", s.Uptime.Truncate(time.Millisecond)),
		zap.Int("goroutines", s.Goroutines),
		zap.String("heap_alloc", formatBytes(s.HeapAlloc)),
	}

	names := make([]string, 0, len(s.Operations))
	for name := range s.Operations {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		o := s.Operations[name]
		fields = append(fields,
			zap.Int64(name+"_count", o.Count),
			zap.Duration(name+"_avg", o.Avg.Truncate(time.Microsecond)),
			zap.Duration(name+"_max", o.Max.Truncate(time.Microsecond)),
		)
	}

	names = names[:0]
	for name := range s.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := s.Metrics[name]
		fields = append(fields, zap.Float64(name+"_avg", m.Avg), zap.Float64(name+"_max", m.Max))
	}
	return fields
}

func (p *Profiler) report() {
	p.logger.Info("progress", p.Snapshot().Fields()...)
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return strconv.FormatUint(bytes, 10) + " B"
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(bytes)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "B"
}
